package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go-checkout/internal/common/enum"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/helper"
	"go-checkout/internal/pkg/jwt"
	"go-checkout/internal/pkg/logger"
	"go-checkout/internal/pkg/rabbitmq"
	"go-checkout/internal/pkg/redis"
	"go-checkout/internal/pkg/validation"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	// ErrInvalidCode is returned when a submitted code does not match the session.
	ErrInvalidCode = errors.New("invalid one-time code")
	// ErrSessionExpired is returned when the session is unknown or past its TTL.
	ErrSessionExpired = errors.New("one-time code session expired")
)

func sessionKey(sessionID string) string {
	return fmt.Sprintf("otp:session:%s", sessionID)
}

// SendCode generates a one-time code, stores it under a fresh session, and queues
// delivery over the requested channel. The destination is validated here even
// though the caller validates first: an sms code must never be dispatched to a
// string that is not a phone number.
func (s *Service) SendCode(channel enum.ChannelEnum, destination, flowID string) (*types.OTPSession, error) {
	switch channel {
	case enum.SMS:
		if err := validation.ValidateVar(destination, "required,phone"); err != nil {
			return nil, fmt.Errorf("invalid sms destination: %w", err)
		}
	case enum.EMAIL:
		if err := validation.ValidateVar(destination, "required,email"); err != nil {
			return nil, fmt.Errorf("invalid email destination: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported channel: %s", channel)
	}

	code, err := generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	sessionID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	stored := storedSession{
		Code:        code,
		Channel:     channel,
		Destination: destination,
		FlowID:      flowID,
	}
	if err := s.rds.Set(sessionKey(sessionID), stored, codeTTL); err != nil {
		return nil, fmt.Errorf("failed to store code session: %w", err)
	}

	msg, err := rabbitmq.NewMessage(DispatchPayload{
		Channel:     channel,
		Destination: destination,
		Code:        code,
		FlowID:      flowID,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build dispatch message: %w", err)
	}

	if err := s.pub.Publish(DispatchQueue, msg); err != nil {
		// The code is unreachable if delivery never leaves the broker, so a publish
		// failure is a send failure. Drop the session to keep it single-use.
		if delErr := s.rds.Del(sessionKey(sessionID)); delErr != nil {
			logger.Warning.Printf("failed to clean up undeliverable session %s: %v", sessionID, delErr)
		}
		return nil, fmt.Errorf("failed to dispatch code: %w", err)
	}

	logger.Info.Printf("one-time code dispatched via %s to %s", channel, helper.MaskDestination(destination))

	return &types.OTPSession{
		SessionID:         sessionID,
		Channel:           channel,
		Destination:       destination,
		CodeLength:        codeLength,
		AttemptsRemaining: maxAttempts,
		SentAt:            time.Now(),
	}, nil
}

// VerifyCode checks a submitted code against its session. A correct code consumes
// the session; a wrong one leaves it in place for another attempt. Attempt counting
// is the caller's concern.
func (s *Service) VerifyCode(sessionID, code string) error {
	if err := validation.ValidateVar(code, "required,otp_code"); err != nil {
		return ErrInvalidCode
	}

	raw, err := s.rds.Get(sessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redis.NilType) {
			return ErrSessionExpired
		}
		return fmt.Errorf("failed to load code session: %w", err)
	}
	if raw == "" {
		return ErrSessionExpired
	}

	stored, err := helper.StringToStruct[storedSession](raw)
	if err != nil {
		return fmt.Errorf("corrupt code session: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(stored.Code), []byte(code)) != 1 {
		return ErrInvalidCode
	}

	if err := s.rds.Del(sessionKey(sessionID)); err != nil {
		logger.Warning.Printf("failed to consume verified session %s: %v", sessionID, err)
	}
	return nil
}

// MintToken issues the bearer token for a verified identity.
func (s *Service) MintToken(account types.VerifiedAccount) (string, *time.Time) {
	return jwt.GenerateToken(account)
}

func generateCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
