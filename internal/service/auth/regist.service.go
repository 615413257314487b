package auth

import (
	"time"

	"go-checkout/internal/common/enum"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/rabbitmq"
	"go-checkout/internal/pkg/redis"
)

const (
	// Codes expire after 10 minutes. The attempt ceiling bounds guessing; the TTL
	// bounds how long an unattended code stays chargeable.
	codeTTL = 10 * time.Minute

	codeLength  = 6
	maxAttempts = 3

	// DispatchQueue carries code-delivery jobs to the notification worker.
	DispatchQueue = "checkout.otp.dispatch"
)

type notifier interface {
	Publish(queueName string, msg *rabbitmq.Message) error
}

type Service struct {
	rds redis.IRedis
	pub notifier
}

type IService interface {
	SendCode(channel enum.ChannelEnum, destination, flowID string) (*types.OTPSession, error)
	VerifyCode(sessionID, code string) error
	MintToken(account types.VerifiedAccount) (string, *time.Time)
}

func NewService(rds redis.IRedis, pub notifier) IService {
	return &Service{rds: rds, pub: pub}
}

// DispatchPayload is the body of a code-delivery job.
type DispatchPayload struct {
	Channel     enum.ChannelEnum `json:"channel"`
	Destination string           `json:"destination"`
	Code        string           `json:"code"`
	FlowID      string           `json:"flow_id"`
}

type storedSession struct {
	Code        string           `json:"code"`
	Channel     enum.ChannelEnum `json:"channel"`
	Destination string           `json:"destination"`
	FlowID      string           `json:"flow_id"`
}
