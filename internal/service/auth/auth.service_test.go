package auth

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-checkout/internal/common/enum"
	"go-checkout/internal/pkg/rabbitmq"
	"go-checkout/internal/pkg/redis"
	"go-checkout/internal/pkg/validation"
)

func init() {
	if err := validation.Setup(); err != nil {
		panic(err)
	}
}

type fakeRedis struct {
	store  map[string]string
	ttls   map[string]time.Duration
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{store: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Set(key string, value any, expiration time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = string(b)
	f.ttls[key] = expiration
	return nil
}

func (f *fakeRedis) Get(key string) (string, error) {
	v, ok := f.store[key]
	if !ok {
		return "", redis.NilType
	}
	return v, nil
}

func (f *fakeRedis) Del(key string) error {
	delete(f.store, key)
	return nil
}

func (f *fakeRedis) Expire(key string, expiration time.Duration) error {
	f.ttls[key] = expiration
	return nil
}

func (f *fakeRedis) Close() error { return nil }

type fakeNotifier struct {
	published []*rabbitmq.Message
	queues    []string
	err       error
}

func (f *fakeNotifier) Publish(queueName string, msg *rabbitmq.Message) error {
	if f.err != nil {
		return f.err
	}
	f.queues = append(f.queues, queueName)
	f.published = append(f.published, msg)
	return nil
}

func storedCode(t *testing.T, rds *fakeRedis, sessionID string) string {
	t.Helper()
	raw, ok := rds.store[sessionKey(sessionID)]
	if !ok {
		t.Fatalf("no stored session for %s", sessionID)
	}
	var s storedSession
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("corrupt stored session: %v", err)
	}
	return s.Code
}

func TestSendCodeCreatesSessionAndDispatches(t *testing.T) {
	rds := newFakeRedis()
	pub := &fakeNotifier{}
	svc := NewService(rds, pub)

	session, err := svc.SendCode(enum.SMS, "+15551234567", "flow-1")
	if err != nil {
		t.Fatalf("SendCode returned error: %v", err)
	}
	if session.AttemptsRemaining != 3 {
		t.Errorf("AttemptsRemaining = %d, want 3", session.AttemptsRemaining)
	}
	if session.CodeLength != 6 {
		t.Errorf("CodeLength = %d, want 6", session.CodeLength)
	}
	if len(pub.published) != 1 || pub.queues[0] != DispatchQueue {
		t.Fatalf("expected one dispatch on %s, got %v", DispatchQueue, pub.queues)
	}
	if got := rds.ttls[sessionKey(session.SessionID)]; got != 10*time.Minute {
		t.Errorf("session TTL = %v, want 10m", got)
	}
	if code := storedCode(t, rds, session.SessionID); len(code) != 6 {
		t.Errorf("stored code %q is not 6 digits", code)
	}
}

func TestSendCodeRejectsBadSmsDestination(t *testing.T) {
	rds := newFakeRedis()
	svc := NewService(rds, &fakeNotifier{})

	if _, err := svc.SendCode(enum.SMS, "not-a-phone", "flow-1"); err == nil {
		t.Fatal("expected error for invalid sms destination")
	}
	if len(rds.store) != 0 {
		t.Error("no session should be created for an invalid destination")
	}
}

func TestSendCodeDispatchFailureCreatesNoSession(t *testing.T) {
	rds := newFakeRedis()
	pub := &fakeNotifier{err: errors.New("broker unreachable")}
	svc := NewService(rds, pub)

	if _, err := svc.SendCode(enum.SMS, "+15551234567", "flow-1"); err == nil {
		t.Fatal("expected error when dispatch fails")
	}
	if len(rds.store) != 0 {
		t.Error("session must be cleaned up when dispatch fails")
	}
}

func TestVerifyCodeConsumesSession(t *testing.T) {
	rds := newFakeRedis()
	svc := NewService(rds, &fakeNotifier{})

	session, err := svc.SendCode(enum.EMAIL, "user@example.com", "flow-1")
	if err != nil {
		t.Fatalf("SendCode returned error: %v", err)
	}
	code := storedCode(t, rds, session.SessionID)

	if err := svc.VerifyCode(session.SessionID, code); err != nil {
		t.Fatalf("VerifyCode rejected the correct code: %v", err)
	}
	// single use: a second verification of the same code must fail
	if err := svc.VerifyCode(session.SessionID, code); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("second verification = %v, want ErrSessionExpired", err)
	}
}

func TestVerifyCodeWrongCodeKeepsSession(t *testing.T) {
	rds := newFakeRedis()
	svc := NewService(rds, &fakeNotifier{})

	session, err := svc.SendCode(enum.EMAIL, "user@example.com", "flow-1")
	if err != nil {
		t.Fatalf("SendCode returned error: %v", err)
	}
	code := storedCode(t, rds, session.SessionID)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	if err := svc.VerifyCode(session.SessionID, wrong); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("wrong code = %v, want ErrInvalidCode", err)
	}
	// session survives a failed attempt
	if err := svc.VerifyCode(session.SessionID, code); err != nil {
		t.Errorf("correct code after a miss rejected: %v", err)
	}
}

func TestVerifyCodeRejectsShortCodeLocally(t *testing.T) {
	svc := NewService(newFakeRedis(), &fakeNotifier{})

	if err := svc.VerifyCode("any-session", "123"); !errors.Is(err, ErrInvalidCode) {
		t.Errorf("short code = %v, want ErrInvalidCode", err)
	}
}

func TestVerifyCodeUnknownSession(t *testing.T) {
	svc := NewService(newFakeRedis(), &fakeNotifier{})

	if err := svc.VerifyCode("missing", "123456"); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("unknown session = %v, want ErrSessionExpired", err)
	}
}
