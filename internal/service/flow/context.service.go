package flow

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go-checkout/internal/common/enum"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/helper"
	"go-checkout/internal/pkg/redis"
)

// ErrFlowNotFound is returned when a flow id has expired or never existed.
var ErrFlowNotFound = errors.New("flow not found")

// AuthBranch exists only while the flow is in an authentication state. Grouping the
// session under the branch makes an OTP session outside those states
// unrepresentable.
type AuthBranch struct {
	Channel     enum.ChannelEnum  `json:"channel,omitempty"`
	Destination string            `json:"destination,omitempty"`
	Session     *types.OTPSession `json:"session,omitempty"`
}

// PaymentBranch exists only from card fetching onward.
type PaymentBranch struct {
	SavedCards     []types.SavedCard `json:"saved_cards"`
	SelectedCardID string            `json:"selected_card_id,omitempty"`
	IdempotencyKey string            `json:"idempotency_key,omitempty"`
	OrderID        string            `json:"order_id,omitempty"`
	TransactionID  string            `json:"transaction_id,omitempty"`
	ReceiptKey     string            `json:"receipt_key,omitempty"`
}

// FlowContext is the single mutable record owned by one checkout flow. It is
// created at flow start, reset on explicit restart, and discarded when the flow
// completes or the session expires.
type FlowContext struct {
	FlowID   string            `json:"flow_id"`
	Vertical enum.VerticalEnum `json:"vertical"`
	Role     enum.RoleEnum     `json:"role"`

	State   State   `json:"state"`
	History []State `json:"history"`

	Contact    types.ContactInfo        `json:"contact"`
	Candidates []types.CandidateAccount `json:"candidates,omitempty"`
	Selection  *types.MatchSelection    `json:"selection,omitempty"`

	Cart   []types.CartLine `json:"cart"`
	PlanID string           `json:"plan_id,omitempty"`

	Auth    *AuthBranch    `json:"auth,omitempty"`
	Payment *PaymentBranch `json:"payment,omitempty"`

	AccountID    string `json:"account_id,omitempty"`
	SessionToken string `json:"session_token,omitempty"`

	LastError *types.FlowError `json:"last_error,omitempty"`

	// AttemptToken increases once per coordinator call. A completion carrying an
	// older token is stale and must be discarded.
	AttemptToken uint64 `json:"attempt_token"`
	// Pending is true while a coordinator call for the current state is outstanding.
	Pending bool `json:"pending"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// pushState records the state being left so BACK can return to it.
func (fc *FlowContext) pushState(s State) {
	fc.History = append(fc.History, s)
}

// popState removes and returns the most recent previous state.
func (fc *FlowContext) popState() (State, bool) {
	if len(fc.History) == 0 {
		return "", false
	}
	s := fc.History[len(fc.History)-1]
	fc.History = fc.History[:len(fc.History)-1]
	return s, true
}

// discardBranchData drops state that only exists for the branch being abandoned.
// Contact info and the cart always survive a BACK.
func (fc *FlowContext) discardBranchData(leaving State) {
	switch leaving {
	case StateEnteringCode, StateSendingCode, StateVerifyingCode:
		if fc.Auth != nil {
			fc.Auth.Session = nil
		}
	case StateSelectingAccount:
		fc.Selection = nil
	case StateConfirmSavedCard:
		if fc.Payment != nil {
			fc.Payment.SelectedCardID = ""
		}
	}
	if !leaving.isBusy() {
		return
	}
	// leaving a busy state orphans its outstanding call; the completion for it
	// must no longer apply
	fc.Pending = false
}

// ContextStore persists flow contexts between events.
type ContextStore interface {
	Load(flowID string) (*FlowContext, error)
	Save(fc *FlowContext) error
	Delete(flowID string) error
}

const contextTTL = 30 * time.Minute

// RedisStore keeps flow contexts in redis with a sliding session TTL.
type RedisStore struct {
	rds redis.IRedis
}

func NewRedisStore(rds redis.IRedis) ContextStore {
	return &RedisStore{rds: rds}
}

func contextKey(flowID string) string {
	return fmt.Sprintf("flow:context:%s", flowID)
}

func (s *RedisStore) Load(flowID string) (*FlowContext, error) {
	raw, err := s.rds.Get(contextKey(flowID))
	if err != nil {
		if errors.Is(err, redis.NilType) {
			return nil, ErrFlowNotFound
		}
		return nil, fmt.Errorf("failed to load flow context: %w", err)
	}
	if raw == "" {
		return nil, ErrFlowNotFound
	}

	fc, err := helper.StringToStruct[FlowContext](raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt flow context: %w", err)
	}
	return fc, nil
}

func (s *RedisStore) Save(fc *FlowContext) error {
	fc.UpdatedAt = time.Now()
	return s.rds.Set(contextKey(fc.FlowID), fc, contextTTL)
}

func (s *RedisStore) Delete(flowID string) error {
	return s.rds.Del(contextKey(flowID))
}

// MemoryStore is an in-process ContextStore for tests and single-node setups.
type MemoryStore struct {
	mu    sync.RWMutex
	flows map[string]*FlowContext
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flows: map[string]*FlowContext{}}
}

func (s *MemoryStore) Load(flowID string) (*FlowContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fc, ok := s.flows[flowID]
	if !ok {
		return nil, ErrFlowNotFound
	}
	cp := *fc
	return &cp, nil
}

func (s *MemoryStore) Save(fc *FlowContext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fc.UpdatedAt = time.Now()
	cp := *fc
	s.flows[fc.FlowID] = &cp
	return nil
}

func (s *MemoryStore) Delete(flowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, flowID)
	return nil
}
