package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-checkout/internal/common/enum"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/repository"
	authSvc "go-checkout/internal/service/auth"
	matchSvc "go-checkout/internal/service/match"
	paymentSvc "go-checkout/internal/service/payment"
	pricingSvc "go-checkout/internal/service/pricing"
)

var (
	// ErrEventNotAllowed is returned when an event is not legal in the current state.
	ErrEventNotAllowed = errors.New("event not allowed in current state")
	// ErrFlowCompleted is returned when an event reaches a terminal flow.
	ErrFlowCompleted = errors.New("flow already completed")

	errCallTimeout = errors.New("coordinator call timed out")
)

// EffectRunner schedules coordinator effects fired on state entry. The default
// runner executes the effect before Dispatch returns, so callers observe the
// settled state.
type EffectRunner interface {
	Run(effect func())
}

type syncRunner struct{}

func (syncRunner) Run(effect func()) { effect() }

type Service struct {
	ctx     context.Context
	store   ContextStore
	rp      repository.IRepository
	matcher matchSvc.IService
	auth    authSvc.IService
	payment paymentSvc.IService
	pricing pricingSvc.IService

	runner      EffectRunner
	callTimeout time.Duration

	// one mutex per live flow keeps each flow single-threaded
	locks sync.Map
}

type IService interface {
	StartFlow(vertical enum.VerticalEnum, role enum.RoleEnum) (*FlowContext, error)
	Get(flowID string) (*FlowContext, error)
	Dispatch(flowID string, event Event, payload *EventPayload) (*FlowContext, error)
}

type Option func(*Service)

// WithEffectRunner replaces the synchronous effect runner.
func WithEffectRunner(r EffectRunner) Option {
	return func(s *Service) { s.runner = r }
}

// WithCallTimeout bounds every coordinator call. A call exceeding the bound is
// treated exactly like a coordinator-reported failure.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Service) { s.callTimeout = d }
}

func NewService(
	ctx context.Context,
	store ContextStore,
	rp repository.IRepository,
	matcher matchSvc.IService,
	auth authSvc.IService,
	payment paymentSvc.IService,
	pricing pricingSvc.IService,
	opts ...Option,
) IService {
	s := &Service{
		ctx:         ctx,
		store:       store,
		rp:          rp,
		matcher:     matcher,
		auth:        auth,
		payment:     payment,
		pricing:     pricing,
		runner:      syncRunner{},
		callTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EventPayload carries the data an event needs. Fields irrelevant to the event are
// ignored.
type EventPayload struct {
	Contact   *types.ContactInfo  `json:"contact,omitempty"`
	AccountID string              `json:"account_id,omitempty"`
	Code      string              `json:"code,omitempty"`
	CardID    string              `json:"card_id,omitempty"`
	Nonce     string              `json:"nonce,omitempty"`
	Card      *types.CardMetadata `json:"card,omitempty"`
	Cart      *CartUpdate         `json:"cart,omitempty"`
	PlanID    string              `json:"plan_id,omitempty"`
}

// CartUpdate sets the quantity and modifier selection for one item line.
type CartUpdate struct {
	ItemID      string   `json:"item_id"`
	Quantity    int      `json:"quantity"`
	ModifierIDs []string `json:"modifier_ids"`
}

// completionData is the result a coordinator call hands back to the machine.
type completionData struct {
	Err        *types.FlowError
	Candidates []types.CandidateAccount
	Session    *types.OTPSession
	Cards      []types.SavedCard
	Charge     *paymentSvc.ChargeResult
	SavedCard  *types.SavedCard
}

func (s *Service) lock(flowID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(flowID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// bounded runs call with a wall-clock bound so a hung coordinator never leaves the
// flow permanently pending.
func bounded[T any](timeout time.Duration, call func() (T, error)) (T, error) {
	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err := call()
		ch <- outcome{v: v, err: err}
	}()

	select {
	case o := <-ch:
		return o.v, o.err
	case <-time.After(timeout):
		var zero T
		return zero, errCallTimeout
	}
}
