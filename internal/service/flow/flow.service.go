package flow

import (
	"fmt"
	"strings"
	"time"

	"go-checkout/internal/common/enum"
	"go-checkout/internal/common/models"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/validation"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/samber/lo"
)

func (s *Service) StartFlow(vertical enum.VerticalEnum, role enum.RoleEnum) (*FlowContext, error) {
	if !vertical.IsValid() {
		return nil, fmt.Errorf("unknown vertical: %s", vertical)
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("unknown role: %s", role)
	}

	flowID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate flow id: %w", err)
	}

	fc := &FlowContext{
		FlowID:    flowID,
		Vertical:  vertical,
		Role:      role,
		State:     StateEnteringContact,
		CreatedAt: time.Now(),
	}
	if err := s.store.Save(fc); err != nil {
		return nil, err
	}
	return fc, nil
}

func (s *Service) Get(flowID string) (*FlowContext, error) {
	return s.store.Load(flowID)
}

// Dispatch feeds one UI event into the flow. Events are processed one at a time per
// flow; the returned context reflects the settled state when the default
// synchronous effect runner is in use.
func (s *Service) Dispatch(flowID string, event Event, payload *EventPayload) (*FlowContext, error) {
	if payload == nil {
		payload = &EventPayload{}
	}

	mu := s.lock(flowID)
	mu.Lock()

	fc, err := s.store.Load(flowID)
	if err != nil {
		mu.Unlock()
		return nil, err
	}

	effect, err := s.applyEvent(fc, event, payload)
	if err != nil {
		mu.Unlock()
		return nil, err
	}
	if saveErr := s.store.Save(fc); saveErr != nil {
		mu.Unlock()
		return nil, saveErr
	}
	result := *fc
	mu.Unlock()

	// effects run outside the flow lock so their completions can re-enter
	if effect != nil {
		s.runner.Run(effect)
		return s.store.Load(flowID)
	}
	return &result, nil
}

// applyEvent mutates fc for one event and returns the effect to run after the
// context is persisted, if the new state owns one.
func (s *Service) applyEvent(fc *FlowContext, event Event, payload *EventPayload) (func(), error) {
	if fc.State.IsTerminal() && event != EventRestart {
		return nil, ErrFlowCompleted
	}

	switch event {
	case EventRestart:
		return nil, s.restart(fc)
	case EventBack:
		return nil, s.back(fc)
	case EventUpdateCart:
		return nil, s.updateCart(fc, payload.Cart)
	}

	// a second trigger while the matching busy call is outstanding is a no-op,
	// never a second call
	if fc.Pending && lo.Contains(triggerFor(fc.State), event) {
		return nil, nil
	}

	next, ok := nextState(fc.State, event)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrEventNotAllowed, event, fc.State)
	}

	if !s.prepare(fc, event, payload) {
		// local validation failed; LastError set, no transition
		return nil, nil
	}

	if next == fc.State {
		return nil, nil
	}

	return s.transition(fc, next, payload), nil
}

// prepare validates and applies event data before the transition. Returning false
// keeps the flow in its current state with LastError describing the problem.
func (s *Service) prepare(fc *FlowContext, event Event, payload *EventPayload) bool {
	fc.LastError = nil

	switch event {
	case EventSubmitContact:
		if payload.Contact == nil {
			return s.fail(fc, types.ErrValidation, "contact info is required")
		}
		if err := validation.Validate(payload.Contact); err != nil {
			return s.fail(fc, types.ErrValidation, err.Error())
		}
		if fc.Role == enum.HOST && strings.TrimSpace(payload.Contact.OrganizationName) == "" {
			return s.fail(fc, types.ErrValidation, "organization name is required for hosts")
		}
		fc.Contact = *payload.Contact
		fc.Candidates = nil
		fc.Selection = nil
		if payload.PlanID != "" {
			fc.PlanID = payload.PlanID
		}

	case EventSelectAccount:
		candidate, found := lo.Find(fc.Candidates, func(c types.CandidateAccount) bool {
			return c.AccountID == payload.AccountID
		})
		if !found {
			return s.fail(fc, types.ErrValidation, "selected account is not a candidate")
		}
		fc.Selection = &types.MatchSelection{
			Kind:      types.MatchExisting,
			AccountID: candidate.AccountID,
		}

	case EventConfirmLogin:
		if fc.Selection == nil {
			return s.fail(fc, types.ErrValidation, "no account selected")
		}

	case EventChooseSMS, EventChooseEmail:
		channel := enum.SMS
		if event == EventChooseEmail {
			channel = enum.EMAIL
		}
		fc.Auth = &AuthBranch{
			Channel:     channel,
			Destination: s.destinationFor(fc, channel),
		}

	case EventSubmitCode:
		if fc.Auth == nil || fc.Auth.Session == nil {
			return s.fail(fc, types.ErrValidation, "no active code session")
		}
		if err := validation.ValidateVar(payload.Code, "required,otp_code"); err != nil {
			// obviously-invalid input never reaches the coordinator
			return s.fail(fc, types.ErrValidation, "code must be exactly 6 digits")
		}

	case EventPaySavedCard:
		if fc.Payment == nil {
			return s.fail(fc, types.ErrValidation, "no payment branch active")
		}
		if _, found := lo.Find(fc.Payment.SavedCards, func(c types.SavedCard) bool {
			return c.ID == payload.CardID
		}); !found {
			return s.fail(fc, types.ErrValidation, "selected card is not on file")
		}
		if len(fc.Cart) == 0 {
			return s.fail(fc, types.ErrValidation, "cart is empty")
		}
		if fc.Payment.IdempotencyKey == "" || fc.Payment.SelectedCardID != payload.CardID {
			// a new attempt gets a fresh key; a retry of the same attempt reuses it
			fc.Payment.IdempotencyKey = uuid.NewString()
		}
		fc.Payment.SelectedCardID = payload.CardID

	case EventUseNewCard:
		if fc.Payment != nil {
			fc.Payment.SelectedCardID = ""
		}

	case EventSubmitNonce:
		if fc.Payment == nil {
			return s.fail(fc, types.ErrValidation, "no payment branch active")
		}
		if payload.Nonce == "" || payload.Card == nil {
			return s.fail(fc, types.ErrValidation, "card token and metadata are required")
		}
		if len(fc.Cart) == 0 {
			return s.fail(fc, types.ErrValidation, "cart is empty")
		}
		// local short-circuit against the cards already fetched; the payment
		// service re-checks against the live list on save
		if isDuplicateCard(fc.Payment.SavedCards, payload.Card) {
			return s.fail(fc, types.ErrDuplicateCard, "an identical card is already on file")
		}
		if fc.Payment.IdempotencyKey == "" {
			fc.Payment.IdempotencyKey = uuid.NewString()
		}
	}

	return true
}

func (s *Service) fail(fc *FlowContext, kind types.FlowErrorKind, message string) bool {
	fc.LastError = &types.FlowError{Kind: kind, Message: message}
	return false
}

// transition moves fc to next and returns the entry effect for next, if any.
// History only records states the user can return to, so busy states are skipped.
func (s *Service) transition(fc *FlowContext, next State, payload *EventPayload) func() {
	// returning to a state already on the path unwinds history to it instead of
	// stacking a loop
	if idx := lo.LastIndexOf(fc.History, next); idx >= 0 {
		fc.History = fc.History[:idx]
	} else if !fc.State.isBusy() && next != fc.State {
		fc.pushState(fc.State)
	}
	fc.State = next

	effect := s.effectFor(fc, payload)
	if effect == nil {
		return nil
	}
	fc.AttemptToken++
	fc.Pending = true
	flowID := fc.FlowID
	token := fc.AttemptToken
	return func() { effect(flowID, token) }
}

func (s *Service) restart(fc *FlowContext) error {
	*fc = FlowContext{
		FlowID:    fc.FlowID,
		Vertical:  fc.Vertical,
		Role:      fc.Role,
		State:     StateEnteringContact,
		CreatedAt: fc.CreatedAt,
		// keep counting so completions from before the restart are stale
		AttemptToken: fc.AttemptToken + 1,
	}
	return nil
}

func (s *Service) back(fc *FlowContext) error {
	prev, ok := fc.popState()
	if !ok {
		return nil
	}
	fc.discardBranchData(fc.State)
	// a code screen whose session was already consumed cannot be returned to;
	// fall through to the channel choice so a fresh code can be requested
	if prev == StateEnteringCode && (fc.Auth == nil || fc.Auth.Session == nil) {
		if p, popped := fc.popState(); popped {
			prev = p
		}
	}
	// branch records never outlive their branch
	if !prev.inAuthBranch() {
		fc.Auth = nil
	}
	if !prev.inPaymentBranch() {
		fc.Payment = nil
	}
	fc.LastError = nil
	fc.State = prev
	return nil
}

// updateCart reprices one cart line synchronously. Pricing is the only side-effect-
// free coordinator, so it runs inline rather than through a busy state.
func (s *Service) updateCart(fc *FlowContext, update *CartUpdate) error {
	if update == nil {
		return fmt.Errorf("%w: cart update requires a payload", ErrEventNotAllowed)
	}
	if fc.Pending {
		return fmt.Errorf("%w: cart is locked while a call is outstanding", ErrEventNotAllowed)
	}

	quantity := update.Quantity
	if quantity < 1 {
		quantity = 1
	}

	item, err := s.rp.Catalog.FindItem(s.ctx, update.ItemID)
	if err != nil {
		s.fail(fc, types.ErrValidation, "unknown item")
		return nil
	}

	modifiers, err := s.rp.Catalog.ListModifiers(s.ctx, update.ItemID)
	if err != nil {
		s.fail(fc, types.ErrFatal, "failed to load item modifiers")
		return nil
	}
	selected := lo.Filter(modifiers, func(m models.Modifier, _ int) bool {
		return lo.Contains(update.ModifierIDs, m.ID)
	})

	discountsVisible := fc.SessionToken != "" || !item.MemberOnlyDiscount
	unit := s.pricing.UnitPrice(item, quantity, discountsVisible)
	unit += lo.SumBy(selected, func(m models.Modifier) int64 { return m.PriceDelta })

	line := types.CartLine{
		ItemID:              item.ID,
		SelectedModifierIDs: update.ModifierIDs,
		Quantity:            quantity,
		UnitPrice:           unit,
	}

	replaced := false
	for i := range fc.Cart {
		if fc.Cart[i].ItemID == item.ID {
			fc.Cart[i] = line
			replaced = true
			break
		}
	}
	if !replaced {
		fc.Cart = append(fc.Cart, line)
	}
	// the idempotency key binds one attempt to one amount; a changed cart is a new
	// purchase intent, so any key minted for the old cart must not be reused
	if fc.Payment != nil {
		fc.Payment.IdempotencyKey = ""
	}
	fc.LastError = nil
	return nil
}

func (s *Service) destinationFor(fc *FlowContext, channel enum.ChannelEnum) string {
	contact := fc.Contact
	if fc.Selection != nil && fc.Selection.Kind == types.MatchExisting {
		if candidate, found := lo.Find(fc.Candidates, func(c types.CandidateAccount) bool {
			return c.AccountID == fc.Selection.AccountID
		}); found {
			if channel == enum.SMS && candidate.MobileNumber != "" {
				return candidate.MobileNumber
			}
			if channel == enum.EMAIL && candidate.Email != "" {
				return candidate.Email
			}
		}
	}
	if channel == enum.SMS {
		return contact.MobileNumber
	}
	return contact.Email
}

func isDuplicateCard(saved []types.SavedCard, meta *types.CardMetadata) bool {
	return lo.ContainsBy(saved, func(c types.SavedCard) bool {
		return strings.EqualFold(c.Brand, meta.Brand) &&
			c.Last4 == meta.Last4 &&
			c.ExpMonth == meta.ExpMonth &&
			c.ExpYear == meta.ExpYear
	})
}

func grossAmount(cart []types.CartLine) int64 {
	return lo.SumBy(cart, func(l types.CartLine) int64 {
		return l.UnitPrice * int64(l.Quantity)
	})
}
