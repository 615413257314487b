package flow

import (
	"errors"

	"go-checkout/internal/common/models"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/logger"
	authSvc "go-checkout/internal/service/auth"
	paymentSvc "go-checkout/internal/service/payment"

	"github.com/samber/lo"
)

// effectFor returns the coordinator call a state runs on entry, or nil for states
// that are pure UI. Side effects are entry-triggered only: re-entering the same
// state re-runs the call rather than reusing a stale result.
func (s *Service) effectFor(fc *FlowContext, payload *EventPayload) func(flowID string, token uint64) {
	switch fc.State {
	case StateResolvingMatches:
		contact := fc.Contact
		return func(flowID string, token uint64) {
			candidates, err := bounded(s.callTimeout, func() ([]types.CandidateAccount, error) {
				return s.matcher.Resolve(&contact)
			})
			if err != nil {
				s.complete(flowID, token, eventMatchFailed, &completionData{
					Err: &types.FlowError{Kind: types.ErrLookupFailed, Message: "account lookup failed, please retry"},
				})
				return
			}
			s.complete(flowID, token, eventMatchesResolved, &completionData{Candidates: candidates})
		}

	case StateSendingCode:
		channel := fc.Auth.Channel
		destination := fc.Auth.Destination
		return func(flowID string, token uint64) {
			session, err := bounded(s.callTimeout, func() (*types.OTPSession, error) {
				return s.auth.SendCode(channel, destination, flowID)
			})
			if err != nil {
				s.complete(flowID, token, eventSendFailed, &completionData{
					Err: &types.FlowError{Kind: types.ErrAuthSend, Message: "could not send the code, try another method"},
				})
				return
			}
			s.complete(flowID, token, eventCodeSent, &completionData{Session: session})
		}

	case StateVerifyingCode:
		sessionID := fc.Auth.Session.SessionID
		code := payload.Code
		return func(flowID string, token uint64) {
			_, err := bounded(s.callTimeout, func() (struct{}, error) {
				return struct{}{}, s.auth.VerifyCode(sessionID, code)
			})
			if err != nil {
				s.complete(flowID, token, eventCodeRejected, &completionData{
					Err: &types.FlowError{Kind: types.ErrAuthRejected, Message: rejectionMessage(err)},
				})
				return
			}
			s.complete(flowID, token, eventCodeVerified, nil)
		}

	case StateFetchingCards:
		accountID := fc.AccountID
		return func(flowID string, token uint64) {
			cards, err := bounded(s.callTimeout, func() ([]types.SavedCard, error) {
				return s.payment.ListSavedCards(accountID)
			})
			if err != nil {
				s.complete(flowID, token, eventFetchFailed, &completionData{
					Err: &types.FlowError{Kind: types.ErrPayment, Message: "could not load saved cards"},
				})
				return
			}
			s.complete(flowID, token, eventCardsFetched, &completionData{Cards: cards})
		}

	case StateProcessingPayment:
		req := s.chargeRequest(fc)
		return func(flowID string, token uint64) {
			result, err := bounded(s.callTimeout, func() (*paymentSvc.ChargeResult, error) {
				return s.payment.Charge(req)
			})
			if err != nil {
				s.complete(flowID, token, eventPaymentFailed, &completionData{
					Err: &types.FlowError{Kind: types.ErrPayment, Message: "payment failed, your selection was kept"},
				})
				return
			}
			s.complete(flowID, token, eventPaymentDone, &completionData{Charge: result})
		}

	case StateSavingNewCard:
		accountID := fc.AccountID
		nonce := payload.Nonce
		meta := *payload.Card
		req := s.chargeRequest(fc)
		return func(flowID string, token uint64) {
			saved, err := bounded(s.callTimeout, func() (*types.SavedCard, error) {
				return s.payment.RegisterCard(accountID, nonce, meta)
			})
			if err != nil {
				s.complete(flowID, token, eventPaymentFailed, &completionData{Err: cardSaveError(err)})
				return
			}

			req.CardID = saved.ID
			result, err := bounded(s.callTimeout, func() (*paymentSvc.ChargeResult, error) {
				return s.payment.Charge(req)
			})
			if err != nil {
				s.complete(flowID, token, eventPaymentFailed, &completionData{
					SavedCard: saved,
					Err:       &types.FlowError{Kind: types.ErrPayment, Message: "payment failed, your selection was kept"},
				})
				return
			}
			s.complete(flowID, token, eventPaymentDone, &completionData{SavedCard: saved, Charge: result})
		}
	}

	return nil
}

func rejectionMessage(err error) string {
	if errors.Is(err, authSvc.ErrSessionExpired) {
		return "the code expired, request a new one"
	}
	return "that code is not correct"
}

func cardSaveError(err error) *types.FlowError {
	if errors.Is(err, paymentSvc.ErrDuplicateCard) {
		return &types.FlowError{Kind: types.ErrDuplicateCard, Message: "an identical card is already on file"}
	}
	return &types.FlowError{Kind: types.ErrTokenization, Message: "could not save the card"}
}

func (s *Service) chargeRequest(fc *FlowContext) *paymentSvc.ChargeRequest {
	return &paymentSvc.ChargeRequest{
		AccountID:      fc.AccountID,
		CardID:         fc.Payment.SelectedCardID,
		Vertical:       fc.Vertical.ToString(),
		PlanID:         fc.PlanID,
		Lines:          fc.Cart,
		GrossAmount:    grossAmount(fc.Cart),
		IdempotencyKey: fc.Payment.IdempotencyKey,
	}
}

// complete applies a coordinator result back into the flow. A result whose token no
// longer matches belongs to an abandoned call and is discarded: an explicitly
// recoverable no-op, not an error.
func (s *Service) complete(flowID string, token uint64, event Event, data *completionData) {
	if data == nil {
		data = &completionData{}
	}

	mu := s.lock(flowID)
	mu.Lock()

	fc, err := s.store.Load(flowID)
	if err != nil {
		mu.Unlock()
		logger.Warning.Printf("completion %s for vanished flow %s dropped", event, flowID)
		return
	}

	if !fc.Pending || token != fc.AttemptToken {
		mu.Unlock()
		logger.Warning.Printf("stale completion %s for flow %s discarded (token %d, current %d)",
			event, flowID, token, fc.AttemptToken)
		return
	}

	fc.Pending = false
	next := s.applyCompletion(fc, event, data)

	var effect func()
	if next != fc.State {
		effect = s.transition(fc, next, &EventPayload{})
	}

	if err := s.store.Save(fc); err != nil {
		mu.Unlock()
		logger.Error.Printf("failed to persist flow %s after %s: %v", flowID, event, err)
		return
	}
	mu.Unlock()

	if effect != nil {
		s.runner.Run(effect)
	}
}

// applyCompletion resolves the next state for a completion event and records its
// data. It never leaves the flow in an undefined state: every failure routes to a
// retry-capable screen with LastError set.
func (s *Service) applyCompletion(fc *FlowContext, event Event, data *completionData) State {
	fc.LastError = data.Err

	switch event {
	case eventMatchesResolved:
		if len(data.Candidates) == 0 {
			// zero candidates is a valid outcome: this is a new account
			snapshot := fc.Contact
			fc.Selection = &types.MatchSelection{Kind: types.MatchNew, Snapshot: &snapshot}
			return StateAuthChoice
		}
		fc.Candidates = s.matcher.FillCandidateGaps(data.Candidates, &fc.Contact)
		return StateSelectingAccount

	case eventMatchFailed:
		return StateEnteringContact

	case eventCodeSent:
		fc.Auth.Session = data.Session
		return StateEnteringCode

	case eventSendFailed:
		fc.Auth = nil
		return StateAuthChoice

	case eventCodeVerified:
		return s.onVerified(fc)

	case eventCodeRejected:
		if fc.Auth.Session != nil {
			fc.Auth.Session.AttemptsRemaining--
			if fc.Auth.Session.AttemptsRemaining <= 0 {
				fc.Auth = nil
				fc.LastError = &types.FlowError{
					Kind:    types.ErrAuthRejected,
					Message: "too many attempts, choose a delivery method to get a new code",
				}
				return StateAuthChoice
			}
		}
		return StateEnteringCode

	case eventCardsFetched:
		fc.Payment = &PaymentBranch{SavedCards: data.Cards}
		if len(data.Cards) > 0 {
			return StateConfirmSavedCard
		}
		return StateEnterNewCard

	case eventFetchFailed:
		// saved cards are unavailable but a new card can still pay
		fc.Payment = &PaymentBranch{}
		return StateEnterNewCard

	case eventPaymentDone:
		if data.SavedCard != nil {
			fc.Payment.SavedCards = append(fc.Payment.SavedCards, *data.SavedCard)
			fc.Payment.SelectedCardID = data.SavedCard.ID
		}
		fc.Payment.OrderID = data.Charge.OrderID
		fc.Payment.TransactionID = data.Charge.TransactionID
		fc.Payment.ReceiptKey = data.Charge.ReceiptKey
		return StateSuccess

	case eventPaymentFailed:
		if data.SavedCard != nil {
			fc.Payment.SavedCards = append(fc.Payment.SavedCards, *data.SavedCard)
		}
		if fc.State == StateProcessingPayment {
			return StateConfirmSavedCard
		}
		return StateEnterNewCard
	}

	logger.Error.Printf("unhandled completion %s in state %s for flow %s", event, fc.State, fc.FlowID)
	fc.LastError = &types.FlowError{Kind: types.ErrFatal, Message: "something went wrong"}
	return StateEnteringContact
}

// onVerified resolves the verified identity into a concrete account, creating the
// backend record when the flow selected NewAccount, then moves to card fetching.
func (s *Service) onVerified(fc *FlowContext) State {
	channel := fc.Auth.Channel
	fc.Auth = nil

	switch fc.Selection.Kind {
	case types.MatchExisting:
		fc.AccountID = fc.Selection.AccountID
	case types.MatchNew:
		snapshot := fc.Selection.Snapshot
		account := &models.Account{
			FirstName:        lo.ToPtr(snapshot.FirstName),
			LastName:         lo.ToPtr(snapshot.LastName),
			Email:            lo.ToPtr(snapshot.Email),
			MobileNumber:     lo.ToPtr(snapshot.MobileNumber),
			OrganizationName: emptyToNil(snapshot.OrganizationName),
		}
		if err := s.rp.Account.Create(s.ctx, account); err != nil {
			logger.Error.Printf("failed to create account for flow %s: %v", fc.FlowID, err)
			fc.LastError = &types.FlowError{Kind: types.ErrFatal, Message: "could not create your account"}
			return StateAuthChoice
		}
		fc.AccountID = account.ID
	}

	sessionToken, _ := s.auth.MintToken(types.VerifiedAccount{
		ID:      fc.AccountID,
		Email:   fc.Contact.Email,
		Channel: channel,
		FlowID:  fc.FlowID,
	})
	fc.SessionToken = sessionToken

	return StateFetchingCards
}

func emptyToNil(v string) *string {
	if v == "" {
		return nil
	}
	return lo.ToPtr(v)
}
