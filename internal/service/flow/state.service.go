package flow

// State identifies where a checkout flow currently is. Branching always switches on
// this enum; states are never compared as path strings.
type State string

const (
	StateEnteringContact   State = "enteringContactInfo"
	StateResolvingMatches  State = "resolvingMatches"
	StateSelectingAccount  State = "selectingAccount"
	StateAuthChoice        State = "authenticationChoice"
	StateSendingCode       State = "sendingCode"
	StateEnteringCode      State = "enteringCode"
	StateVerifyingCode     State = "verifyingCode"
	StateFetchingCards     State = "fetchingCardDetails"
	StateConfirmSavedCard  State = "confirmSavedCard"
	StateEnterNewCard      State = "enterNewCard"
	StateProcessingPayment State = "processingSavedCardPayment"
	StateSavingNewCard     State = "savingNewCard"
	StateSuccess           State = "success"
)

// Event is a named trigger dispatched into the flow, either by the UI or
// synthesized by a coordinator completion.
type Event string

const (
	EventSubmitContact Event = "SUBMIT_CONTACT"
	EventSelectAccount Event = "SELECT_ACCOUNT"
	EventConfirmLogin  Event = "CONFIRM_LOGIN_ACCOUNT"
	EventChooseSMS     Event = "CHOOSE_SMS"
	EventChooseEmail   Event = "CHOOSE_EMAIL"
	EventSubmitCode    Event = "SUBMIT_CODE"
	EventPaySavedCard  Event = "PAY_WITH_SAVED_CARD"
	EventUseNewCard    Event = "USE_NEW_CARD"
	EventSubmitNonce   Event = "SUBMIT_NONCE"
	EventUpdateCart    Event = "UPDATE_CART"
	EventBack          Event = "BACK"
	EventRestart       Event = "RESTART"
)

// completion events synthesized by coordinator calls, never accepted from the UI
const (
	eventMatchesResolved Event = "MATCHES_RESOLVED"
	eventMatchFailed     Event = "MATCH_FAILED"
	eventCodeSent        Event = "CODE_SENT"
	eventSendFailed      Event = "SEND_FAILED"
	eventCodeVerified    Event = "CODE_VERIFIED"
	eventCodeRejected    Event = "CODE_REJECTED"
	eventCardsFetched    Event = "CARDS_FETCHED"
	eventFetchFailed     Event = "FETCH_FAILED"
	eventPaymentDone     Event = "PAYMENT_SUCCEEDED"
	eventPaymentFailed   Event = "PAYMENT_FAILED"
)

// IsTerminal reports whether no further events are accepted.
func (s State) IsTerminal() bool {
	return s == StateSuccess
}

// isBusy reports whether the state owns an outstanding coordinator call while
// entered. Trigger events are no-ops while their busy state is pending.
func (s State) isBusy() bool {
	switch s {
	case StateResolvingMatches, StateSendingCode, StateVerifyingCode,
		StateFetchingCards, StateProcessingPayment, StateSavingNewCard:
		return true
	}
	return false
}

// inAuthBranch reports whether the AuthBranch record belongs to s. The record is
// created when a delivery channel is chosen and must not outlive these states.
func (s State) inAuthBranch() bool {
	switch s {
	case StateSendingCode, StateEnteringCode, StateVerifyingCode:
		return true
	}
	return false
}

// inPaymentBranch reports whether the PaymentBranch record belongs to s. Terminal
// success keeps it because it carries the order id.
func (s State) inPaymentBranch() bool {
	switch s {
	case StateFetchingCards, StateConfirmSavedCard, StateEnterNewCard,
		StateProcessingPayment, StateSavingNewCard, StateSuccess:
		return true
	}
	return false
}

// nextState is the single legality table for UI-dispatched events. It returns the
// target state, or ok=false when the event is not legal in the current state.
// BACK, RESTART and UPDATE_CART are handled by the dispatcher, not here.
func nextState(current State, event Event) (State, bool) {
	switch current {
	case StateEnteringContact:
		if event == EventSubmitContact {
			return StateResolvingMatches, true
		}
	case StateSelectingAccount:
		switch event {
		case EventSelectAccount:
			return StateSelectingAccount, true
		case EventConfirmLogin:
			return StateAuthChoice, true
		}
	case StateAuthChoice:
		switch event {
		case EventChooseSMS, EventChooseEmail:
			return StateSendingCode, true
		}
	case StateEnteringCode:
		if event == EventSubmitCode {
			return StateVerifyingCode, true
		}
	case StateConfirmSavedCard:
		switch event {
		case EventPaySavedCard:
			return StateProcessingPayment, true
		case EventUseNewCard:
			return StateEnterNewCard, true
		}
	case StateEnterNewCard:
		if event == EventSubmitNonce {
			return StateSavingNewCard, true
		}
	}
	return current, false
}

// triggerFor maps a busy state back to the UI event that enters it, used to treat a
// duplicate trigger as a no-op while the first call is outstanding.
func triggerFor(busy State) []Event {
	switch busy {
	case StateResolvingMatches:
		return []Event{EventSubmitContact}
	case StateSendingCode:
		return []Event{EventChooseSMS, EventChooseEmail}
	case StateVerifyingCode:
		return []Event{EventSubmitCode}
	case StateProcessingPayment:
		return []Event{EventPaySavedCard}
	case StateSavingNewCard:
		return []Event{EventSubmitNonce}
	}
	return nil
}
