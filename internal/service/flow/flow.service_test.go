package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-checkout/internal/common/enum"
	"go-checkout/internal/common/models"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/validation"
	"go-checkout/internal/repository"
	paymentSvc "go-checkout/internal/service/payment"
	pricingSvc "go-checkout/internal/service/pricing"
)

func init() {
	if err := validation.Setup(); err != nil {
		panic(err)
	}
}

// fakeMatcher implements match.IService.
type fakeMatcher struct {
	candidates []types.CandidateAccount
	err        error
	calls      int
}

func (f *fakeMatcher) Resolve(contact *types.ContactInfo) ([]types.CandidateAccount, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func (f *fakeMatcher) FillCandidateGaps(candidates []types.CandidateAccount, contact *types.ContactInfo) []types.CandidateAccount {
	filled := make([]types.CandidateAccount, len(candidates))
	for i, c := range candidates {
		if c.Email == "" {
			c.Email = contact.Email
		}
		if c.MobileNumber == "" {
			c.MobileNumber = contact.MobileNumber
		}
		filled[i] = c
	}
	return filled
}

// fakeAuth implements auth.IService.
type fakeAuth struct {
	sendErr     error
	sendCalls   int
	verifyErr   error
	verifyCalls int
	acceptCode  string
}

func (f *fakeAuth) SendCode(channel enum.ChannelEnum, destination, flowID string) (*types.OTPSession, error) {
	f.sendCalls++
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &types.OTPSession{
		SessionID:         "otp-session-1",
		Channel:           channel,
		Destination:       destination,
		CodeLength:        6,
		AttemptsRemaining: 3,
		SentAt:            time.Now(),
	}, nil
}

func (f *fakeAuth) VerifyCode(sessionID, code string) error {
	f.verifyCalls++
	if f.verifyErr != nil {
		return f.verifyErr
	}
	if f.acceptCode != "" && code != f.acceptCode {
		return errors.New("invalid one-time code")
	}
	return nil
}

func (f *fakeAuth) MintToken(account types.VerifiedAccount) (string, *time.Time) {
	exp := time.Now().Add(2 * time.Hour)
	return "token-" + account.ID, &exp
}

// fakePayment implements payment.IService.
type fakePayment struct {
	cards       []types.SavedCard
	listErr     error
	listCalls   int
	registerErr error
	chargeErr   error
	chargeCalls int
	lastCharge  *paymentSvc.ChargeRequest
}

func (f *fakePayment) ListSavedCards(accountID string) ([]types.SavedCard, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.cards, nil
}

func (f *fakePayment) RegisterCard(accountID, token string, meta types.CardMetadata) (*types.SavedCard, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &types.SavedCard{
		ID:       "card-new",
		Brand:    meta.Brand,
		Last4:    meta.Last4,
		ExpMonth: meta.ExpMonth,
		ExpYear:  meta.ExpYear,
	}, nil
}

func (f *fakePayment) ApplyNotification(n *paymentSvc.GatewayNotification) error { return nil }

func (f *fakePayment) Charge(req *paymentSvc.ChargeRequest) (*paymentSvc.ChargeResult, error) {
	f.chargeCalls++
	f.lastCharge = req
	if f.chargeErr != nil {
		return nil, f.chargeErr
	}
	return &paymentSvc.ChargeResult{
		OrderID:       "ord_test",
		TransactionID: "trx_test",
		Status:        "paid",
		GrossAmount:   req.GrossAmount,
	}, nil
}

// fakeAccountRepo covers the account creation done on verification.
type fakeAccountRepo struct {
	created int
}

func (f *fakeAccountRepo) Search(ctx context.Context, email, phone, firstName, lastName string) ([]models.Account, error) {
	return nil, nil
}

func (f *fakeAccountRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return nil, nil
}

func (f *fakeAccountRepo) Create(ctx context.Context, account *models.Account) error {
	f.created++
	account.ID = "acc-created"
	return nil
}

func (f *fakeAccountRepo) Update(ctx context.Context, id string, updates map[string]any) error {
	return nil
}

type fakeCatalogRepo struct {
	item *models.Item
	mods []models.Modifier
}

func (f *fakeCatalogRepo) FindItem(ctx context.Context, id string) (*models.Item, error) {
	if f.item == nil || f.item.ID != id {
		return nil, errors.New("record not found")
	}
	return f.item, nil
}

func (f *fakeCatalogRepo) ListModifiers(ctx context.Context, itemID string) ([]models.Modifier, error) {
	return f.mods, nil
}

// manualRunner queues effects instead of running them, letting tests interleave
// user events with still-outstanding coordinator calls.
type manualRunner struct {
	queued []func()
}

func (r *manualRunner) Run(effect func()) {
	r.queued = append(r.queued, effect)
}

func (r *manualRunner) drain() {
	for len(r.queued) > 0 {
		next := r.queued[0]
		r.queued = r.queued[1:]
		next()
	}
}

type harness struct {
	svc     IService
	matcher *fakeMatcher
	auth    *fakeAuth
	payment *fakePayment
	account *fakeAccountRepo
	store   *MemoryStore
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		matcher: &fakeMatcher{},
		auth:    &fakeAuth{},
		payment: &fakePayment{},
		account: &fakeAccountRepo{},
		store:   NewMemoryStore(),
	}
	rp := repository.IRepository{
		Account: h.account,
		Catalog: &fakeCatalogRepo{
			item: &models.Item{ID: "item-1", BasePrice: 1000, Tiers: []models.DiscountTier{
				{ItemID: "item-1", MinimumQuantity: 5, Percentage: 0.1},
			}},
		},
	}
	h.svc = NewService(context.Background(), h.store, rp, h.matcher, h.auth, h.payment, pricingSvc.NewService(), opts...)
	return h
}

func contactPayload() *EventPayload {
	return &EventPayload{Contact: &types.ContactInfo{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		MobileNumber: "+15551234567",
	}}
}

func (h *harness) start(t *testing.T) *FlowContext {
	t.Helper()
	fc, err := h.svc.StartFlow(enum.SUBSCRIPTION, enum.GUEST)
	if err != nil {
		t.Fatalf("StartFlow failed: %v", err)
	}
	return fc
}

func (h *harness) dispatch(t *testing.T, flowID string, event Event, payload *EventPayload) *FlowContext {
	t.Helper()
	fc, err := h.svc.Dispatch(flowID, event, payload)
	if err != nil {
		t.Fatalf("Dispatch(%s) failed: %v", event, err)
	}
	return fc
}

// advance a flow to authenticationChoice as a brand-new account
func (h *harness) toAuthChoice(t *testing.T, flowID string) *FlowContext {
	t.Helper()
	fc := h.dispatch(t, flowID, EventSubmitContact, contactPayload())
	if fc.State != StateAuthChoice {
		t.Fatalf("expected authenticationChoice, got %s", fc.State)
	}
	return fc
}

// advance a flow to the payment branch with one saved card on file
func (h *harness) toConfirmSavedCard(t *testing.T, flowID string) *FlowContext {
	t.Helper()
	h.payment.cards = []types.SavedCard{{ID: "card-1", Brand: "VISA", Last4: "4242", ExpMonth: 12, ExpYear: 2026}}
	h.dispatch(t, flowID, EventUpdateCart, &EventPayload{Cart: &CartUpdate{ItemID: "item-1", Quantity: 5}})
	h.toAuthChoice(t, flowID)
	h.dispatch(t, flowID, EventChooseSMS, nil)
	fc := h.dispatch(t, flowID, EventSubmitCode, &EventPayload{Code: "123456"})
	if fc.State != StateConfirmSavedCard {
		t.Fatalf("expected confirmSavedCard, got %s (err=%v)", fc.State, fc.LastError)
	}
	return fc
}

func TestStartFlow(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)

	if fc.State != StateEnteringContact {
		t.Errorf("initial state = %s, want enteringContactInfo", fc.State)
	}
	if fc.FlowID == "" {
		t.Error("flow id must be set")
	}
}

func TestSubmitContactValidation(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)

	got := h.dispatch(t, fc.FlowID, EventSubmitContact, &EventPayload{Contact: &types.ContactInfo{
		FirstName: "Ada", LastName: "Lovelace", Email: "not-an-email", MobileNumber: "+15551234567",
	}})

	if got.State != StateEnteringContact {
		t.Errorf("invalid contact moved state to %s", got.State)
	}
	if got.LastError == nil || got.LastError.Kind != types.ErrValidation {
		t.Errorf("LastError = %v, want ValidationError", got.LastError)
	}
	if h.matcher.calls != 0 {
		t.Error("matcher must not be called with invalid contact info")
	}
}

func TestHostRequiresOrganizationName(t *testing.T) {
	h := newHarness(t)
	fc, err := h.svc.StartFlow(enum.EVENT, enum.HOST)
	if err != nil {
		t.Fatalf("StartFlow failed: %v", err)
	}

	got := h.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())
	if got.LastError == nil || got.LastError.Kind != types.ErrValidation {
		t.Fatalf("host without organization should fail validation, got %v", got.LastError)
	}

	payload := contactPayload()
	payload.Contact.OrganizationName = "Analytical Engines Ltd"
	got = h.dispatch(t, fc.FlowID, EventSubmitContact, payload)
	if got.State == StateEnteringContact {
		t.Errorf("valid host contact did not advance, err=%v", got.LastError)
	}
}

// Scenario: zero candidates auto-selects NewAccount and skips selectingAccount.
func TestZeroCandidatesSkipsSelection(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)

	got := h.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())

	if got.State != StateAuthChoice {
		t.Fatalf("state = %s, want authenticationChoice", got.State)
	}
	if got.Selection == nil || got.Selection.Kind != types.MatchNew {
		t.Fatalf("Selection = %v, want NewAccount", got.Selection)
	}
	if got.Selection.Snapshot == nil || got.Selection.Snapshot.Email != "ada@example.com" {
		t.Error("NewAccount selection must snapshot the submitted contact info")
	}
}

func TestCandidatesGoToSelection(t *testing.T) {
	h := newHarness(t)
	h.matcher.candidates = []types.CandidateAccount{{AccountID: "acc-1", FirstName: "Ada"}}
	fc := h.start(t)

	got := h.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())

	if got.State != StateSelectingAccount {
		t.Fatalf("state = %s, want selectingAccount", got.State)
	}
	if got.Selection != nil {
		t.Error("no selection may exist before the user picks a candidate")
	}
	// gap-filling applied
	if got.Candidates[0].Email != "ada@example.com" {
		t.Errorf("candidate gaps not filled: %+v", got.Candidates[0])
	}
}

func TestLookupFailureStaysOnContactForm(t *testing.T) {
	h := newHarness(t)
	h.matcher.err = errors.New("backend down")
	fc := h.start(t)

	got := h.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())

	if got.State != StateEnteringContact {
		t.Fatalf("state = %s, want enteringContactInfo", got.State)
	}
	if got.LastError == nil || got.LastError.Kind != types.ErrLookupFailed {
		t.Errorf("LastError = %v, want LookupFailed", got.LastError)
	}
	// contact info survives the failure
	if got.Contact.Email != "ada@example.com" {
		t.Error("entered contact info was lost on a recoverable error")
	}
}

func TestSelectAndConfirmAccount(t *testing.T) {
	h := newHarness(t)
	h.matcher.candidates = []types.CandidateAccount{{AccountID: "acc-1"}, {AccountID: "acc-2"}}
	fc := h.start(t)

	h.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())
	got := h.dispatch(t, fc.FlowID, EventSelectAccount, &EventPayload{AccountID: "acc-2"})
	if got.Selection == nil || got.Selection.AccountID != "acc-2" {
		t.Fatalf("Selection = %+v, want acc-2", got.Selection)
	}

	got = h.dispatch(t, fc.FlowID, EventConfirmLogin, nil)
	if got.State != StateAuthChoice {
		t.Errorf("state = %s, want authenticationChoice", got.State)
	}
	if got.Selection.Kind != types.MatchExisting {
		t.Errorf("Selection kind = %s, want existing", got.Selection.Kind)
	}
}

func TestConfirmWithoutSelectionRejected(t *testing.T) {
	h := newHarness(t)
	h.matcher.candidates = []types.CandidateAccount{{AccountID: "acc-1"}}
	fc := h.start(t)

	h.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())
	got := h.dispatch(t, fc.FlowID, EventConfirmLogin, nil)

	if got.State != StateSelectingAccount {
		t.Errorf("state = %s, want selectingAccount", got.State)
	}
	if got.LastError == nil || got.LastError.Kind != types.ErrValidation {
		t.Errorf("LastError = %v, want ValidationError", got.LastError)
	}
}

// Scenario: sendCode fails over sms.
func TestSendFailureStaysOnChoice(t *testing.T) {
	h := newHarness(t)
	h.auth.sendErr = errors.New("network error")
	fc := h.start(t)
	h.toAuthChoice(t, fc.FlowID)

	got := h.dispatch(t, fc.FlowID, EventChooseSMS, nil)

	if got.State != StateAuthChoice {
		t.Fatalf("state = %s, want authenticationChoice", got.State)
	}
	if got.LastError == nil || got.LastError.Kind != types.ErrAuthSend {
		t.Errorf("LastError = %v, want AuthSendFailed", got.LastError)
	}
	if got.Auth != nil && got.Auth.Session != nil {
		t.Error("no OTPSession may exist after a failed send")
	}
}

func TestSendSuccessEntersCodeEntry(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)
	h.toAuthChoice(t, fc.FlowID)

	got := h.dispatch(t, fc.FlowID, EventChooseEmail, nil)

	if got.State != StateEnteringCode {
		t.Fatalf("state = %s, want enteringCode", got.State)
	}
	if got.Auth == nil || got.Auth.Session == nil {
		t.Fatal("OTPSession must exist after a successful send")
	}
	if got.Auth.Session.AttemptsRemaining != 3 {
		t.Errorf("AttemptsRemaining = %d, want 3", got.Auth.Session.AttemptsRemaining)
	}
	if got.Auth.Destination != "ada@example.com" {
		t.Errorf("email destination = %q", got.Auth.Destination)
	}
}

func TestShortCodeNeverReachesCoordinator(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)
	h.toAuthChoice(t, fc.FlowID)
	h.dispatch(t, fc.FlowID, EventChooseSMS, nil)

	got := h.dispatch(t, fc.FlowID, EventSubmitCode, &EventPayload{Code: "123"})

	if got.State != StateEnteringCode {
		t.Errorf("state = %s, want enteringCode", got.State)
	}
	if h.auth.verifyCalls != 0 {
		t.Error("incomplete code must not reach the coordinator")
	}
	if got.LastError == nil || got.LastError.Kind != types.ErrValidation {
		t.Errorf("LastError = %v, want ValidationError", got.LastError)
	}
}

func TestVerifiedCodeReachesCardFetch(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)
	h.toAuthChoice(t, fc.FlowID)
	h.dispatch(t, fc.FlowID, EventChooseSMS, nil)

	got := h.dispatch(t, fc.FlowID, EventSubmitCode, &EventPayload{Code: "123456"})

	// no saved cards on the fresh account
	if got.State != StateEnterNewCard {
		t.Fatalf("state = %s, want enterNewCard", got.State)
	}
	if got.AccountID != "acc-created" {
		t.Errorf("AccountID = %q, want acc-created", got.AccountID)
	}
	if h.account.created != 1 {
		t.Errorf("NewAccount selection must create one backend account, got %d", h.account.created)
	}
	if got.SessionToken == "" {
		t.Error("verified flow must carry a session token")
	}
	if got.Auth != nil {
		t.Error("OTPSession must be destroyed on verification success")
	}
	if h.payment.listCalls != 1 {
		t.Errorf("saved cards fetched %d times, want 1", h.payment.listCalls)
	}
}

func TestRejectedCodeDecrementsAttempts(t *testing.T) {
	h := newHarness(t)
	h.auth.acceptCode = "654321"
	fc := h.start(t)
	h.toAuthChoice(t, fc.FlowID)
	h.dispatch(t, fc.FlowID, EventChooseSMS, nil)

	got := h.dispatch(t, fc.FlowID, EventSubmitCode, &EventPayload{Code: "123456"})

	if got.State != StateEnteringCode {
		t.Fatalf("state = %s, want enteringCode", got.State)
	}
	if got.Auth.Session.AttemptsRemaining != 2 {
		t.Errorf("AttemptsRemaining = %d, want 2", got.Auth.Session.AttemptsRemaining)
	}
	if got.LastError == nil || got.LastError.Kind != types.ErrAuthRejected {
		t.Errorf("LastError = %v, want AuthRejected", got.LastError)
	}
}

func TestAttemptsExhaustionRoutesToChoice(t *testing.T) {
	h := newHarness(t)
	h.auth.acceptCode = "654321"
	fc := h.start(t)
	h.toAuthChoice(t, fc.FlowID)
	h.dispatch(t, fc.FlowID, EventChooseSMS, nil)

	var got *FlowContext
	for i := 0; i < 3; i++ {
		got = h.dispatch(t, fc.FlowID, EventSubmitCode, &EventPayload{Code: "123456"})
	}

	if got.State != StateAuthChoice {
		t.Fatalf("exhausted attempts left state %s, want authenticationChoice", got.State)
	}
	if got.Auth != nil {
		t.Error("OTPSession must be cleared when attempts run out")
	}
}

// A duplicate trigger while the matching call is outstanding must not issue a
// second coordinator call.
func TestDuplicateSubmitCodeIsNoOp(t *testing.T) {
	runner := &manualRunner{}
	h := newHarness(t, WithEffectRunner(runner))
	fc := h.start(t)
	h.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())
	runner.drain()
	h.dispatch(t, fc.FlowID, EventChooseSMS, nil)
	runner.drain()

	h.dispatch(t, fc.FlowID, EventSubmitCode, &EventPayload{Code: "123456"})
	// second submit while verification is still outstanding
	h.dispatch(t, fc.FlowID, EventSubmitCode, &EventPayload{Code: "123456"})
	runner.drain()

	if h.auth.verifyCalls != 1 {
		t.Errorf("verify called %d times, want 1", h.auth.verifyCalls)
	}

	got, err := h.svc.Get(fc.FlowID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.State != StateEnterNewCard {
		t.Errorf("state = %s, want enterNewCard", got.State)
	}
}

// Scenario: a stale completion from an abandoned attempt must be discarded.
func TestStaleCompletionDiscarded(t *testing.T) {
	runner := &manualRunner{}
	hManual := newHarness(t, WithEffectRunner(runner))
	hManual.matcher.candidates = []types.CandidateAccount{{AccountID: "acc-old"}}
	fc := hManual.start(t)

	// first submission: its effect stays queued, call outstanding
	hManual.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())
	staleEffect := runner.queued[0]
	runner.queued = nil

	// user backs out twice is modeled as BACK out of the busy state, then resubmit
	hManual.dispatch(t, fc.FlowID, EventBack, nil)
	hManual.matcher.candidates = []types.CandidateAccount{{AccountID: "acc-new"}}
	hManual.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())
	freshEffect := runner.queued[0]
	runner.queued = nil

	// the fresh result lands first, then the stale one arrives late
	freshEffect()
	staleEffect()

	got, err := hManual.svc.Get(fc.FlowID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.State != StateSelectingAccount {
		t.Fatalf("state = %s, want selectingAccount", got.State)
	}
	if len(got.Candidates) != 1 || got.Candidates[0].AccountID != "acc-new" {
		t.Errorf("stale completion overwrote candidates: %+v", got.Candidates)
	}
}

func TestPayWithSavedCard(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)
	h.toConfirmSavedCard(t, fc.FlowID)

	got := h.dispatch(t, fc.FlowID, EventPaySavedCard, &EventPayload{CardID: "card-1"})

	if got.State != StateSuccess {
		t.Fatalf("state = %s, want success (err=%v)", got.State, got.LastError)
	}
	if got.Payment.OrderID != "ord_test" {
		t.Errorf("OrderID = %q", got.Payment.OrderID)
	}
	// quantity 5 at 10% off base 1000
	if h.payment.lastCharge.GrossAmount != 4500 {
		t.Errorf("GrossAmount = %d, want 4500", h.payment.lastCharge.GrossAmount)
	}
	if h.payment.lastCharge.IdempotencyKey == "" {
		t.Error("charge must carry an idempotency key")
	}
}

func TestPaymentFailureKeepsSelection(t *testing.T) {
	h := newHarness(t)
	h.payment.chargeErr = errors.New("card_declined")
	fc := h.start(t)
	h.toConfirmSavedCard(t, fc.FlowID)

	got := h.dispatch(t, fc.FlowID, EventPaySavedCard, &EventPayload{CardID: "card-1"})

	if got.State != StateConfirmSavedCard {
		t.Fatalf("state = %s, want confirmSavedCard", got.State)
	}
	if got.LastError == nil || got.LastError.Kind != types.ErrPayment {
		t.Errorf("LastError = %v, want PaymentError", got.LastError)
	}
	if got.Payment.SelectedCardID != "card-1" {
		t.Error("card selection must survive a failed payment")
	}
	if len(got.Cart) != 1 {
		t.Error("cart must survive a failed payment")
	}

	// retrying the same attempt reuses the idempotency key
	key := got.Payment.IdempotencyKey
	h.payment.chargeErr = nil
	got = h.dispatch(t, fc.FlowID, EventPaySavedCard, &EventPayload{CardID: "card-1"})
	if got.State != StateSuccess {
		t.Fatalf("retry state = %s, want success", got.State)
	}
	if h.payment.lastCharge.IdempotencyKey != key {
		t.Errorf("retry used key %q, want %q", h.payment.lastCharge.IdempotencyKey, key)
	}
}

// A failed charge is retryable with the same idempotency key, but editing the cart
// in between is a new purchase intent and must mint a fresh key for the new total.
func TestCartEditAfterFailedChargeMintsNewKey(t *testing.T) {
	h := newHarness(t)
	h.payment.chargeErr = errors.New("card_declined")
	fc := h.start(t)
	h.toConfirmSavedCard(t, fc.FlowID)

	got := h.dispatch(t, fc.FlowID, EventPaySavedCard, &EventPayload{CardID: "card-1"})
	if got.State != StateConfirmSavedCard {
		t.Fatalf("state = %s, want confirmSavedCard", got.State)
	}
	firstKey := h.payment.lastCharge.IdempotencyKey
	firstAmount := h.payment.lastCharge.GrossAmount

	h.dispatch(t, fc.FlowID, EventUpdateCart, &EventPayload{Cart: &CartUpdate{ItemID: "item-1", Quantity: 2}})
	h.payment.chargeErr = nil
	got = h.dispatch(t, fc.FlowID, EventPaySavedCard, &EventPayload{CardID: "card-1"})

	if got.State != StateSuccess {
		t.Fatalf("retry state = %s, want success (err=%v)", got.State, got.LastError)
	}
	if h.payment.lastCharge.IdempotencyKey == firstKey {
		t.Error("cart changed between attempts but the idempotency key was reused")
	}
	// quantity 2 is below the tier boundary: 2 * base 1000
	if h.payment.lastCharge.GrossAmount != 2000 {
		t.Errorf("GrossAmount = %d, want 2000 (first attempt was %d)", h.payment.lastCharge.GrossAmount, firstAmount)
	}
}

// Scenario: an identical tokenized card is rejected locally.
func TestDuplicateCardShortCircuit(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)
	h.toConfirmSavedCard(t, fc.FlowID)
	h.dispatch(t, fc.FlowID, EventUseNewCard, nil)

	got := h.dispatch(t, fc.FlowID, EventSubmitNonce, &EventPayload{
		Nonce: "tok_new",
		Card:  &types.CardMetadata{Brand: "VISA", Last4: "4242", ExpMonth: 12, ExpYear: 2026},
	})

	if got.State != StateEnterNewCard {
		t.Fatalf("state = %s, want enterNewCard", got.State)
	}
	if got.LastError == nil || got.LastError.Kind != types.ErrDuplicateCard {
		t.Errorf("LastError = %v, want DuplicateCard", got.LastError)
	}
	if h.payment.chargeCalls != 0 {
		t.Error("duplicate card must not reach the backend")
	}
}

func TestNewCardSaveAndCharge(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)
	h.toConfirmSavedCard(t, fc.FlowID)
	h.dispatch(t, fc.FlowID, EventUseNewCard, nil)

	got := h.dispatch(t, fc.FlowID, EventSubmitNonce, &EventPayload{
		Nonce: "tok_new",
		Card:  &types.CardMetadata{Brand: "MASTERCARD", Last4: "5100", ExpMonth: 3, ExpYear: 2027},
	})

	if got.State != StateSuccess {
		t.Fatalf("state = %s, want success (err=%v)", got.State, got.LastError)
	}
	if got.Payment.SelectedCardID != "card-new" {
		t.Errorf("SelectedCardID = %q, want card-new", got.Payment.SelectedCardID)
	}
	if h.payment.lastCharge.CardID != "card-new" {
		t.Errorf("charge used card %q, want the freshly saved one", h.payment.lastCharge.CardID)
	}
}

func TestBackClearsBranchData(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)
	h.toAuthChoice(t, fc.FlowID)
	h.dispatch(t, fc.FlowID, EventChooseSMS, nil)

	got := h.dispatch(t, fc.FlowID, EventBack, nil)

	if got.State != StateAuthChoice {
		t.Fatalf("state = %s, want authenticationChoice", got.State)
	}
	if got.Auth != nil && got.Auth.Session != nil {
		t.Error("leaving enteringCode must clear the OTPSession")
	}
	// contact info is preserved across BACK
	if got.Contact.Email != "ada@example.com" {
		t.Error("contact info must survive BACK")
	}
}

// BACK out of the card states exits the payment branch entirely. The code screen
// behind it was already consumed, so the flow lands on the channel choice where a
// fresh code can be requested.
func TestBackFromCardConfirmLeavesPaymentBranch(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)
	h.toConfirmSavedCard(t, fc.FlowID)

	got := h.dispatch(t, fc.FlowID, EventBack, nil)

	if got.State != StateAuthChoice {
		t.Fatalf("state = %s, want authenticationChoice", got.State)
	}
	if got.Payment != nil {
		t.Error("payment branch must not survive BACK out of the card states")
	}
	if got.Auth != nil {
		t.Error("auth branch must not exist at authenticationChoice")
	}
	if len(got.Cart) != 1 || got.Contact.Email != "ada@example.com" {
		t.Error("cart and contact info must survive BACK")
	}
}

func TestBackFromSelectionClearsSelection(t *testing.T) {
	h := newHarness(t)
	h.matcher.candidates = []types.CandidateAccount{{AccountID: "acc-1"}}
	fc := h.start(t)
	h.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())
	h.dispatch(t, fc.FlowID, EventSelectAccount, &EventPayload{AccountID: "acc-1"})

	got := h.dispatch(t, fc.FlowID, EventBack, nil)

	if got.State != StateEnteringContact {
		t.Fatalf("state = %s, want enteringContactInfo", got.State)
	}
	if got.Selection != nil {
		t.Error("leaving selectingAccount must clear MatchSelection")
	}
}

// Re-entering resolvingMatches must re-run the matcher, never reuse a stale result.
func TestResubmitRerunsMatcher(t *testing.T) {
	h := newHarness(t)
	h.matcher.candidates = []types.CandidateAccount{{AccountID: "acc-1"}}
	fc := h.start(t)

	h.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())
	h.dispatch(t, fc.FlowID, EventBack, nil)
	h.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())

	if h.matcher.calls != 2 {
		t.Errorf("matcher called %d times, want 2", h.matcher.calls)
	}
}

func TestRestartResetsEverything(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)
	h.dispatch(t, fc.FlowID, EventUpdateCart, &EventPayload{Cart: &CartUpdate{ItemID: "item-1", Quantity: 5}})
	h.toAuthChoice(t, fc.FlowID)

	got := h.dispatch(t, fc.FlowID, EventRestart, nil)

	if got.State != StateEnteringContact {
		t.Errorf("state = %s, want enteringContactInfo", got.State)
	}
	if got.Selection != nil || got.Auth != nil || len(got.Cart) != 0 {
		t.Error("restart must reset selection, auth branch and cart")
	}
	if got.Contact.Email != "" {
		t.Error("restart must clear contact info")
	}
}

func TestCoordinatorTimeoutIsFailure(t *testing.T) {
	h := newHarness(t, WithCallTimeout(10*time.Millisecond))
	h.svc.(*Service).matcher = &slowMatcher{delay: 100 * time.Millisecond}

	fc := h.start(t)
	got := h.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())

	if got.State != StateEnteringContact {
		t.Fatalf("state = %s, want enteringContactInfo", got.State)
	}
	if got.LastError == nil || got.LastError.Kind != types.ErrLookupFailed {
		t.Errorf("LastError = %v, want LookupFailed", got.LastError)
	}
}

type slowMatcher struct {
	delay time.Duration
}

func (m *slowMatcher) Resolve(contact *types.ContactInfo) ([]types.CandidateAccount, error) {
	time.Sleep(m.delay)
	return nil, nil
}

func (m *slowMatcher) FillCandidateGaps(candidates []types.CandidateAccount, contact *types.ContactInfo) []types.CandidateAccount {
	return candidates
}

func TestCartQuantityNeverBelowOne(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)

	got := h.dispatch(t, fc.FlowID, EventUpdateCart, &EventPayload{Cart: &CartUpdate{ItemID: "item-1", Quantity: 0}})

	if got.Cart[0].Quantity != 1 {
		t.Errorf("quantity = %d, want clamp to 1", got.Cart[0].Quantity)
	}
}

func TestCartRepricesAcrossTierBoundary(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)

	got := h.dispatch(t, fc.FlowID, EventUpdateCart, &EventPayload{Cart: &CartUpdate{ItemID: "item-1", Quantity: 4}})
	if got.Cart[0].UnitPrice != 1000 {
		t.Errorf("qty 4 unit price = %d, want 1000", got.Cart[0].UnitPrice)
	}

	got = h.dispatch(t, fc.FlowID, EventUpdateCart, &EventPayload{Cart: &CartUpdate{ItemID: "item-1", Quantity: 5}})
	if got.Cart[0].UnitPrice != 900 {
		t.Errorf("qty 5 unit price = %d, want 900", got.Cart[0].UnitPrice)
	}
	if len(got.Cart) != 1 {
		t.Errorf("updating a line duplicated it: %d lines", len(got.Cart))
	}
}

func TestEventsRejectedAfterSuccess(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)
	h.toConfirmSavedCard(t, fc.FlowID)
	h.dispatch(t, fc.FlowID, EventPaySavedCard, &EventPayload{CardID: "card-1"})

	if _, err := h.svc.Dispatch(fc.FlowID, EventSubmitContact, contactPayload()); !errors.Is(err, ErrFlowCompleted) {
		t.Errorf("got %v, want ErrFlowCompleted", err)
	}
}

func TestIllegalEventRejected(t *testing.T) {
	h := newHarness(t)
	fc := h.start(t)

	if _, err := h.svc.Dispatch(fc.FlowID, EventSubmitCode, &EventPayload{Code: "123456"}); !errors.Is(err, ErrEventNotAllowed) {
		t.Errorf("got %v, want ErrEventNotAllowed", err)
	}
}

// Invariant: past account resolution, exactly one MatchSelection variant is active.
func TestMatchSelectionInvariant(t *testing.T) {
	h := newHarness(t)
	h.matcher.candidates = []types.CandidateAccount{{AccountID: "acc-1"}}
	fc := h.start(t)

	h.dispatch(t, fc.FlowID, EventSubmitContact, contactPayload())
	h.dispatch(t, fc.FlowID, EventSelectAccount, &EventPayload{AccountID: "acc-1"})
	got := h.dispatch(t, fc.FlowID, EventConfirmLogin, nil)

	sel := got.Selection
	if sel == nil {
		t.Fatal("selection missing past selectingAccount")
	}
	if sel.Kind == types.MatchExisting && (sel.AccountID == "" || sel.Snapshot != nil) {
		t.Errorf("existing selection malformed: %+v", sel)
	}
	if sel.Kind == types.MatchNew && (sel.Snapshot == nil || sel.AccountID != "") {
		t.Errorf("new selection malformed: %+v", sel)
	}
}
