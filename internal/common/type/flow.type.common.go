package types

import (
	"time"

	"go-checkout/internal/common/enum"
)

// ContactInfo is what the user typed into the contact form. Mutable while editing,
// frozen once submitted for matching.
type ContactInfo struct {
	FirstName        string `json:"first_name" validate:"required"`
	LastName         string `json:"last_name" validate:"required"`
	OrganizationName string `json:"organization_name"`
	Email            string `json:"email" validate:"required,email"`
	MobileNumber     string `json:"mobile_number" validate:"required,phone"`
}

// CandidateAccount mirrors a backend account record. Any field except the id may be
// absent; the backend tolerates partial records. Candidates are never mutated.
type CandidateAccount struct {
	AccountID        string `json:"account_id"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	OrganizationName string `json:"organization_name,omitempty"`
	Email            string `json:"email,omitempty"`
	MobileNumber     string `json:"mobile_number,omitempty"`
}

// MatchSelectionKind tags which variant of MatchSelection is active.
type MatchSelectionKind string

const (
	MatchExisting MatchSelectionKind = "existing_account"
	MatchNew      MatchSelectionKind = "new_account"
)

// MatchSelection is a tagged choice between an existing backend account and a new
// account built from the submitted contact info. Exactly one variant is populated:
// AccountID for MatchExisting, Snapshot for MatchNew.
type MatchSelection struct {
	Kind      MatchSelectionKind `json:"kind"`
	AccountID string             `json:"account_id,omitempty"`
	Snapshot  *ContactInfo       `json:"snapshot,omitempty"`
}

// OTPSession tracks one dispatched one-time code. Destroyed on verification
// success, channel switch, or flow restart.
type OTPSession struct {
	SessionID         string           `json:"session_id"`
	Channel           enum.ChannelEnum `json:"channel"`
	Destination       string           `json:"destination"`
	CodeLength        int              `json:"code_length"`
	AttemptsRemaining int              `json:"attempts_remaining"`
	SentAt            time.Time        `json:"sent_at"`
}

// SavedCard is display metadata for a stored payment instrument. Fetched read-only
// from the payment layer, never constructed client-side.
type SavedCard struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

// CardMetadata is the display descriptor a tokenization returns alongside the token.
type CardMetadata struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int    `json:"exp_month"`
	ExpYear  int    `json:"exp_year"`
}

// CartLine is one item selection in the cart. Quantity never drops below 1.
type CartLine struct {
	ItemID              string   `json:"item_id"`
	SelectedModifierIDs []string `json:"selected_modifier_ids"`
	Quantity            int      `json:"quantity"`
	UnitPrice           int64    `json:"unit_price"`
}

// FlowErrorKind classifies a failure stored in FlowContext.
type FlowErrorKind string

const (
	ErrValidation    FlowErrorKind = "ValidationError"
	ErrLookupFailed  FlowErrorKind = "LookupFailed"
	ErrAuthSend      FlowErrorKind = "AuthSendFailed"
	ErrAuthRejected  FlowErrorKind = "AuthRejected"
	ErrTokenization  FlowErrorKind = "TokenizationError"
	ErrDuplicateCard FlowErrorKind = "DuplicateCard"
	ErrPayment       FlowErrorKind = "PaymentError"
	ErrFatal         FlowErrorKind = "Fatal"
)

// FlowError is the typed error surfaced to the UI. Every coordinator failure is
// converted into one of these before it reaches FlowContext.
type FlowError struct {
	Kind    FlowErrorKind `json:"kind"`
	Message string        `json:"message"`
}
