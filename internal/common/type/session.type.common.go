package types

import (
	"go-checkout/internal/common/enum"
)

// VerifiedAccount is the identity carried by a session token after one-time-code
// verification succeeds.
type VerifiedAccount struct {
	ID      string           `json:"id" validate:"required,uuid"`
	Email   string           `json:"email" validate:"omitempty,email"`
	Channel enum.ChannelEnum `json:"channel" validate:"required"`
	FlowID  string           `json:"flow_id" validate:"required"`
}
