package enum

/*----------- ChannelEnum -----------*/

// ChannelEnum is the out-of-band delivery channel for one-time codes
type ChannelEnum string

const (
	SMS   ChannelEnum = "sms"
	EMAIL ChannelEnum = "email"
)

func (e ChannelEnum) ToString() string {
	switch e {
	case SMS:
		return "sms"
	case EMAIL:
		return "email"
	}
	return ""
}

func (e ChannelEnum) IsValid() bool {
	switch e {
	case SMS, EMAIL:
		return true
	}
	return false
}

/*----------- VerticalEnum -----------*/

// VerticalEnum identifies which product vertical a checkout flow belongs to.
// Each vertical runs the same state machine over a subset of states.
type VerticalEnum string

const (
	SUBSCRIPTION VerticalEnum = "subscription"
	CATERING     VerticalEnum = "catering"
	EVENT        VerticalEnum = "event"
)

func (e VerticalEnum) ToString() string {
	switch e {
	case SUBSCRIPTION:
		return "subscription"
	case CATERING:
		return "catering"
	case EVENT:
		return "event"
	}
	return ""
}

func (e VerticalEnum) IsValid() bool {
	switch e {
	case SUBSCRIPTION, CATERING, EVENT:
		return true
	}
	return false
}

/*----------- RoleEnum -----------*/

// RoleEnum is the session role; hosts/organizers must provide an organization name.
type RoleEnum string

const (
	GUEST RoleEnum = "guest"
	HOST  RoleEnum = "host"
)

func (e RoleEnum) IsValid() bool {
	switch e {
	case GUEST, HOST:
		return true
	}
	return false
}
