package helper

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

func StringToStruct[I any](payload string) (result *I, err error) {
	err = json.Unmarshal([]byte(payload), &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func StringToUUID(payload string) (uuid.UUID, error) {
	return uuid.Parse(payload)
}

// NormalizePhone strips formatting characters and converts a local-format number to
// E.164. Numbers already carrying a country code are kept as typed; a leading 0 is
// replaced with the default country code.
func NormalizePhone(raw, defaultCountryCode string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	phone := b.String()

	switch {
	case strings.HasPrefix(phone, "+"):
		return phone
	case strings.HasPrefix(phone, "0"):
		return defaultCountryCode + phone[1:]
	case phone == "":
		return ""
	default:
		return "+" + phone
	}
}

// MaskDestination hides the middle of an OTP destination for display:
// "+15551234567" -> "+1*******567", "jo.doe@mail.com" -> "jo*****@mail.com".
func MaskDestination(dest string) string {
	if at := strings.Index(dest, "@"); at > 0 {
		keep := 2
		if at < keep {
			keep = at
		}
		return dest[:keep] + strings.Repeat("*", at-keep) + dest[at:]
	}
	if len(dest) <= 5 {
		return strings.Repeat("*", len(dest))
	}
	return dest[:2] + strings.Repeat("*", len(dest)-5) + dest[len(dest)-3:]
}
