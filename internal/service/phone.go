package service

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhoneNumber returns the E.164 form of raw when it parses for the
// default region, so that differently formatted copies of one number collide.
// Unparseable input is returned trimmed but otherwise untouched.
func NormalizePhoneNumber(raw, defaultRegion string) string {
	raw = strings.TrimSpace(raw)
	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return raw
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}
