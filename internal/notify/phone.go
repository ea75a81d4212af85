package notify

import (
	"regexp"
	"strings"
)

var e164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// NormalizePhone drops formatting characters, keeping digits and plus signs.
// A plus sign anywhere but the front is kept so that ValidateE164 rejects it.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateE164 reports whether the phone is "+" followed by 2-15 digits with a non-zero first digit.
func ValidateE164(phone string) bool {
	return e164.MatchString(phone)
}
