package sanitizer

import (
	"strings"

	"carwash/pkg/locale"

	"github.com/nyaruka/phonenumbers"
)

// SanitizePhone returns the E.164 form, or "" when no supported region yields a valid number.
func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range locale.SupportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			continue
		}
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return ""
}
