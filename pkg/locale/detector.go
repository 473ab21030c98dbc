package locale

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

func InferCountryFromPhone(phone string) *Country {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return nil
	}
	country, ok := Countries[phonenumbers.GetRegionCodeForNumber(num)]
	if !ok {
		return nil
	}
	return &country
}

// InferTimezoneFromPhone returns fallback for numbers outside the supported countries.
func InferTimezoneFromPhone(phone, fallback string) string {
	if country := InferCountryFromPhone(phone); country != nil {
		return country.DefaultTimezone
	}
	return fallback
}
