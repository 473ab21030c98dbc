package locale

import (
	"strings"
)

const (
	DefaultRegion   = "IN"
	DefaultTimezone = "Asia/Kolkata"
)

type Country struct {
	Code            string // ISO 3166-1 alpha-2
	Name            string
	CallingCode     int
	DefaultTimezone string // IANA zone used when rendering local times
}

var Countries = map[string]Country{
	"IN": {
		Code:            "IN",
		Name:            "India",
		CallingCode:     91,
		DefaultTimezone: "Asia/Kolkata",
	},
	"US": {
		Code:            "US",
		Name:            "United States",
		CallingCode:     1,
		DefaultTimezone: "America/New_York",
	},
}

// SupportedRegions is the parse order for numbers written without a country code.
var SupportedRegions = []string{"IN", "US"}

var timeZoneTags = map[string][]string{
	"IN": {"Asia/Kolkata", "Asia/Calcutta"},
	"US": {"America/New_York", "America/Chicago", "America/Denver", "America/Los_Angeles", "US/Eastern", "US/Pacific"},
}

func DetectRegion(tz string) string {
	for region, zones := range timeZoneTags {
		for _, z := range zones {
			if strings.EqualFold(tz, z) {
				return region
			}
		}
	}
	return DefaultRegion
}
