package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

var reNonLetters = regexp.MustCompile(`[^\p{L}]+`)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func SanitizeName(name string) string {
	return TrimAndNormalize(name)
}

func SanitizeAddress(address string) string {
	return Pipeline{
		TrimAndNormalize,
		func(s string) string { return strings.Trim(s, " ,") },
	}.Apply(address)
}

func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeLabel turns "Premium Wash" or " premium-wash " into "premiumwash".
func SanitizeLabel(label string) string {
	return Pipeline{
		strings.TrimSpace,
		strings.ToLower,
		func(s string) string { return reNonLetters.ReplaceAllString(s, "") },
	}.Apply(label)
}
