package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapses inner whitespace", "  Ravi   \t Kumar ", "Ravi Kumar"},
		{"newlines", "12 MG Road\n\nBengaluru", "12 MG Road Bengaluru"},
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"unicode kept", "  रवि  कुमार ", "रवि कुमार"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeAddress(t *testing.T) {
	if got := SanitizeAddress(" , 12 MG Road,  Bengaluru , "); got != "12 MG Road, Bengaluru" {
		t.Errorf("SanitizeAddress() = %q", got)
	}
}

func TestSanitizeEmail(t *testing.T) {
	if got := SanitizeEmail("  Ravi.Kumar@Example.COM "); got != "ravi.kumar@example.com" {
		t.Errorf("SanitizeEmail() = %q", got)
	}
}

func TestSanitizeLabel(t *testing.T) {
	for _, in := range []string{"Premium Wash", " premium-wash ", "PREMIUM_WASH"} {
		if got := SanitizeLabel(in); got != "premiumwash" {
			t.Errorf("SanitizeLabel(%q) = %q", in, got)
		}
	}
}
