package locale

import (
	"testing"
)

func TestInferCountryFromPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		wantCode string
		wantNil  bool
	}{
		{
			name:     "India mobile",
			phone:    "+919876543210",
			wantCode: "IN",
		},
		{
			name:     "India mobile without plus",
			phone:    "919876543210",
			wantCode: "IN",
		},
		{
			name:     "US number",
			phone:    "+12125551234",
			wantCode: "US",
		},
		{
			name:    "unsupported country",
			phone:   "+442071234567",
			wantNil: true,
		},
		{
			name:    "empty",
			phone:   "",
			wantNil: true,
		},
		{
			name:    "garbage",
			phone:   "not-a-phone",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCountryFromPhone(tt.phone)
			if tt.wantNil {
				if got != nil {
					t.Errorf("InferCountryFromPhone(%q) = %v, want nil", tt.phone, got.Code)
				}
				return
			}
			if got == nil {
				t.Fatalf("InferCountryFromPhone(%q) = nil, want %s", tt.phone, tt.wantCode)
			}
			if got.Code != tt.wantCode {
				t.Errorf("InferCountryFromPhone(%q) = %s, want %s", tt.phone, got.Code, tt.wantCode)
			}
		})
	}
}

func TestInferTimezoneFromPhone(t *testing.T) {
	if got := InferTimezoneFromPhone("+919876543210", "UTC"); got != "Asia/Kolkata" {
		t.Errorf("India timezone = %s", got)
	}
	if got := InferTimezoneFromPhone("+12125551234", "UTC"); got != "America/New_York" {
		t.Errorf("US timezone = %s", got)
	}
	if got := InferTimezoneFromPhone("+442071234567", "Asia/Kolkata"); got != "Asia/Kolkata" {
		t.Errorf("fallback timezone = %s", got)
	}
}

func TestDetectRegion(t *testing.T) {
	tests := map[string]string{
		"Asia/Calcutta":       "IN",
		"america/los_angeles": "US",
		"Europe/London":       DefaultRegion,
	}
	for tz, want := range tests {
		if got := DetectRegion(tz); got != want {
			t.Errorf("DetectRegion(%q) = %s, want %s", tz, got, want)
		}
	}
}
