package notify

import "testing"

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		expect string
	}{
		{input: "+1 (234) 567-8900", expect: "+12345678900"},
		{input: "1 234 567 8900", expect: "12345678900"},
		{input: "  +44 20 7946 0958 ", expect: "+442079460958"},
		{input: "12+34", expect: "12+34"},
		{input: "++1 234", expect: "++1234"},
		{input: "", expect: ""},
	}

	for _, tt := range tests {
		if got := NormalizePhone(tt.input); got != tt.expect {
			t.Fatalf("NormalizePhone(%q): expected %q, got %q", tt.input, tt.expect, got)
		}
	}
}

func TestValidateE164(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		valid bool
	}{
		{input: "+12345678900", valid: true},
		{input: "+12", valid: true},
		{input: "+123456789012345", valid: true},
		{input: "+1234567890123456", valid: false},
		{input: "+1", valid: false},
		{input: "+0123456", valid: false},
		{input: "12345678900", valid: false},
		{input: "", valid: false},
		{input: NormalizePhone("++1 234"), valid: false},
		{input: NormalizePhone("+1 555+1234"), valid: false},
	}

	for _, tt := range tests {
		if got := ValidateE164(tt.input); got != tt.valid {
			t.Fatalf("ValidateE164(%q): expected %v, got %v", tt.input, tt.valid, got)
		}
	}
}
