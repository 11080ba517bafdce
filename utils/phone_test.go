package utils

import "testing"

func TestFormatPhoneNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"9876543210", "9876543210"},
		{"+91 98765 43210", "9876543210"},
		{"919876543210", "9876543210"},
		{"098765-43210", "9876543210"},
		{"(987) 654-3210", "9876543210"},
	}

	for _, tc := range tests {
		if got := FormatPhoneNumber(tc.input); got != tc.want {
			t.Errorf("FormatPhoneNumber(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{
		"9876543210",
		"+91 98765 43210",
		"6123456789",
		"7000000000",
		"8999999999",
	}
	for _, number := range valid {
		if !ValidatePhoneNumber(number) {
			t.Errorf("ValidatePhoneNumber(%q) = false, want true", number)
		}
	}

	invalid := []string{
		"",
		"12345",
		"5876543210",
		"98765432100",
		"123456789",
		"abcdefghij",
	}
	for _, number := range invalid {
		if ValidatePhoneNumber(number) {
			t.Errorf("ValidatePhoneNumber(%q) = true, want false", number)
		}
	}
}

func TestDisplayPhoneNumber(t *testing.T) {
	if got := DisplayPhoneNumber("9876543210"); got != "+91 98765 43210" {
		t.Errorf("DisplayPhoneNumber = %q", got)
	}
	// unparseable input falls through unchanged
	if got := DisplayPhoneNumber("12345"); got != "12345" {
		t.Errorf("DisplayPhoneNumber = %q", got)
	}
}
