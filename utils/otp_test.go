package utils

import "testing"

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		otp := GenerateOTP()
		if len(otp) != 6 {
			t.Fatalf("GenerateOTP returned %q, want 6 digits", otp)
		}
		for _, r := range otp {
			if r < '0' || r > '9' {
				t.Fatalf("GenerateOTP returned non-digit %q", otp)
			}
		}
		seen[otp] = true
	}
	// 50 draws from a million values collapsing to one would mean a broken source
	if len(seen) < 2 {
		t.Fatal("GenerateOTP produced identical values across 50 draws")
	}
}
