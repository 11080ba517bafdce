package utils

import (
	"regexp"
	"strings"
)

// FormatPhoneNumber strips all non-digit characters and removes the Indian
// country code so numbers are stored as bare 10-digit strings.
func FormatPhoneNumber(phoneNumber string) string {
	re := regexp.MustCompile(`\D`)
	digits := re.ReplaceAllString(phoneNumber, "")

	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	digits = strings.TrimLeft(digits, "0")

	return digits
}

// ValidatePhoneNumber checks for a valid Indian mobile number:
// exactly 10 digits starting with 6, 7, 8 or 9.
func ValidatePhoneNumber(phoneNumber string) bool {
	cleaned := FormatPhoneNumber(phoneNumber)

	if len(cleaned) != 10 {
		return false
	}

	matched, _ := regexp.MatchString(`^[6-9]\d{9}$`, cleaned)
	return matched
}

// NormalizePhoneNumber normalizes a phone number for database storage.
func NormalizePhoneNumber(phoneNumber string) string {
	return FormatPhoneNumber(phoneNumber)
}

// DisplayPhoneNumber formats a stored number for display as +91 XXXXX XXXXX.
func DisplayPhoneNumber(phoneNumber string) string {
	formatted := FormatPhoneNumber(phoneNumber)
	if len(formatted) == 10 {
		return "+91 " + formatted[:5] + " " + formatted[5:]
	}
	return phoneNumber
}
