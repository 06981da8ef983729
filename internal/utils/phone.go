package utils

import (
	"regexp"
	"strings"
)

var nonPhoneChars = regexp.MustCompile(`[^\d+]`)

const DefaultCountryCode = "+1"

// FormatPhone converts a locally entered number into E.164 for SMS delivery.
// Ten digit numbers are assumed to be North American.
func FormatPhone(phone, countryCode string) string {
	cleaned := nonPhoneChars.ReplaceAllString(strings.TrimSpace(phone), "")
	if strings.HasPrefix(cleaned, "+") {
		return cleaned
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	code := strings.TrimPrefix(countryCode, "+")
	if len(cleaned) == 10 || !strings.HasPrefix(cleaned, code) {
		cleaned = code + cleaned
	}
	return "+" + cleaned
}

func MaskPhone(phone string) string {
	if len(phone) < 4 {
		return phone
	}

	// Show last 4 digits
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

func GenerateOTP() string {
	return GenerateRandomNumericString(OTPLength)
}
