package model

import "strings"

// countryCallingCode is the fixed prefix applied to local 9-digit numbers.
const countryCallingCode = "221"

// NormalizePhone converts a payer phone number to the international format the
// aggregator expects. Already-prefixed numbers pass through unchanged; other
// inputs are stripped to digits and prefixed by length:
//
//	9 digits                  -> +221XXXXXXXXX
//	12 digits starting "221"  -> +221XXXXXXXXX
//	11..15 digits             -> +<digits>
//
// Anything else is returned as-is. This is best effort, not validation.
func NormalizePhone(phone string) string {
	p := strings.TrimSpace(phone)
	if strings.HasPrefix(p, "+") {
		return p
	}
	var b strings.Builder
	for _, r := range p {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == 9:
		return "+" + countryCallingCode + digits
	case len(digits) == 12 && strings.HasPrefix(digits, countryCallingCode):
		return "+" + digits
	case len(digits) >= 11 && len(digits) <= 15:
		return "+" + digits
	default:
		return p
	}
}
