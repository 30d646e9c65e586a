package domain

import (
	"strings"

	dErrors "moniftar/pkg/domain-errors"
)

// NormalizePhone validates a phone number (optional leading '+', 10 to 20
// digits, spaces and dashes allowed between digits) and strips separators.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", dErrors.New(dErrors.CodeValidation, "phone number is required")
	}
	var b strings.Builder
	rest := raw
	if strings.HasPrefix(rest, "+") {
		b.WriteByte('+')
		rest = rest[1:]
	}
	if rest == "" || rest[0] < '0' || rest[0] > '9' {
		return "", dErrors.New(dErrors.CodeValidation, "phone number must start with a digit")
	}
	digits := 0
	for _, r := range rest {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == ' ' || r == '-':
		default:
			return "", dErrors.New(dErrors.CodeValidation, "phone number contains invalid characters")
		}
	}
	if digits < 10 || digits > 20 {
		return "", dErrors.New(dErrors.CodeValidation, "phone number must contain 10 to 20 digits")
	}
	return b.String(), nil
}

// RequireInternational rejects numbers without a country prefix. Volunteer
// accounts receive their password by message, which needs a routable number.
func RequireInternational(phone string) error {
	if !strings.HasPrefix(phone, "+") {
		return dErrors.New(dErrors.CodeValidation, "phone number must start with the country code (e.g. +33 123456789)")
	}
	return nil
}
