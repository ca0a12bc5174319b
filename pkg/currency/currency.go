// Package currency provides currency-code normalization and validation for
// the conversion pipeline. Codes are 3-letter ISO 4217 identifiers; the
// upstream rate service is the authority on which codes actually resolve.
package currency

import (
	"strings"

	"github.com/fxpocket/fxpocket/pkg/domain"
)

// Common codes used throughout defaults and tests.
const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	JPY = "JPY"
)

// Normalize upper-cases and trims a user-supplied code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid reports whether code is exactly three ASCII letters.
func IsValid(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// Parse normalizes and validates a code in one step.
func Parse(code string) (string, error) {
	n := Normalize(code)
	if !IsValid(n) {
		return "", domain.ErrInvalidCurrencyCode
	}
	return n, nil
}
