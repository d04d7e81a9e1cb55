// Package phone canonicalizes chat-channel phone numbers into a single dialable
// digit string (country code + area code + subscriber).
package phone

import "strings"

// DefaultCountryCode is used when a Normalizer is built without one.
const DefaultCountryCode = "55"

// Domestic numbers are area code + subscriber: 10 digits for landlines and
// 11 for mobiles carrying the leading 9.
const (
	domesticMinDigits = 10
	domesticMaxDigits = 11
)

// Normalizer prefixes numbers with a fixed country code. The zero value uses
// DefaultCountryCode.
type Normalizer struct {
	CountryCode string
}

// New builds a Normalizer for countryCode, ignoring any non-digit characters in it.
func New(countryCode string) Normalizer {
	return Normalizer{CountryCode: Clean(countryCode)}
}

// Clean strips every non-digit character.
func Clean(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize cleans raw and prefixes the country code when it is missing.
// It never fails: unusable input yields a best-effort digit string, and empty
// input stays empty.
func (n Normalizer) Normalize(raw string) string {
	digits := Clean(raw)
	if digits == "" {
		return ""
	}
	cc := n.countryCode()
	if isDomesticLength(digits) || !strings.HasPrefix(digits, cc) {
		return cc + digits
	}
	return digits
}

// IsValidDomesticMobile reports whether raw, once cleaned, has the length of
// a full international number (12 or 13 digits) and starts with the country
// code. The check is advisory and never blocks a send.
func (n Normalizer) IsValidDomesticMobile(raw string) bool {
	digits := Clean(raw)
	if len(digits) != 12 && len(digits) != 13 {
		return false
	}
	return strings.HasPrefix(digits, n.countryCode())
}

func (n Normalizer) countryCode() string {
	if n.CountryCode == "" {
		return DefaultCountryCode
	}
	return n.CountryCode
}

func isDomesticLength(digits string) bool {
	return len(digits) >= domesticMinDigits && len(digits) <= domesticMaxDigits
}
