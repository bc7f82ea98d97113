package domain

import (
	"fmt"
	"strings"
)

const (
	stateWidth  = 2
	countyWidth = 3
	keyWidth    = stateWidth + countyWidth
)

// CountyKey is the canonical county identifier: a 2-digit state code followed
// by a 3-digit county code, e.g. "06037" for Los Angeles County.
type CountyKey string

// State returns the 2-digit state portion of the key.
func (k CountyKey) State() string {
	if len(k) != keyWidth {
		return ""
	}
	return string(k[:stateWidth])
}

// County returns the 3-digit county portion of the key.
func (k CountyKey) County() string {
	if len(k) != keyWidth {
		return ""
	}
	return string(k[stateWidth:])
}

// NormalizeStateCounty builds a CountyKey from separate state and county codes,
// zero-padding each component before concatenation ("6", "37" -> "06037").
func NormalizeStateCounty(state, county string) (CountyKey, error) {
	s, err := padDigits(state, stateWidth)
	if err != nil {
		return "", fmt.Errorf("state %q: %w", state, err)
	}
	c, err := padDigits(county, countyWidth)
	if err != nil {
		return "", fmt.Errorf("county %q: %w", county, err)
	}
	return CountyKey(s + c), nil
}

// NormalizeFIPS zero-pads a single numeric FIPS code to 5 characters.
// Codes that are already 5 characters are returned unchanged.
func NormalizeFIPS(raw string) (CountyKey, error) {
	s, err := padDigits(raw, keyWidth)
	if err != nil {
		return "", fmt.Errorf("fips %q: %w", raw, err)
	}
	return CountyKey(s), nil
}

// padDigits left-pads a trimmed all-digit string with zeros to width.
// A value wider than width means upstream corruption and is rejected.
func padDigits(raw string, width int) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", fmt.Errorf("%w: empty", ErrMalformedKey)
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: non-numeric", ErrMalformedKey)
		}
	}
	if len(v) > width {
		return "", fmt.Errorf("%w: longer than %d digits", ErrMalformedKey, width)
	}
	return strings.Repeat("0", width-len(v)) + v, nil
}
