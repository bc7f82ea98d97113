package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// parseNullable parses a float cell. Empty cells and any of the given
// sentinels are missing (nil); anything else non-numeric, including NaN and
// infinities, is ErrInvalidMetric.
func parseNullable(raw string, sentinels ...string) (*float64, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, nil
	}
	for _, s := range sentinels {
		if v == s {
			return nil, nil
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %q is not numeric", ErrInvalidMetric, raw)
	}
	return &f, nil
}

func floatPtr(v float64) *float64 { return &v }

// percentChange returns (to-from)/from*100, or nil when either operand is
// missing or the denominator is zero.
func percentChange(from, to *float64) *float64 {
	if from == nil || to == nil || *from == 0 {
		return nil
	}
	return floatPtr((*to - *from) / *from * 100)
}

// geq reports v >= threshold; a missing value never satisfies the comparison.
func geq(v *float64, threshold float64) bool {
	return v != nil && *v >= threshold
}

// leq reports v <= threshold; a missing value never satisfies the comparison.
func leq(v *float64, threshold float64) bool {
	return v != nil && *v <= threshold
}
