package domain

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// meanOfPresent averages the non-missing values, or returns nil if every
// value is missing.
func meanOfPresent(values []*float64) *float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			present = append(present, *v)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return floatPtr(stat.Mean(present, nil))
}

// medianOfPresent returns the median of the non-missing values. An even count
// averages the two middle values. Returns nil if every value is missing.
func medianOfPresent(values []*float64) *float64 {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			present = append(present, *v)
		}
	}
	n := len(present)
	if n == 0 {
		return nil
	}
	sort.Float64s(present)
	if n%2 == 1 {
		return floatPtr(present[n/2])
	}
	return floatPtr((present[n/2-1] + present[n/2]) / 2)
}
