package domain

import (
	"math"
	"strconv"
	"strings"
)

const lineBreak = "<br>"

// summaryInput is the subset of a joined row the hover summaries are built from.
type summaryInput struct {
	RegionName   string
	State        string
	Increase2020 *float64
	Increase2021 *float64
	Increase2Yr  *float64
	MedianIncome *float64
	Pop2019      *int64
	Pop2020      *int64
}

// buildSummaries renders the 2020, 2021 and two-year hover texts for a row.
// It depends only on the row itself.
func buildSummaries(in summaryInput) (text2020, text2021, text2Yr string) {
	head := "County: " + in.RegionName + lineBreak + "State: " + in.State + lineBreak
	income := "Med_Inc: $" + formatFloat(in.MedianIncome) + lineBreak

	text2020 = head + "2019-20 increase: " + formatFloat(round3(in.Increase2020)) + "%" + lineBreak +
		income + "Pop_2019:" + formatInt(in.Pop2019)
	text2021 = head + "2020-21 increase: " + formatFloat(round3(in.Increase2021)) + "%" + lineBreak +
		income + "Pop_2020: " + formatInt(in.Pop2020)
	text2Yr = head + "2019-21 increase: " + formatFloat(round3(in.Increase2Yr)) + "%" + lineBreak +
		income + "Pop_2020: " + formatInt(in.Pop2020)
	return text2020, text2021, text2Yr
}

// round3 rounds half-to-even at three decimals on the exact binary value.
func round3(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(*v, 'f', 3, 64), 64)
	if err != nil {
		return v
	}
	return &r
}

// formatFloat renders a float the way the downstream dashboard has always
// shown it: shortest round-trip digits, at least one decimal place, exponent
// form outside [1e-4, 1e16), and "nan" for a missing value.
func formatFloat(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return "nan"
	}
	f := *v
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	if abs := math.Abs(f); f != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func formatInt(v *int64) string {
	if v == nil {
		return "nan"
	}
	return strconv.FormatInt(*v, 10)
}
