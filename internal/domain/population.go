package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const popEstimatePrefix = "POPESTIMATE"

// CleanPopulation keys the census county population estimates by zero-padding
// the separate STATE and COUNTY columns. Every POPESTIMATE<year> column is
// carried through; state summary rows (COUNTY "000") are kept and simply
// never match a housing county.
func CleanPopulation(t *Table) ([]PopulationRecord, Report, error) {
	rep := newReport("population")

	if err := t.Require("STATE", "COUNTY"); err != nil {
		return nil, rep, err
	}
	years := estimateYears(t)
	if len(years) == 0 {
		return nil, rep, fmt.Errorf("%w: table %q has no %s<year> columns", ErrSchemaMismatch, t.Name, popEstimatePrefix)
	}

	seen := make(map[CountyKey]struct{}, len(t.Rows))
	records := make([]PopulationRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		rep.Read++

		state, county := t.Value(row, "STATE"), t.Value(row, "COUNTY")
		key, err := NormalizeStateCounty(state, county)
		if err != nil {
			rep.exclude(ReasonMalformedKey, state+"|"+county)
			continue
		}
		if _, dup := seen[key]; dup {
			rep.exclude(ReasonDuplicateKey, string(key))
			continue
		}

		estimates := make(map[int]int64, len(years))
		for col, year := range years {
			raw := t.Value(row, col)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, rep, fmt.Errorf("population row %d %s: %w: %q is not an integer", i+1, col, ErrInvalidMetric, raw)
			}
			estimates[year] = v
		}

		seen[key] = struct{}{}
		records = append(records, PopulationRecord{Key: key, Estimates: estimates})
	}

	rep.Kept = len(records)
	return records, rep, nil
}

// estimateYears maps each POPESTIMATE<year> column to its year.
func estimateYears(t *Table) map[string]int {
	years := make(map[string]int)
	for _, c := range t.Columns {
		c = strings.TrimSpace(c)
		suffix, ok := strings.CutPrefix(c, popEstimatePrefix)
		if !ok || len(suffix) != 4 {
			continue
		}
		if y, err := strconv.Atoi(suffix); err == nil {
			years[c] = y
		}
	}
	return years
}
