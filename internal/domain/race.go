package domain

import "fmt"

// Census table B02001 estimate columns. Margin-of-error columns (suffix M)
// and the two "two or more races" sub-categories are not carried over.
const raceTotalColumn = "B02001_001E"

var raceEstimateColumns = map[RaceCategory]string{
	RaceWhite:           "B02001_002E",
	RaceBlack:           "B02001_003E",
	RaceAmericanIndian:  "B02001_004E",
	RaceAsian:           "B02001_005E",
	RacePacificIslander: "B02001_006E",
	RaceOther:           "B02001_007E",
	RaceTwoOrMore:       "B02001_008E",
}

// raceCompositeColumns are only consulted when deciding whether a row is an
// empty placeholder.
var raceCompositeColumns = []string{"B02001_009E", "B02001_010E"}

// CleanRace reshapes census race counts into long form: one record per
// county and primary category holding the share of the county total.
//
// The first data row repeats the column descriptions and is dropped, as are
// footer rows with no estimates at all. Missing category counts are zero.
// Rows whose total is missing or zero are dropped before any division.
func CleanRace(t *Table) ([]RaceRecord, Report, error) {
	rep := newReport("race")

	required := []string{"GEO_ID", "NAME", raceTotalColumn}
	for _, c := range RaceCategories {
		required = append(required, raceEstimateColumns[c])
	}
	if err := t.Require(required...); err != nil {
		return nil, rep, err
	}

	records := make([]RaceRecord, 0, len(t.Rows)*len(RaceCategories))
	for i, row := range t.Rows {
		rep.Read++
		if i == 0 {
			rep.exclude(ReasonMetadataRow, "")
			continue
		}
		if raceRowEmpty(t, row) {
			rep.exclude(ReasonEmptyRow, "")
			continue
		}

		total, err := parseNullable(t.Value(row, raceTotalColumn), "null")
		if err != nil {
			return nil, rep, fmt.Errorf("race row %d total: %w", i+1, err)
		}
		if total == nil || *total == 0 {
			rep.exclude(ReasonZeroTotal, t.Value(row, "GEO_ID"))
			continue
		}

		counts := make(map[RaceCategory]float64, len(RaceCategories))
		for _, c := range RaceCategories {
			v, err := parseNullable(t.Value(row, raceEstimateColumns[c]), "null")
			if err != nil {
				return nil, rep, fmt.Errorf("race row %d %s: %w", i+1, c, err)
			}
			if v != nil {
				counts[c] = *v
			}
		}

		geoID := t.Value(row, "GEO_ID")
		key, err := raceKey(geoID)
		if err != nil {
			rep.exclude(ReasonMalformedKey, geoID)
			continue
		}

		name := t.Value(row, "NAME")
		for _, c := range RaceCategories {
			records = append(records, RaceRecord{
				Key:        key,
				CountyName: name,
				Category:   c,
				Percentage: counts[c] / *total,
			})
		}
		rep.Kept++
	}

	return records, rep, nil
}

// raceKey takes the county FIPS from the tail of a census GEO_ID such as
// "0500000US06037".
func raceKey(geoID string) (CountyKey, error) {
	if len(geoID) < keyWidth {
		return "", fmt.Errorf("geo id %q: %w: too short", geoID, ErrMalformedKey)
	}
	return NormalizeFIPS(geoID[len(geoID)-keyWidth:])
}

func raceRowEmpty(t *Table, row []string) bool {
	cols := []string{raceTotalColumn}
	for _, c := range RaceCategories {
		cols = append(cols, raceEstimateColumns[c])
	}
	cols = append(cols, raceCompositeColumns...)

	for _, c := range cols {
		if v := t.Value(row, c); v != "" && v != "null" {
			return false
		}
	}
	return true
}
