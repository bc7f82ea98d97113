package domain

import (
	"fmt"
	"strconv"
	"time"
)

// mobilitySentinel is the missing-value marker used by the mobility export.
const mobilitySentinel = "."

var mobilityMetrics = []string{
	"gps_retail_and_recreation",
	"gps_grocery_and_pharmacy",
	"gps_parks",
}

// CleanMobility converts the county-day mobility export into records with a
// composed date and a padded county key. "." cells are missing values; any
// other non-numeric metric aborts with ErrInvalidMetric.
func CleanMobility(t *Table) ([]MobilityRecord, Report, error) {
	rep := newReport("mobility")

	required := append([]string{"year", "month", "day", "countyfips"}, mobilityMetrics...)
	if err := t.Require(required...); err != nil {
		return nil, rep, err
	}

	records := make([]MobilityRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		rep.Read++

		var metrics [3]*float64
		for m, col := range mobilityMetrics {
			v, err := parseNullable(t.Value(row, col), mobilitySentinel)
			if err != nil {
				return nil, rep, fmt.Errorf("mobility row %d %s: %w", i+1, col, err)
			}
			metrics[m] = v
		}

		date, err := composeDate(t.Value(row, "year"), t.Value(row, "month"), t.Value(row, "day"))
		if err != nil {
			return nil, rep, fmt.Errorf("mobility row %d: %w", i+1, err)
		}

		fips := t.Value(row, "countyfips")
		key, err := NormalizeFIPS(fips)
		if err != nil {
			rep.exclude(ReasonMalformedKey, fips)
			continue
		}

		records = append(records, MobilityRecord{
			Key:              key,
			Date:             date,
			RetailRecreation: metrics[0],
			GroceryPharmacy:  metrics[1],
			Parks:            metrics[2],
		})
	}

	rep.Kept = len(records)
	return records, rep, nil
}

// composeDate builds a UTC calendar date and rejects out-of-range parts
// instead of letting time.Date normalize them (Feb 30 -> Mar 2).
func composeDate(year, month, day string) (time.Time, error) {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, fmt.Errorf("%w: date %s-%s-%s is not numeric", ErrInvalidMetric, year, month, day)
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, fmt.Errorf("%w: date %04d-%02d-%02d out of range", ErrInvalidMetric, y, m, d)
	}
	return t, nil
}
