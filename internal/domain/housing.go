package domain

import (
	"fmt"
	"time"
)

// Analysis window for the Zillow home value index.
const (
	HousingFirstYear = 2019
	HousingLastYear  = 2021
)

var housingMetadataColumns = []string{"RegionID", "SizeRank", "RegionName", "State", "Metro"}

// MonthLabels lists the month-end column labels (YYYY-MM-DD) Zillow uses for
// every month from January of from through December of to.
func MonthLabels(from, to int) []string {
	labels := make([]string, 0, (to-from+1)*12)
	for y := from; y <= to; y++ {
		for m := time.January; m <= time.December; m++ {
			// Day 0 of the next month is the last day of this one.
			last := time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
			labels = append(labels, last.Format(time.DateOnly))
		}
	}
	return labels
}

// ComputeHousingMetrics selects the analysis window from the wide Zillow
// table by explicit month label and derives yearly averages and percent
// changes for each region. Column order in the source is irrelevant.
func ComputeHousingMetrics(t *Table) ([]HousingRecord, error) {
	months := MonthLabels(HousingFirstYear, HousingLastYear)
	if err := t.Require(append(append([]string{}, housingMetadataColumns...), months...)...); err != nil {
		return nil, err
	}

	records := make([]HousingRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		rec := HousingRecord{
			RegionID:   t.Value(row, "RegionID"),
			SizeRank:   t.Value(row, "SizeRank"),
			RegionName: t.Value(row, "RegionName"),
			State:      t.Value(row, "State"),
			Metro:      t.Value(row, "Metro"),
			Monthly:    make(map[string]*float64, len(months)),
		}
		for _, label := range months {
			v, err := parseNullable(t.Value(row, label))
			if err != nil {
				return nil, fmt.Errorf("housing row %d %s: %w", i+1, label, err)
			}
			rec.Monthly[label] = v
		}

		rec.Avg2019 = yearlyAverage(rec.Monthly, 2019)
		rec.Avg2020 = yearlyAverage(rec.Monthly, 2020)
		rec.Avg2021 = yearlyAverage(rec.Monthly, 2021)
		rec.Increase2020 = percentChange(rec.Avg2019, rec.Avg2020)
		rec.Increase2021 = percentChange(rec.Avg2020, rec.Avg2021)
		rec.Increase2Yr = percentChange(rec.Avg2019, rec.Avg2021)

		records = append(records, rec)
	}
	return records, nil
}

// yearlyAverage is the mean of the year's non-missing monthly values.
func yearlyAverage(monthly map[string]*float64, year int) *float64 {
	labels := MonthLabels(year, year)
	values := make([]*float64, 0, len(labels))
	for _, l := range labels {
		values = append(values, monthly[l])
	}
	return meanOfPresent(values)
}
