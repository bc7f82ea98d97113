package domain

// Indicator thresholds on the two-year housing price increase, in percent.
const (
	firstPassIncreaseThreshold = 30
	finalIncreaseThreshold     = 25
)

// Opacity values for flagged and unflagged counties.
const (
	OpacityFlagged   = 1.0
	OpacityUnflagged = 0.2
)

// MergeReport describes the join.
type MergeReport struct {
	Housing          int      `json:"housing"`
	NoCrosswalk      int      `json:"no_crosswalk"`
	NoIncome         int      `json:"no_income"`
	NoPopulation     int      `json:"no_population"`
	DuplicateKey     int      `json:"duplicate_key"`
	Merged           int      `json:"merged"`
	FirstPassFlagged int      `json:"first_pass_flagged"`
	FinalFlagged     int      `json:"flagged"`
	MedianPoverty    *float64 `json:"median_poverty"`
	MedianIncome     *float64 `json:"median_income"`
}

// joinedRow is a housing region after all three inner joins, before projection.
type joinedRow struct {
	housing    HousingRecord
	key        CountyKey
	income     IncomePovertyRecord
	population PopulationRecord
	text2020   string
	text2021   string
	text2Yr    string
	// firstPass is computed then discarded by projection.
	firstPass bool
}

// Merge inner-joins housing (through the crosswalk) with income/poverty and
// population on the county key, builds hover summaries and computes the
// housing/poverty indicator.
//
// Rows follow housing order and a county key yields at most one output row:
// the first housing region mapped to it wins. Two indicator passes run: a
// first pass with a 30% threshold over the joined rows, which projection
// drops, and the final pass over the projected records with medians
// recomputed on those records and a 25% threshold.
// Only the final pass reaches the output.
func Merge(housing []HousingRecord, crosswalk Crosswalk, income []IncomePovertyRecord, population []PopulationRecord) ([]MergedCountyRecord, MergeReport) {
	rep := MergeReport{Housing: len(housing)}

	incomeByKey := make(map[CountyKey]IncomePovertyRecord, len(income))
	for _, r := range income {
		if _, ok := incomeByKey[r.Key]; !ok {
			incomeByKey[r.Key] = r
		}
	}
	popByKey := make(map[CountyKey]PopulationRecord, len(population))
	for _, r := range population {
		if _, ok := popByKey[r.Key]; !ok {
			popByKey[r.Key] = r
		}
	}

	joined := make([]joinedRow, 0, len(housing))
	emitted := make(map[CountyKey]struct{}, len(housing))
	for _, h := range housing {
		key, ok := crosswalk[h.RegionID]
		if !ok {
			rep.NoCrosswalk++
			continue
		}
		// A county key is emitted at most once; later regions on it are dropped.
		if _, dup := emitted[key]; dup {
			rep.DuplicateKey++
			continue
		}
		inc, ok := incomeByKey[key]
		if !ok {
			rep.NoIncome++
			continue
		}
		pop, ok := popByKey[key]
		if !ok {
			rep.NoPopulation++
			continue
		}
		emitted[key] = struct{}{}
		joined = append(joined, joinedRow{housing: h, key: key, income: inc, population: pop})
	}

	for i := range joined {
		row := &joined[i]
		row.text2020, row.text2021, row.text2Yr = buildSummaries(summaryInput{
			RegionName:   row.housing.RegionName,
			State:        row.housing.State,
			Increase2020: row.housing.Increase2020,
			Increase2021: row.housing.Increase2021,
			Increase2Yr:  row.housing.Increase2Yr,
			MedianIncome: row.income.MedianIncome,
			Pop2019:      estimatePtr(row.population, 2019),
			Pop2020:      estimatePtr(row.population, 2020),
		})
	}

	rep.FirstPassFlagged = firstPassIndicator(joined)

	merged := make([]MergedCountyRecord, len(joined))
	for i, row := range joined {
		merged[i] = project(row)
	}

	rep.MedianPoverty, rep.MedianIncome, rep.FinalFlagged = applyFinalIndicator(merged)
	rep.Merged = len(merged)
	return merged, rep
}

// firstPassIndicator evaluates (increase >= 30) AND (poverty >= median OR
// income <= median) over the joined rows and returns how many were flagged.
func firstPassIndicator(rows []joinedRow) int {
	pov := make([]*float64, len(rows))
	inc := make([]*float64, len(rows))
	for i, r := range rows {
		pov[i] = r.income.PovertyRate
		inc[i] = r.income.MedianIncome
	}
	medPov, medInc := medianOfPresent(pov), medianOfPresent(inc)

	flagged := 0
	for i := range rows {
		r := &rows[i]
		r.firstPass = geq(r.housing.Increase2Yr, firstPassIncreaseThreshold) &&
			(aboveOrAtMedian(r.income.PovertyRate, medPov) || belowOrAtMedian(r.income.MedianIncome, medInc))
		if r.firstPass {
			flagged++
		}
	}
	return flagged
}

// applyFinalIndicator recomputes the medians over the projected records and
// sets (poverty >= median OR income <= median) AND (increase >= 25), with the
// matching opacity.
func applyFinalIndicator(records []MergedCountyRecord) (medPov, medInc *float64, flagged int) {
	pov := make([]*float64, len(records))
	inc := make([]*float64, len(records))
	for i, r := range records {
		pov[i] = r.PovertyRate
		inc[i] = r.MedianIncome
	}
	medPov, medInc = medianOfPresent(pov), medianOfPresent(inc)

	for i := range records {
		r := &records[i]
		r.HousePovertyIndicator = (aboveOrAtMedian(r.PovertyRate, medPov) || belowOrAtMedian(r.MedianIncome, medInc)) &&
			geq(r.Increase2Yr, finalIncreaseThreshold)
		r.Opacity = OpacityUnflagged
		if r.HousePovertyIndicator {
			r.Opacity = OpacityFlagged
			flagged++
		}
	}
	return medPov, medInc, flagged
}

func project(row joinedRow) MergedCountyRecord {
	return MergedCountyRecord{
		RegionName:     row.housing.RegionName,
		State:          row.housing.State,
		Metro:          row.housing.Metro,
		Key:            row.key,
		Avg2021:        row.housing.Avg2021,
		Avg2020:        row.housing.Avg2020,
		Avg2019:        row.housing.Avg2019,
		Increase2020:   row.housing.Increase2020,
		Increase2021:   row.housing.Increase2021,
		Increase2Yr:    row.housing.Increase2Yr,
		Text2Yr:        row.text2Yr,
		Text2020:       row.text2020,
		Text2021:       row.text2021,
		MedianIncome:   row.income.MedianIncome,
		PovertyRate:    row.income.PovertyRate,
		Population2020: estimatePtr(row.population, 2020),
	}
}

func aboveOrAtMedian(v, median *float64) bool {
	return median != nil && geq(v, *median)
}

func belowOrAtMedian(v, median *float64) bool {
	return median != nil && leq(v, *median)
}

func estimatePtr(p PopulationRecord, year int) *int64 {
	v, ok := p.Estimate(year)
	if !ok {
		return nil
	}
	return &v
}
