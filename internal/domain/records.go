package domain

import "time"

// IncomePovertyRecord is one county's SAIPE estimate for the requested year.
type IncomePovertyRecord struct {
	Key          CountyKey `json:"fips"`
	CountyName   string    `json:"county"`
	State        string    `json:"state"`
	MedianIncome *float64  `json:"med_inc"`
	PovertyRate  *float64  `json:"pov_rate"`
}

// MobilityRecord is one county-day of Google mobility deviations (percent
// change from baseline).
type MobilityRecord struct {
	Key              CountyKey `json:"countyfips"`
	Date             time.Time `json:"date"`
	RetailRecreation *float64  `json:"gps_retail_and_recreation"`
	GroceryPharmacy  *float64  `json:"gps_grocery_and_pharmacy"`
	Parks            *float64  `json:"gps_parks"`
}

// RaceCategory is one of the seven primary census race categories.
type RaceCategory string

const (
	RaceWhite           RaceCategory = "white"
	RaceBlack           RaceCategory = "blk_af_am"
	RaceAmericanIndian  RaceCategory = "am_indian_alas_nat"
	RaceAsian           RaceCategory = "asian"
	RacePacificIslander RaceCategory = "nat_haw_pac_island"
	RaceOther           RaceCategory = "other"
	RaceTwoOrMore       RaceCategory = "two_or_more"
)

// RaceCategories lists the primary categories in census table order.
var RaceCategories = []RaceCategory{
	RaceWhite,
	RaceBlack,
	RaceAmericanIndian,
	RaceAsian,
	RacePacificIslander,
	RaceOther,
	RaceTwoOrMore,
}

// Label is the output label of the category's percentage column.
func (c RaceCategory) Label() string { return "perc_" + string(c) }

// RaceRecord is one (county, category) pair in long form.
type RaceRecord struct {
	Key        CountyKey    `json:"fips"`
	CountyName string       `json:"county"`
	Category   RaceCategory `json:"race"`
	Percentage float64      `json:"perc_total"`
}

// PopulationRecord holds every POPESTIMATE<year> column for a county.
type PopulationRecord struct {
	Key       CountyKey
	Estimates map[int]int64
}

// Estimate returns the population estimate for a year, if present.
func (p PopulationRecord) Estimate(year int) (int64, bool) {
	v, ok := p.Estimates[year]
	return v, ok
}

// HousingRecord is one Zillow region with its derived yearly metrics.
type HousingRecord struct {
	RegionID   string
	SizeRank   string
	RegionName string
	State      string
	Metro      string
	// Monthly holds the analysis-window prices keyed by month label.
	Monthly map[string]*float64

	Avg2019      *float64
	Avg2020      *float64
	Avg2021      *float64
	Increase2020 *float64
	Increase2021 *float64
	Increase2Yr  *float64
}

// MergedCountyRecord is a county present in the housing, income/poverty and
// population sources, with all derived metrics and indicators.
type MergedCountyRecord struct {
	RegionName     string    `json:"region_name"`
	State          string    `json:"state"`
	Metro          string    `json:"metro"`
	Key            CountyKey `json:"fips"`
	Avg2021        *float64  `json:"avg_2021"`
	Avg2020        *float64  `json:"avg_2020"`
	Avg2019        *float64  `json:"avg_2019"`
	Increase2020   *float64  `json:"increase_2020"`
	Increase2021   *float64  `json:"increase_2021"`
	Increase2Yr    *float64  `json:"increase_2yr"`
	Text2Yr        string    `json:"text_2yrs"`
	Text2020       string    `json:"text_20"`
	Text2021       string    `json:"text_21"`
	MedianIncome   *float64  `json:"med_inc"`
	PovertyRate    *float64  `json:"pov_rate"`
	Population2020 *int64    `json:"pop_2020"`

	HousePovertyIndicator bool    `json:"house_pov_ind"`
	Opacity               float64 `json:"opacity"`
}

// Result holds every table produced by one pipeline run.
type Result struct {
	RunID    string
	RunAt    time.Time
	Housing  []MergedCountyRecord
	Race     []RaceRecord
	Mobility []MobilityRecord
}
