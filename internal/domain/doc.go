// Package domain reconciles county identifiers across public datasets and
// derives the merged county housing, race and mobility tables.
//
// # Data Sources
//
//	Income/poverty: Census SAIPE time-series API, one row per county per year.
//	Housing:        Zillow Home Value Index (ZHVI), county level, one column per month.
//	Crosswalk:      Zillow county region ID -> county FIPS.
//	Population:     Census county population estimates (POPESTIMATE<year> columns).
//	Race:           ACS table B02001, estimate/margin-of-error pairs per category.
//	Mobility:       Google mobility export aggregated per county and day.
//
// # County Keys
//
// Every output is keyed by a 5-character county FIPS code: 2-digit state
// followed by 3-digit county, both zero-padded ("6" + "37" -> "06037"). Sources
// encode it differently:
//
//	Income/poverty: separate state and county columns, county wrapped in
//	                bracket/quote debris from the JSON response.
//	Population:     separate STATE and COUNTY columns, often unpadded.
//	Race:           last five characters of GEO_ID ("0500000US06037").
//	Mobility:       single countyfips column, leading zero dropped ("6037").
//	Housing:        no FIPS at all; RegionID is mapped through the crosswalk,
//	                whose FIPS column is itself inconsistently padded.
//
// A row whose key cannot be padded to exactly five digits is dropped and
// counted in the cleaner's [Report]. Other data problems abort the run.
//
// # Missing Values
//
// Missing numbers are nil *float64. Sentinels per source: "null" (SAIPE),
// "." (mobility), empty cells everywhere. Race counts are the exception:
// a missing category count is zero population, not unknown.
//
// # Housing/Poverty Indicator
//
// A county is flagged when its two-year home value increase is at least 25%
// and it is at or above the median poverty rate or at or below the median
// income. Medians are taken over the merged counties, not the source tables.
// Flagged counties are drawn at full opacity, the rest at 0.2.
package domain
