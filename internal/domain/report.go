package domain

// Exclusion reasons recorded in a Report.
const (
	ReasonMalformedKey = "malformed_key"
	ReasonDuplicateKey = "duplicate_key"
	ReasonMetadataRow  = "metadata_row"
	ReasonEmptyRow     = "empty_row"
	ReasonZeroTotal    = "zero_total"
	ReasonOtherYear    = "other_year"
)

const maxReportSamples = 5

// Report summarizes how a cleaner treated its input rows. Row-level problems
// that are recovered locally are counted here instead of failing the run.
type Report struct {
	Source   string         `json:"source"`
	Read     int            `json:"read"`
	Kept     int            `json:"kept"`
	Excluded map[string]int `json:"excluded"`
	// Samples holds the first few offending raw values, for logging.
	Samples []string `json:"samples,omitempty"`
}

func newReport(source string) Report {
	return Report{Source: source, Excluded: make(map[string]int)}
}

func (r *Report) exclude(reason, sample string) {
	r.Excluded[reason]++
	if sample != "" && len(r.Samples) < maxReportSamples {
		r.Samples = append(r.Samples, sample)
	}
}

// ExcludedTotal returns the number of rows dropped for any reason.
func (r Report) ExcludedTotal() int {
	n := 0
	for _, c := range r.Excluded {
		n += c
	}
	return n
}
