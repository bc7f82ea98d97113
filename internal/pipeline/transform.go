package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/county-data-etl/internal/domain"
)

// Input table names, as resolved by a TableSource.
const (
	SourceHousing    = "housing"
	SourceCrosswalk  = "crosswalk"
	SourcePopulation = "population"
	SourceRace       = "race"
	SourceMobility   = "mobility"
	SourceIncome     = "income_poverty"
)

// Inputs holds the raw material of one run.
type Inputs struct {
	IncomeBody []byte
	Housing    *domain.Table
	Crosswalk  *domain.Table
	Population *domain.Table
	Race       *domain.Table
	Mobility   *domain.Table
}

// Outputs holds the computed tables together with the per-source cleaning
// reports and the join report.
type Outputs struct {
	Housing  []domain.MergedCountyRecord
	Race     []domain.RaceRecord
	Mobility []domain.MobilityRecord
	Reports  []domain.Report
	Merge    domain.MergeReport
}

// CountyTransformer cleans every source and joins the housing tables.
type CountyTransformer struct {
	year   int
	logger *slog.Logger
}

// NewTransformer creates a CountyTransformer for the given SAIPE data year.
func NewTransformer(year int, logger *slog.Logger) *CountyTransformer {
	return &CountyTransformer{year: year, logger: logger}
}

// Transform runs every cleaner and the merge. Any fatal cleaning error aborts
// the whole transform; row-level exclusions are reported, not returned.
func (t *CountyTransformer) Transform(in Inputs) (*Outputs, error) {
	out := &Outputs{}

	income, rep, err := domain.CleanIncomePoverty(in.IncomeBody, t.year)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", SourceIncome, err)
	}
	out.Reports = append(out.Reports, rep)

	population, rep, err := domain.CleanPopulation(in.Population)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", SourcePopulation, err)
	}
	out.Reports = append(out.Reports, rep)

	crosswalk, rep, err := domain.CleanCrosswalk(in.Crosswalk)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", SourceCrosswalk, err)
	}
	out.Reports = append(out.Reports, rep)

	out.Race, rep, err = domain.CleanRace(in.Race)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", SourceRace, err)
	}
	out.Reports = append(out.Reports, rep)

	out.Mobility, rep, err = domain.CleanMobility(in.Mobility)
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", SourceMobility, err)
	}
	out.Reports = append(out.Reports, rep)

	housing, err := domain.ComputeHousingMetrics(in.Housing)
	if err != nil {
		return nil, fmt.Errorf("compute %s metrics: %w", SourceHousing, err)
	}

	out.Housing, out.Merge = domain.Merge(housing, crosswalk, income, population)

	for _, r := range out.Reports {
		attrs := []any{"source", r.Source, "read", r.Read, "kept", r.Kept}
		if n := r.ExcludedTotal(); n > 0 {
			t.logger.Warn("rows excluded", append(attrs, "excluded", r.Excluded, "samples", r.Samples)...)
			continue
		}
		t.logger.Info("source cleaned", attrs...)
	}
	t.logger.Info("housing merged",
		"housing", out.Merge.Housing,
		"no_crosswalk", out.Merge.NoCrosswalk,
		"no_income", out.Merge.NoIncome,
		"no_population", out.Merge.NoPopulation,
		"duplicate_key", out.Merge.DuplicateKey,
		"merged", out.Merge.Merged,
		"first_pass_flagged", out.Merge.FirstPassFlagged,
		"flagged", out.Merge.FinalFlagged,
	)

	return out, nil
}
