package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/county-data-etl/internal/domain"
	"github.com/couchcryptid/county-data-etl/internal/observability"
	"github.com/google/uuid"
)

// IncomeFetcher retrieves the raw census income/poverty response for a year.
type IncomeFetcher interface {
	FetchIncomePoverty(ctx context.Context, year int) ([]byte, error)
}

// TableSource reads a named raw input table.
type TableSource interface {
	ReadTable(ctx context.Context, name string) (*domain.Table, error)
}

// Loader persists a run's result.
type Loader interface {
	Name() string
	Load(ctx context.Context, res *domain.Result) error
}

// RunSummary describes the last completed or failed run.
type RunSummary struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Year       int                `json:"year"`
	Reports    []domain.Report    `json:"reports,omitempty"`
	Merge      domain.MergeReport `json:"merge"`
	Rows       map[string]int     `json:"rows,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// Pipeline runs one fetch-read-clean-merge-load batch.
type Pipeline struct {
	fetcher     IncomeFetcher
	tables      TableSource
	transformer *CountyTransformer
	loaders     []Loader
	year        int
	logger      *slog.Logger
	metrics     *observability.Metrics

	mu      sync.Mutex
	last    *RunSummary
	running bool
}

// New creates a Pipeline. Loaders run in order after every table is computed.
func New(year int, f IncomeFetcher, ts TableSource, loaders []Loader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher:     f,
		tables:      ts,
		transformer: NewTransformer(year, logger),
		loaders:     loaders,
		year:        year,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.running:
		return errors.New("pipeline run in progress")
	case p.last == nil:
		return errors.New("pipeline has not completed a run yet")
	case p.last.Error != "":
		return fmt.Errorf("last run failed: %s", p.last.Error)
	}
	return nil
}

// LastRun returns the summary of the most recent run, if any.
func (p *Pipeline) LastRun() (RunSummary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return RunSummary{}, false
	}
	return *p.last, true
}

// Run executes one batch. The first error aborts the run; nothing is loaded
// unless every table was computed.
func (p *Pipeline) Run(ctx context.Context) (*domain.Result, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, errors.New("pipeline run already in progress")
	}
	p.running = true
	p.mu.Unlock()

	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: domain.Now(),
		Year:      p.year,
	}
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	logger := p.logger.With("run_id", summary.RunID)
	logger.Info("pipeline run started", "year", p.year)

	res, err := p.run(ctx, logger, summary)

	p.metrics.PipelineRunning.Set(0)
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	summary.FinishedAt = domain.Now()
	if err != nil {
		summary.Error = err.Error()
		p.metrics.RunFailures.Inc()
		logger.Error("pipeline run failed", "error", err)
	} else {
		p.metrics.LastSuccess.Set(float64(summary.FinishedAt.Unix()))
		logger.Info("pipeline run complete", "duration", time.Since(start), "rows", summary.Rows)
	}

	p.mu.Lock()
	p.last = summary
	p.running = false
	p.mu.Unlock()

	return res, err
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, summary *RunSummary) (*domain.Result, error) {
	in, err := p.extract(ctx)
	if err != nil {
		return nil, err
	}

	out, err := p.transformer.Transform(in)
	if err != nil {
		return nil, err
	}
	summary.Reports = out.Reports
	summary.Merge = out.Merge
	p.recordReports(out)

	res := &domain.Result{
		RunID:    summary.RunID,
		RunAt:    summary.StartedAt,
		Housing:  out.Housing,
		Race:     out.Race,
		Mobility: out.Mobility,
	}
	summary.Rows = map[string]int{
		"housing":  len(res.Housing),
		"race":     len(res.Race),
		"mobility": len(res.Mobility),
	}

	for _, l := range p.loaders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := l.Load(ctx, res); err != nil {
			return nil, fmt.Errorf("load %s: %w", l.Name(), err)
		}
		logger.Debug("loader finished", "loader", l.Name())
	}
	for table, n := range summary.Rows {
		p.metrics.RowsWritten.WithLabelValues(table).Add(float64(n))
	}

	return res, nil
}

// extract fetches the census body and reads every input table.
func (p *Pipeline) extract(ctx context.Context) (Inputs, error) {
	var in Inputs

	body, err := p.fetcher.FetchIncomePoverty(ctx, p.year)
	if err != nil {
		return in, fmt.Errorf("fetch %s: %w", SourceIncome, err)
	}
	in.IncomeBody = body

	tables := []struct {
		name string
		dst  **domain.Table
	}{
		{SourceHousing, &in.Housing},
		{SourceCrosswalk, &in.Crosswalk},
		{SourcePopulation, &in.Population},
		{SourceRace, &in.Race},
		{SourceMobility, &in.Mobility},
	}
	for _, t := range tables {
		tbl, err := p.tables.ReadTable(ctx, t.name)
		if err != nil {
			return in, fmt.Errorf("read %s: %w", t.name, err)
		}
		p.metrics.RowsRead.WithLabelValues(t.name).Add(float64(len(tbl.Rows)))
		*t.dst = tbl
	}
	return in, nil
}

func (p *Pipeline) recordReports(out *Outputs) {
	for _, r := range out.Reports {
		if r.Source == SourceIncome {
			p.metrics.RowsRead.WithLabelValues(r.Source).Add(float64(r.Read))
		}
		for reason, n := range r.Excluded {
			p.metrics.RowsExcluded.WithLabelValues(r.Source, reason).Add(float64(n))
		}
	}
	p.metrics.RowsMerged.Set(float64(out.Merge.Merged))
	p.metrics.Flagged.Set(float64(out.Merge.FinalFlagged))
}
