package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/county-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/county-data-etl/internal/domain"
	"github.com/couchcryptid/county-data-etl/internal/observability"
	"github.com/couchcryptid/county-data-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type fileFetcher struct {
	path  string
	err   error
	calls int
	year  int
}

func (f *fileFetcher) FetchIncomePoverty(_ context.Context, year int) ([]byte, error) {
	f.calls++
	f.year = year
	if f.err != nil {
		return nil, f.err
	}
	return os.ReadFile(f.path)
}

type mockLoader struct {
	name   string
	err    error
	loaded []*domain.Result
}

func (m *mockLoader) Name() string { return m.name }

func (m *mockLoader) Load(_ context.Context, res *domain.Result) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, res)
	return nil
}

type failingSource struct {
	name string
	err  error
	next pipeline.TableSource
}

func (f *failingSource) ReadTable(ctx context.Context, name string) (*domain.Table, error) {
	if name == f.name {
		return nil, f.err
	}
	return f.next.ReadTable(ctx, name)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testdataSource() *csvfile.Reader {
	return csvfile.NewReader(map[string]csvfile.Source{
		pipeline.SourceHousing:    {Path: filepath.Join("testdata", "zhvi_county.csv")},
		pipeline.SourceCrosswalk:  {Path: filepath.Join("testdata", "crosswalk.csv"), Encoding: csvfile.Latin1},
		pipeline.SourcePopulation: {Path: filepath.Join("testdata", "county_population.csv"), Encoding: csvfile.Latin1},
		pipeline.SourceRace:       {Path: filepath.Join("testdata", "race_by_county.csv")},
		pipeline.SourceMobility:   {Path: filepath.Join("testdata", "google_mobility_county.csv")},
	}, discardLogger())
}

func newTestPipeline(f pipeline.IncomeFetcher, ts pipeline.TableSource, loaders ...pipeline.Loader) *pipeline.Pipeline {
	return pipeline.New(2020, f, ts, loaders, discardLogger(), observability.NewMetricsForTesting())
}

func saipeFetcher() *fileFetcher {
	return &fileFetcher{path: filepath.Join("testdata", "saipe_2020.json")}
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2021, time.June, 1, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() { domain.SetClock(nil) })

	fetcher := saipeFetcher()
	ldr := &mockLoader{name: "mock"}
	p := newTestPipeline(fetcher, testdataSource(), ldr)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 2020, fetcher.year)
	require.Len(t, ldr.loaded, 1)
	assert.Same(t, res, ldr.loaded[0])
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, fakeClock.Now(), res.RunAt)

	keys := make([]domain.CountyKey, len(res.Housing))
	flags := make([]bool, len(res.Housing))
	for i, m := range res.Housing {
		keys[i] = m.Key
		flags[i] = m.HousePovertyIndicator
	}
	if diff := cmp.Diff([]domain.CountyKey{"01001", "01003", "01005"}, keys); diff != "" {
		t.Fatalf("housing keys mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []bool{true, true, false}, flags)

	alpha := res.Housing[0]
	require.NotNil(t, alpha.Increase2Yr)
	assert.Equal(t, 25.0, *alpha.Increase2Yr)
	require.NotNil(t, alpha.Population2020)
	assert.Equal(t, int64(1100), *alpha.Population2020)
	assert.Equal(t, "Alpha-Town, AL", alpha.Metro)

	assert.Len(t, res.Race, 14, "two counties with seven categories each")
	assert.Len(t, res.Mobility, 3)

	require.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_Summary(t *testing.T) {
	p := newTestPipeline(saipeFetcher(), testdataSource())

	_, ok := p.LastRun()
	assert.False(t, ok)

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	summary, ok := p.LastRun()
	require.True(t, ok)
	assert.Equal(t, 2020, summary.Year)
	assert.Empty(t, summary.Error)
	assert.Equal(t, map[string]int{"housing": 3, "race": 14, "mobility": 3}, summary.Rows)

	assert.Equal(t, 4, summary.Merge.Housing)
	assert.Equal(t, 1, summary.Merge.NoCrosswalk)
	assert.Equal(t, 3, summary.Merge.Merged)
	assert.Equal(t, 1, summary.Merge.FirstPassFlagged)
	assert.Equal(t, 2, summary.Merge.FinalFlagged)

	bySource := make(map[string]domain.Report, len(summary.Reports))
	for _, r := range summary.Reports {
		bySource[r.Source] = r
	}
	assert.Equal(t, 1, bySource["crosswalk"].Excluded[domain.ReasonMalformedKey])
	assert.Equal(t, 1, bySource["race"].Excluded[domain.ReasonMetadataRow])
	assert.Equal(t, 1, bySource["race"].Excluded[domain.ReasonZeroTotal])
	assert.Equal(t, 1, bySource["race"].Excluded[domain.ReasonEmptyRow])
	assert.Equal(t, 1, bySource["mobility"].Excluded[domain.ReasonMalformedKey])
	assert.Equal(t, 4, bySource["income_poverty"].Kept)
}

func TestPipeline_Run_FetchError(t *testing.T) {
	fetcher := &fileFetcher{err: domain.ErrSourceUnavailable}
	ldr := &mockLoader{name: "mock"}
	p := newTestPipeline(fetcher, testdataSource(), ldr)

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Empty(t, ldr.loaded, "nothing is written when a source fails")

	require.Error(t, p.CheckReadiness(context.Background()))
	summary, ok := p.LastRun()
	require.True(t, ok)
	assert.Contains(t, summary.Error, "fetch income_poverty")
}

func TestPipeline_Run_ReadError(t *testing.T) {
	ts := &failingSource{
		name: pipeline.SourceRace,
		err:  domain.ErrSchemaMismatch,
		next: testdataSource(),
	}
	ldr := &mockLoader{name: "mock"}
	p := newTestPipeline(saipeFetcher(), ts, ldr)

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "read race")
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_InvalidMetricAborts(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "mobility.csv")
	require.NoError(t, os.WriteFile(bad, []byte(
		"year,month,day,countyfips,gps_retail_and_recreation,gps_grocery_and_pharmacy,gps_parks\n"+
			"2020,3,1,1001,abc,.,.\n"), 0o600))

	ts := csvfile.NewReader(map[string]csvfile.Source{
		pipeline.SourceHousing:    {Path: filepath.Join("testdata", "zhvi_county.csv")},
		pipeline.SourceCrosswalk:  {Path: filepath.Join("testdata", "crosswalk.csv"), Encoding: csvfile.Latin1},
		pipeline.SourcePopulation: {Path: filepath.Join("testdata", "county_population.csv"), Encoding: csvfile.Latin1},
		pipeline.SourceRace:       {Path: filepath.Join("testdata", "race_by_county.csv")},
		pipeline.SourceMobility:   {Path: bad},
	}, discardLogger())
	ldr := &mockLoader{name: "mock"}

	_, err := newTestPipeline(saipeFetcher(), ts, ldr).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidMetric)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_LoaderErrorStopsLaterLoaders(t *testing.T) {
	first := &mockLoader{name: "first", err: errors.New("disk full")}
	second := &mockLoader{name: "second"}
	p := newTestPipeline(saipeFetcher(), testdataSource(), first, second)

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load first")
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, second.loaded)
}

func TestPipeline_Run_ContextCanceled(t *testing.T) {
	ldr := &mockLoader{name: "mock"}
	p := newTestPipeline(saipeFetcher(), testdataSource(), ldr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_CheckReadiness_BeforeRun(t *testing.T) {
	p := newTestPipeline(saipeFetcher(), testdataSource())
	err := p.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not completed")
}

func TestCountyTransformer_Transform_Deterministic(t *testing.T) {
	ctx := context.Background()
	ts := testdataSource()
	body, err := os.ReadFile(filepath.Join("testdata", "saipe_2020.json"))
	require.NoError(t, err)

	read := func(name string) *domain.Table {
		tbl, err := ts.ReadTable(ctx, name)
		require.NoError(t, err)
		return tbl
	}
	in := pipeline.Inputs{
		IncomeBody: body,
		Housing:    read(pipeline.SourceHousing),
		Crosswalk:  read(pipeline.SourceCrosswalk),
		Population: read(pipeline.SourcePopulation),
		Race:       read(pipeline.SourceRace),
		Mobility:   read(pipeline.SourceMobility),
	}

	tfm := pipeline.NewTransformer(2020, discardLogger())
	a, err := tfm.Transform(in)
	require.NoError(t, err)
	b, err := tfm.Transform(in)
	require.NoError(t, err)

	if diff := cmp.Diff(a.Housing, b.Housing); diff != "" {
		t.Fatalf("repeated transforms differ (-first +second):\n%s", diff)
	}
}
