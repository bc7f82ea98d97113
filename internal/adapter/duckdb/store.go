package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/county-data-etl/internal/domain"
	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver
)

// Schema for the three output tables plus a run log. Output tables are
// replaced on every run; the run log accumulates.
const (
	createHousing = `CREATE OR REPLACE TABLE county_housing (
	region_name       VARCHAR,
	state             VARCHAR,
	metro             VARCHAR,
	fips              VARCHAR,
	avg_2021          DOUBLE,
	avg_2020          DOUBLE,
	avg_2019          DOUBLE,
	increase_2020     DOUBLE,
	increase_2021     DOUBLE,
	increase_2yr      DOUBLE,
	text_2yrs         VARCHAR,
	text_20           VARCHAR,
	text_21           VARCHAR,
	med_inc           DOUBLE,
	pov_rate          DOUBLE,
	popestimate2020   BIGINT,
	opacity           DOUBLE,
	house_pov_ind     BOOLEAN
)`
	createRace = `CREATE OR REPLACE TABLE county_race (
	fips       VARCHAR,
	county     VARCHAR,
	race       VARCHAR,
	perc_total DOUBLE
)`
	createMobility = `CREATE OR REPLACE TABLE county_mobility (
	date                      DATE,
	countyfips                VARCHAR,
	gps_retail_and_recreation DOUBLE,
	gps_grocery_and_pharmacy  DOUBLE,
	gps_parks                 DOUBLE
)`
	createRuns = `CREATE TABLE IF NOT EXISTS etl_runs (
	run_id        VARCHAR PRIMARY KEY,
	run_at        TIMESTAMP,
	housing_rows  BIGINT,
	race_rows     BIGINT,
	mobility_rows BIGINT
)`

	insertHousing  = `INSERT INTO county_housing VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertRace     = `INSERT INTO county_race VALUES (?, ?, ?, ?)`
	insertMobility = `INSERT INTO county_mobility VALUES (?, ?, ?, ?, ?)`
	insertRun      = `INSERT INTO etl_runs VALUES (?, ?, ?, ?, ?)`
)

// Store writes output tables into a DuckDB database file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the DuckDB database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb %s: %w", path, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Name identifies the loader in logs.
func (s *Store) Name() string { return "duckdb" }

// CheckReadiness verifies the database connection.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load replaces the output tables with the run's result in one transaction.
func (s *Store) Load(ctx context.Context, res *domain.Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, ddl := range []string{createHousing, createRace, createMobility, createRuns} {
		if _, err = tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	if err = insertAll(ctx, tx, insertHousing, len(res.Housing), func(i int) []any {
		m := res.Housing[i]
		return []any{
			m.RegionName, m.State, m.Metro, string(m.Key),
			nullFloat(m.Avg2021), nullFloat(m.Avg2020), nullFloat(m.Avg2019),
			nullFloat(m.Increase2020), nullFloat(m.Increase2021), nullFloat(m.Increase2Yr),
			m.Text2Yr, m.Text2020, m.Text2021,
			nullFloat(m.MedianIncome), nullFloat(m.PovertyRate), nullInt(m.Population2020),
			m.Opacity, m.HousePovertyIndicator,
		}
	}); err != nil {
		return fmt.Errorf("insert housing: %w", err)
	}

	if err = insertAll(ctx, tx, insertRace, len(res.Race), func(i int) []any {
		r := res.Race[i]
		return []any{string(r.Key), r.CountyName, r.Category.Label(), r.Percentage}
	}); err != nil {
		return fmt.Errorf("insert race: %w", err)
	}

	if err = insertAll(ctx, tx, insertMobility, len(res.Mobility), func(i int) []any {
		m := res.Mobility[i]
		return []any{m.Date, string(m.Key), nullFloat(m.RetailRecreation), nullFloat(m.GroceryPharmacy), nullFloat(m.Parks)}
	}); err != nil {
		return fmt.Errorf("insert mobility: %w", err)
	}

	if _, err = tx.ExecContext(ctx, insertRun, res.RunID, res.RunAt,
		len(res.Housing), len(res.Race), len(res.Mobility)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("duckdb tables replaced",
		"run_id", res.RunID,
		"housing", len(res.Housing),
		"race", len(res.Race),
		"mobility", len(res.Mobility),
	)
	return nil
}

func insertAll(ctx context.Context, tx *sql.Tx, query string, n int, args func(int) []any) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}

// nullFloat and nullInt bind missing values as SQL NULL.
func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
