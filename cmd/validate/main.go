// Command validate re-reads the CSV tables written by the ETL and checks the
// invariants every consumer relies on: header layout, 5-digit county keys,
// race shares summing to one per county, and the housing indicator agreeing
// with its opacity and threshold.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -housing clean/zhvi_county_inc_pop_clean.csv \
//	  -race clean/race_data_clean.csv \
//	  -mobility clean/google_mobility_county_clean.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/county-data-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/county-data-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

func main() {
	housing := flag.String("housing", sharedcfg.EnvOrDefault("HOUSING_OUTPUT_PATH", "clean/zhvi_county_inc_pop_clean.csv"), "path to the housing output CSV")
	race := flag.String("race", sharedcfg.EnvOrDefault("RACE_OUTPUT_PATH", "clean/race_data_clean.csv"), "path to the race output CSV")
	mobility := flag.String("mobility", sharedcfg.EnvOrDefault("MOBILITY_OUTPUT_PATH", "clean/google_mobility_county_clean.csv"), "path to the mobility output CSV")
	flag.Parse()

	if code := run(os.Stdout, *housing, *race, *mobility); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, housingPath, racePath, mobilityPath string) int {
	reader := csvfile.NewReader(map[string]csvfile.Source{
		"housing":  {Path: housingPath},
		"race":     {Path: racePath},
		"mobility": {Path: mobilityPath},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	fmt.Fprintln(out, "=== County Output Validation ===")
	fmt.Fprintln(out)

	ctx := context.Background()
	tables := make(map[string]*domain.Table, 3)
	for _, name := range []string{"housing", "race", "mobility"} {
		t, err := reader.ReadTable(ctx, name)
		if err != nil {
			fmt.Fprintf(out, "FATAL: load %s: %v\n", name, err)
			return 1
		}
		tables[name] = t
	}

	phases := []*phase{
		validateHousing(tables["housing"]),
		validateRace(tables["race"]),
		validateMobility(tables["mobility"]),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d housing, %d race, %d mobility\n",
		len(tables["housing"].Rows), len(tables["race"].Rows), len(tables["mobility"].Rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
		if p.dropped > 0 {
			fmt.Fprintf(out, "  ... and %d more\n", p.dropped)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}
