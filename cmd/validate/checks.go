package main

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/couchcryptid/county-data-etl/internal/domain"
)

// maxPhaseErrors caps the errors kept per phase so a systematically broken
// file does not flood the report.
const maxPhaseErrors = 50

// shareTolerance bounds the rounding drift of race shares summed per county.
const shareTolerance = 1e-6

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	dropped int
}

func (p *phase) errorf(format string, args ...any) {
	if len(p.errors) >= maxPhaseErrors {
		p.dropped++
		return
	}
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func checkHeader(p *phase, t *domain.Table, want []string) bool {
	if !slices.Equal(t.Columns, want) {
		p.errorf("header = %v, want %v", t.Columns, want)
		return false
	}
	return true
}

func checkKey(p *phase, line int, col, v string) {
	if len(v) != 5 {
		p.errorf("line %d: %s %q is not 5 characters", line, col, v)
		return
	}
	if _, err := domain.NormalizeFIPS(v); err != nil {
		p.errorf("line %d: %s %q: %v", line, col, v, err)
	}
}

func optionalFloat(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// validateHousing checks keys and that the indicator agrees with opacity and
// the two-year increase threshold.
func validateHousing(t *domain.Table) *phase {
	p := &phase{name: "Housing indicator consistency"}
	if !checkHeader(p, t, domain.HousingColumns) {
		return p
	}

	for i, row := range t.Rows {
		line := i + 2
		checkKey(p, line, "FIPS", t.Value(row, "FIPS"))

		ind := t.Value(row, "house_pov_ind")
		opacity := t.Value(row, "opacity")
		switch ind {
		case "True":
			if opacity != "1.0" {
				p.errorf("line %d: flagged county has opacity %s", line, opacity)
			}
			inc, err := optionalFloat(t.Value(row, "2021_2yr_increase"))
			switch {
			case err != nil:
				p.errorf("line %d: 2021_2yr_increase: %v", line, err)
			case inc == nil:
				p.errorf("line %d: flagged county has no two-year increase", line)
			case *inc < 25:
				p.errorf("line %d: flagged county increase %v below 25", line, *inc)
			}
		case "False":
			if opacity != "0.2" {
				p.errorf("line %d: unflagged county has opacity %s", line, opacity)
			}
		default:
			p.errorf("line %d: house_pov_ind %q is not True/False", line, ind)
		}

		for _, col := range []string{"2021_average", "2020_average", "2019_average", "med_inc", "pov_rate"} {
			if _, err := optionalFloat(t.Value(row, col)); err != nil {
				p.errorf("line %d: %s: %v", line, col, err)
			}
		}
	}
	return p
}

// validateRace checks that each county has every category once and that its
// shares sum to one.
func validateRace(t *domain.Table) *phase {
	p := &phase{name: "Race shares per county"}
	if !checkHeader(p, t, domain.RaceColumns) {
		return p
	}

	labels := make(map[string]bool, len(domain.RaceCategories))
	for _, c := range domain.RaceCategories {
		labels[c.Label()] = true
	}

	type county struct {
		firstLine int
		sum       float64
		seen      map[string]bool
	}
	counties := make(map[string]*county)
	var order []string

	for i, row := range t.Rows {
		line := i + 2
		fips := t.Value(row, "fips")
		checkKey(p, line, "fips", fips)

		label := t.Value(row, "race")
		if !labels[label] {
			p.errorf("line %d: unknown race %q", line, label)
			continue
		}
		share, err := strconv.ParseFloat(t.Value(row, "perc_total"), 64)
		if err != nil || math.IsNaN(share) || share < 0 || share > 1 {
			p.errorf("line %d: perc_total %q is not a share in [0, 1]", line, t.Value(row, "perc_total"))
			continue
		}

		c, ok := counties[fips]
		if !ok {
			c = &county{firstLine: line, seen: make(map[string]bool)}
			counties[fips] = c
			order = append(order, fips)
		}
		if c.seen[label] {
			p.errorf("line %d: county %s repeats %s", line, fips, label)
		}
		c.seen[label] = true
		c.sum += share
	}

	for _, fips := range order {
		c := counties[fips]
		if len(c.seen) != len(domain.RaceCategories) {
			p.errorf("county %s (line %d): %d of %d categories", fips, c.firstLine, len(c.seen), len(domain.RaceCategories))
		}
		if math.Abs(c.sum-1) > shareTolerance {
			p.errorf("county %s (line %d): shares sum to %v", fips, c.firstLine, c.sum)
		}
	}
	return p
}

// validateMobility checks dates, keys, and metric values.
func validateMobility(t *domain.Table) *phase {
	p := &phase{name: "Mobility dates and keys"}
	if !checkHeader(p, t, domain.MobilityColumns) {
		return p
	}

	for i, row := range t.Rows {
		line := i + 2
		if _, err := time.Parse(domain.MobilityDateLayout, t.Value(row, "date")); err != nil {
			p.errorf("line %d: date %q: %v", line, t.Value(row, "date"), err)
		}
		checkKey(p, line, "countyfips", t.Value(row, "countyfips"))
		for _, col := range domain.MobilityColumns[2:] {
			if _, err := optionalFloat(t.Value(row, col)); err != nil {
				p.errorf("line %d: %s: %v", line, col, err)
			}
		}
	}
	return p
}
