// Command genmock writes a deterministic synthetic set of raw county inputs
// (Zillow home values, crosswalk, population, race, mobility) plus a census
// SAIPE response body, shaped like the real extracts, for local runs of the
// ETL without network access to the upstream sources.
//
// Usage:
//
//	go run ./cmd/genmock -out raw -counties 200 -year 2020
//
// Serve the generated saipe_<year>.json from any static server and point
// CENSUS_API_URL at it.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/county-data-etl/internal/domain"
	"github.com/goccy/go-json"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// county is one synthetic county shared by every generated file.
type county struct {
	regionID string
	state    int
	code     int
	name     string
	stName   string
	homeBase float64
	growth   [3]float64
	income   float64
	poverty  float64
	pop      [2]int64
	race     [7]int64
}

// maxCounties keeps every generated county code within three digits.
const maxCounties = 1000

var states = []struct {
	fips int
	abbr string
	name string
}{
	{1, "AL", "Alabama"},
	{6, "CA", "California"},
	{35, "NM", "New Mexico"},
	{48, "TX", "Texas"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "raw", "output directory for the generated files")
	n := flag.Int("counties", 200, "number of counties to generate")
	year := flag.Int("year", 2020, "SAIPE data year")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *n < 1 || *n > maxCounties {
		flag.Usage()
		return fmt.Errorf("-counties must be between 1 and %d", maxCounties)
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	counties := generate(*n, rand.New(rand.NewPCG(*seed, *seed)))
	if err := writeAll(*outDir, counties, *year); err != nil {
		return err
	}

	fmt.Printf("Wrote %d counties to %s\n", len(counties), *outDir)
	return nil
}

// writeAll writes every raw input file for counties into dir.
func writeAll(dir string, counties []county, year int) error {
	files := []struct {
		name   string
		latin1 bool
		write  func(io.Writer, []county) error
	}{
		{"zillow_home_value_index_county.csv", false, writeHousing},
		{"CountyCrossWalk_Zillow.csv", true, writeCrosswalk},
		{"county_population.csv", true, writePopulation},
		{"race_by_county.csv", false, writeRace},
		{"google_mobility_county.csv", false, writeMobility},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.latin1, func(w io.Writer) error {
			return f.write(w, counties)
		}); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}

	saipe := filepath.Join(dir, fmt.Sprintf("saipe_%d.json", year))
	if err := writeFile(saipe, false, func(w io.Writer) error {
		return writeSAIPE(w, counties, year)
	}); err != nil {
		return fmt.Errorf("%s: %w", saipe, err)
	}
	return nil
}

func generate(n int, rng *rand.Rand) []county {
	out := make([]county, n)
	for i := range out {
		st := states[i%len(states)]
		c := county{
			regionID: strconv.Itoa(1000 + i),
			state:    st.fips,
			code:     2*(i/len(states)) + 1,
			stName:   st.name,
			homeBase: 80000 + rng.Float64()*400000,
			income:   float64(30000 + rng.IntN(70000)),
			poverty:  float64(50+rng.IntN(250)) / 10,
			pop:      [2]int64{int64(1000 + rng.IntN(1000000))},
		}
		c.name = fmt.Sprintf("County %d", i+1)
		if st.fips == 35 && i%8 == 2 {
			c.name = fmt.Sprintf("Doña Ana %d", i+1)
		}
		for y := range c.growth {
			c.growth[y] = 1 + (rng.Float64()*0.3 - 0.05)
		}
		c.pop[1] = c.pop[0] + int64(rng.IntN(2000)) - 1000

		remaining := c.pop[1]
		for k := range c.race[:6] {
			share := remaining * int64(rng.IntN(60)) / 100
			c.race[k] = share
			remaining -= share
		}
		c.race[6] = remaining
		out[i] = c
	}
	return out
}

func (c county) abbr() string {
	for _, s := range states {
		if s.fips == c.state {
			return s.abbr
		}
	}
	return ""
}

// writeFile writes through an optional ISO-8859-1 encoder.
func writeFile(path string, latin1 bool, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if !latin1 {
		if err := write(f); err != nil {
			return err
		}
		return f.Close()
	}

	enc := transform.NewWriter(f, charmap.ISO8859_1.NewEncoder())
	if err := write(enc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	return cw.WriteAll(rows)
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

func writeHousing(w io.Writer, counties []county) error {
	months := domain.MonthLabels(domain.HousingFirstYear, domain.HousingLastYear)
	header := append([]string{"RegionID", "SizeRank", "RegionName", "RegionType", "StateName", "State", "Metro", "StateCodeFIPS", "MunicipalCodeFIPS"}, months...)

	rows := make([][]string, 0, len(counties))
	for i, c := range counties {
		row := []string{c.regionID, strconv.Itoa(i), c.name, "county", c.stName, c.abbr(), "", strconv.Itoa(c.state), strconv.Itoa(c.code)}
		value := c.homeBase
		for m := range months {
			value *= 1 + (c.growth[m/12]-1)/12
			cell := money(value)
			if i%17 == 5 && m < 12 {
				cell = "" // a county missing its first year
			}
			row = append(row, cell)
		}
		rows = append(rows, row)
	}
	return writeCSV(w, header, rows)
}

func writeCrosswalk(w io.Writer, counties []county) error {
	rows := make([][]string, 0, len(counties))
	for _, c := range counties {
		// FIPS without leading zeros, as in the real file.
		fips := strconv.Itoa(c.state*1000 + c.code)
		rows = append(rows, []string{c.name, c.stName, strconv.Itoa(c.state), strconv.Itoa(c.code), c.regionID, fips})
	}
	return writeCSV(w, []string{"CountyName", "StateName", "StateFIPS", "CountyFIPS", "CountyRegionID_Zillow", "FIPS"}, rows)
}

func writePopulation(w io.Writer, counties []county) error {
	rows := make([][]string, 0, len(counties))
	for _, c := range counties {
		rows = append(rows, []string{
			"50", fmt.Sprintf("%02d", c.state), fmt.Sprintf("%03d", c.code), c.stName, c.name,
			strconv.FormatInt(c.pop[0], 10), strconv.FormatInt(c.pop[1], 10),
		})
	}
	return writeCSV(w, []string{"SUMLEV", "STATE", "COUNTY", "STNAME", "CTYNAME", "POPESTIMATE2019", "POPESTIMATE2020"}, rows)
}

func writeRace(w io.Writer, counties []county) error {
	header := []string{"GEO_ID", "NAME", "B02001_001E"}
	meta := []string{"id", "Geographic Area Name", "Estimate!!Total:"}
	for k := range domain.RaceCategories {
		header = append(header, fmt.Sprintf("B02001_%03dE", k+2))
		meta = append(meta, "Estimate!!Total:!!"+string(domain.RaceCategories[k]))
	}

	rows := [][]string{meta}
	for _, c := range counties {
		row := []string{
			fmt.Sprintf("0500000US%02d%03d", c.state, c.code),
			fmt.Sprintf("%s, %s", c.name, c.stName),
			strconv.FormatInt(c.pop[1], 10),
		}
		for _, v := range c.race {
			row = append(row, strconv.FormatInt(v, 10))
		}
		rows = append(rows, row)
	}
	return writeCSV(w, header, rows)
}

func writeMobility(w io.Writer, counties []county) error {
	start := time.Date(2020, time.February, 24, 0, 0, 0, 0, time.UTC)
	rows := make([][]string, 0, len(counties)*14)
	for i, c := range counties {
		for d := range 14 {
			day := start.AddDate(0, 0, d)
			metric := func(k int) string {
				if (i+d+k)%11 == 0 {
					return "."
				}
				return strconv.FormatFloat(float64((i*7+d*3+k*5)%100-50)/100, 'f', 4, 64)
			}
			rows = append(rows, []string{
				strconv.Itoa(day.Year()), strconv.Itoa(int(day.Month())), strconv.Itoa(day.Day()),
				strconv.Itoa(c.state), strconv.Itoa(c.state*1000 + c.code),
				metric(0), metric(1), metric(2),
			})
		}
	}
	return writeCSV(w, []string{"year", "month", "day", "statefips", "countyfips", "gps_retail_and_recreation", "gps_grocery_and_pharmacy", "gps_parks"}, rows)
}

// writeSAIPE emits the census API shape: a JSON array of string arrays, one
// row per line, with the literal "null" for a suppressed estimate.
func writeSAIPE(w io.Writer, counties []county, year int) error {
	rows := [][]string{{"SAEMHI_PT", "SAEPOVRTALL_PT", "NAME", "time", "state", "county"}}
	for i, c := range counties {
		income := money(c.income)
		if i%23 == 7 {
			income = "null"
		}
		rows = append(rows, []string{
			income,
			strconv.FormatFloat(c.poverty, 'f', 1, 64),
			c.name,
			strconv.Itoa(year),
			fmt.Sprintf("%02d", c.state),
			fmt.Sprintf("%03d", c.code),
		})
	}

	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	for i, row := range rows {
		b, err := json.Marshal(row)
		if err != nil {
			return err
		}
		sep := ",\n"
		if i == len(rows)-1 {
			sep = "]\n"
		}
		if _, err := w.Write(append(b, sep...)); err != nil {
			return err
		}
	}
	return nil
}
