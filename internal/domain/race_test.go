package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raceHeader() []string {
	cols := []string{"GEO_ID", "NAME"}
	for i := 1; i <= 10; i++ {
		cols = append(cols, fmt.Sprintf("B02001_%03dE", i), fmt.Sprintf("B02001_%03dM", i))
	}
	return cols
}

// raceRow builds a row from up to ten estimates; margins are filled with a
// dummy value and unspecified estimates are empty.
func raceRow(geoID, name string, estimates ...string) []string {
	row := []string{geoID, name}
	for i := 0; i < 10; i++ {
		e := ""
		if i < len(estimates) {
			e = estimates[i]
		}
		row = append(row, e, "99")
	}
	return row
}

func raceFixture() *Table {
	return NewTable("race", raceHeader(), [][]string{
		raceRow("id", "Geographic Area Name", "Estimate!!Total:", "Estimate!!Total:!!White alone"),
		raceRow("0500000US01001", "Autauga County, Alabama", "100", "70", "20", "1", "2", "0", "3", "4", "1", "3"),
		raceRow("0500000US06037", "Los Angeles County, California", "1000", "500", "80", "13", "150", "", "200", "57"),
		raceRow("0500000US99999", "Empty County", "0", "0", "0", "0", "0", "0", "0", "0"),
		raceRow("", ""),
		raceRow("US1", "Broken County", "10", "10"),
	})
}

func TestCleanRace(t *testing.T) {
	records, rep, err := CleanRace(raceFixture())
	require.NoError(t, err)

	// Two usable counties, seven categories each.
	require.Len(t, records, 14)

	autauga := records[:7]
	for i, c := range RaceCategories {
		assert.Equal(t, CountyKey("01001"), autauga[i].Key)
		assert.Equal(t, "Autauga County, Alabama", autauga[i].CountyName)
		assert.Equal(t, c, autauga[i].Category)
	}
	assert.InDelta(t, 0.70, autauga[0].Percentage, 1e-12)
	assert.InDelta(t, 0.20, autauga[1].Percentage, 1e-12)
	assert.InDelta(t, 0.04, autauga[6].Percentage, 1e-12)

	la := records[7:]
	assert.Equal(t, losAngelesKey, la[0].Key)
	assert.Equal(t, RacePacificIslander, la[4].Category)
	assert.Zero(t, la[4].Percentage, "missing count is zero population")

	assert.Equal(t, 6, rep.Read)
	assert.Equal(t, 2, rep.Kept)
	assert.Equal(t, 1, rep.Excluded[ReasonMetadataRow])
	assert.Equal(t, 1, rep.Excluded[ReasonZeroTotal])
	assert.Equal(t, 1, rep.Excluded[ReasonEmptyRow])
	assert.Equal(t, 1, rep.Excluded[ReasonMalformedKey])
}

func TestCleanRace_PercentagesSumToOne(t *testing.T) {
	records, _, err := CleanRace(raceFixture())
	require.NoError(t, err)

	sums := make(map[CountyKey]float64)
	for _, r := range records {
		sums[r.Key] += r.Percentage
	}
	require.Len(t, sums, 2)
	for key, sum := range sums {
		assert.InDelta(t, 1.0, sum, 1e-9, "county %s", key)
	}
}

func TestCleanRace_ZeroTotalNeverDivided(t *testing.T) {
	records, _, err := CleanRace(raceFixture())
	require.NoError(t, err)

	for _, r := range records {
		assert.NotEqual(t, CountyKey("99999"), r.Key)
	}
}

func TestCleanRace_InvalidMetric(t *testing.T) {
	tbl := NewTable("race", raceHeader(), [][]string{
		raceRow("id", "Geographic Area Name"),
		raceRow("0500000US01001", "Autauga County, Alabama", "100", "seventy"),
	})

	_, _, err := CleanRace(tbl)
	assert.ErrorIs(t, err, ErrInvalidMetric)
}

func TestCleanRace_SchemaMismatch(t *testing.T) {
	tbl := NewTable("race", []string{"GEO_ID", "NAME", "B02001_001E"}, nil)

	_, _, err := CleanRace(tbl)
	require.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "B02001_008E")
}

func TestRaceCategory_Label(t *testing.T) {
	assert.Equal(t, "perc_blk_af_am", RaceBlack.Label())
}
