package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var populationHeader = []string{
	"SUMLEV", "REGION", "DIVISION", "STATE", "COUNTY", "STNAME", "CTYNAME",
	"ESTIMATESBASE2010", "POPESTIMATE042020", "POPESTIMATE2019", "POPESTIMATE2020",
}

func TestCleanPopulation(t *testing.T) {
	tbl := NewTable("population", populationHeader, [][]string{
		{"040", "3", "6", "1", "0", "Alabama", "Alabama", "4779736", "5024279", "4903185", "4921532"},
		{"050", "3", "6", "1", "1", "Alabama", "Autauga County", "54571", "58805", "55869", "56145"},
		{"050", "4", "9", "6", "37", "California", "Los Angeles County", "9818605", "10014009", "10039107", ""},
	})

	records, rep, err := CleanPopulation(tbl)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, CountyKey("01000"), records[0].Key)
	assert.Equal(t, CountyKey("01001"), records[1].Key)
	assert.Equal(t, losAngelesKey, records[2].Key)

	pop, ok := records[1].Estimate(2020)
	require.True(t, ok)
	assert.Equal(t, int64(56145), pop)
	pop, ok = records[1].Estimate(2019)
	require.True(t, ok)
	assert.Equal(t, int64(55869), pop)

	_, ok = records[2].Estimate(2020)
	assert.False(t, ok, "empty estimate should be absent")

	// POPESTIMATE042020 is the April base, not a yearly estimate.
	assert.Len(t, records[1].Estimates, 2)
	assert.Equal(t, 3, rep.Kept)
}

func TestCleanPopulation_MalformedKeyExcluded(t *testing.T) {
	tbl := NewTable("population", populationHeader, [][]string{
		{"050", "3", "6", "", "1", "Nowhere", "Nowhere County", "1", "1", "1", "1"},
		{"050", "3", "6", "1", "1", "Alabama", "Autauga County", "1", "1", "1", "1"},
		{"050", "3", "6", "01", "001", "Alabama", "Autauga County", "2", "2", "2", "2"},
	})

	records, rep, err := CleanPopulation(tbl)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, rep.Excluded[ReasonMalformedKey])
	assert.Equal(t, 1, rep.Excluded[ReasonDuplicateKey])
}

func TestCleanPopulation_InvalidEstimate(t *testing.T) {
	tbl := NewTable("population", populationHeader, [][]string{
		{"050", "3", "6", "1", "1", "Alabama", "Autauga County", "1", "1", "1", "many"},
	})

	_, _, err := CleanPopulation(tbl)
	assert.ErrorIs(t, err, ErrInvalidMetric)
}

func TestCleanPopulation_SchemaMismatch(t *testing.T) {
	_, _, err := CleanPopulation(NewTable("population", []string{"STATE", "COUNTY", "CTYNAME"}, nil))
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, _, err = CleanPopulation(NewTable("population", []string{"STATE", "POPESTIMATE2020"}, nil))
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}
