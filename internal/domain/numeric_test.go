package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNullable(t *testing.T) {
	tests := []struct {
		raw     string
		want    *float64
		wantErr bool
	}{
		{raw: "12.5", want: floatPtr(12.5)},
		{raw: " 7 ", want: floatPtr(7)},
		{raw: ""},
		{raw: "."},
		{raw: "abc", wantErr: true},
		{raw: "NaN", wantErr: true},
		{raw: "Inf", wantErr: true},
		{raw: "-Inf", wantErr: true},
		{raw: "infinity", wantErr: true},
		{raw: "1e400", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseNullable(tt.raw, ".")
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMetric)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeHousingMetrics_RejectsInfinitePrice(t *testing.T) {
	months := MonthLabels(HousingFirstYear, HousingLastYear)
	columns := append([]string{"RegionID", "SizeRank", "RegionName", "State", "Metro"}, months...)
	row := []string{"1", "1", "Alpha County", "AL", ""}
	for range months {
		row = append(row, "100")
	}
	row[5] = "Inf"

	_, err := ComputeHousingMetrics(NewTable("housing", columns, [][]string{row}))
	require.ErrorIs(t, err, ErrInvalidMetric)
}
