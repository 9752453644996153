package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/anp-fuel-report/internal/fuel"
)

func TestParseValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"5,479", 5.479, true},
		{" 110,5 ", 110.5, true},
		{"6", 6, true},
		{"6.19", 6.19, true},
		{"1.234,56", 0, false},
		{"", 0, false},
		{"R$ 5,00", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseValue(tt.raw)
		assert.Equal(t, tt.ok, ok, "ParseValue(%q)", tt.raw)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "ParseValue(%q)", tt.raw)
		}
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	got, ok := ParseDate("15/03/2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), got)

	got, ok = ParseDate("5/3/2024")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), got)

	for _, raw := range []string{"2024-03-15", "03/15/2024", "31/02/2024", "15/03/24", ""} {
		_, ok := ParseDate(raw)
		assert.False(t, ok, "ParseDate(%q) should fail", raw)
	}
}

func TestCleanAdmission(t *testing.T) {
	t.Parallel()

	valid := fuel.RawRecord{State: "SP", Region: "SE", Product: "GASOLINA", CollectedOn: "15/03/2024", SaleValue: "5,479"}
	raw := []fuel.RawRecord{
		valid,
		{State: "SP", Product: "GASOLINA", CollectedOn: "15/03/2024", SaleValue: "abc"},
		{State: "SP", Product: "GASOLINA", CollectedOn: "2024-03-15", SaleValue: "5,00"},
		{State: "SP", Product: " ", CollectedOn: "15/03/2024", SaleValue: "5,00"},
		{State: "", Product: "ETANOL", CollectedOn: "15/03/2024", SaleValue: "3,90"},
	}

	records, stats := Clean(raw, false)

	require.Len(t, records, 1)
	assert.Equal(t, fuel.Record{
		Region:  "SE",
		State:   "SP",
		Product: "GASOLINA",
		Date:    time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		Value:   5.479,
	}, records[0])
	assert.Equal(t, 5, stats.Rows)
	assert.Equal(t, 1, stats.Kept)
	assert.Equal(t, map[string]int{
		fuel.DropInvalidValue:   1,
		fuel.DropInvalidDate:    1,
		fuel.DropMissingProduct: 1,
		fuel.DropMissingState:   1,
	}, stats.Dropped)
}

func TestCleanFiltersKnownProducts(t *testing.T) {
	t.Parallel()

	raw := []fuel.RawRecord{
		{State: "RJ", Product: "GASOLINA", CollectedOn: "01/02/2024", SaleValue: "5,99"},
		{State: "RJ", Product: "ETANOL", CollectedOn: "01/02/2024", SaleValue: "4,19"},
		{State: "RJ", Product: "DIESEL", CollectedOn: "01/02/2024", SaleValue: "6,09"},
		{State: "RJ", Product: "GASOLINA ADITIVADA", CollectedOn: "01/02/2024", SaleValue: "6,29"},
		{State: "RJ", Product: "etanol", CollectedOn: "01/02/2024", SaleValue: "4,10"},
		{State: "RJ", Product: " GASOLINA", CollectedOn: "01/02/2024", SaleValue: "5,98"},
		{State: "RJ", Product: "ETANOL ", CollectedOn: "01/02/2024", SaleValue: "4,18"},
	}

	filtered, stats := Clean(raw, true)
	require.Len(t, filtered, 2)
	assert.Equal(t, "GASOLINA", filtered[0].Product)
	assert.Equal(t, "ETANOL", filtered[1].Product)
	assert.Equal(t, 5, stats.Dropped[fuel.DropUnknownProduct])

	unfiltered, stats := Clean(raw, false)
	require.Len(t, unfiltered, 7)
	assert.Equal(t, " GASOLINA", unfiltered[5].Product)
	assert.Zero(t, stats.DroppedTotal())
}

func TestCleanEmpty(t *testing.T) {
	t.Parallel()

	records, stats := Clean(nil, true)
	assert.Empty(t, records)
	assert.Zero(t, stats.Rows)
	assert.Zero(t, stats.Kept)
}
