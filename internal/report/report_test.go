package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/anp-fuel-report/internal/fuel"
	"github.com/JakeFAU/anp-fuel-report/internal/storage/memory"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func sampleDatasets() (fuel.Dataset, fuel.Dataset) {
	lpg := fuel.Dataset{Family: "dados_glp"}
	combined := fuel.Dataset{Family: "dados_gasolina_etanol"}
	states := []string{"SP", "RJ", "MG", "BA", "PR", "RS", "AC"}
	for m := time.January; m <= time.March; m++ {
		day := date(2024, m, 10)
		lpg.Records = append(lpg.Records, rec("SP", "GLP", day, 105+float64(m)))
		for i, state := range states {
			gasoline := 5.5 + float64(i)*0.2
			combined.Records = append(combined.Records,
				rec(state, fuel.ProductGasoline, day, gasoline),
				rec(state, fuel.ProductEthanol, day, gasoline*(0.6+float64(i)*0.03)),
			)
		}
	}
	return lpg, combined
}

func TestGenerateWritesAllCharts(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	reporter := NewReporter(store, Options{OutputDir: "graficos", DPI: 40}, zap.NewNop())
	lpg, combined := sampleDatasets()

	artifacts, err := reporter.Generate(context.Background(), lpg, combined)
	require.NoError(t, err)
	require.Len(t, artifacts, 3)

	wantNames := []string{TrendChartName, StateChartName, RatioChartName}
	for i, artifact := range artifacts {
		assert.Equal(t, wantNames[i], artifact.Name)
		assert.Equal(t, "graficos/"+wantNames[i], artifact.Locator)

		data, ok := store.Get(artifact.Locator)
		require.True(t, ok, "missing %s", artifact.Locator)
		assert.True(t, bytes.HasPrefix(data, pngSignature), "%s is not a png", artifact.Name)
		assert.Equal(t, len(data), artifact.Bytes)
	}
}

func TestGenerateHandlesMissingEthanol(t *testing.T) {
	t.Parallel()

	store := memory.NewBlobStore()
	lpg, _ := sampleDatasets()
	gasolineOnly := fuel.Dataset{Records: []fuel.Record{
		rec("SP", fuel.ProductGasoline, date(2024, time.January, 3), 5.9),
	}}

	artifacts, err := NewReporter(store, Options{DPI: 30}, nil).Generate(context.Background(), lpg, gasolineOnly)
	require.NoError(t, err)
	assert.Len(t, artifacts, 3)
	assert.Equal(t, 3, store.Writes())
}

type failingWriter struct{}

func (failingWriter) Write(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestGenerateStopsOnWriteError(t *testing.T) {
	t.Parallel()

	lpg, combined := sampleDatasets()
	artifacts, err := NewReporter(failingWriter{}, Options{OutputDir: "out", DPI: 30}, nil).
		Generate(context.Background(), lpg, combined)
	require.Error(t, err)
	assert.ErrorContains(t, err, "write out/"+TrendChartName)
	assert.Empty(t, artifacts)
}

func TestGenerateHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	lpg, combined := sampleDatasets()
	_, err := NewReporter(memory.NewBlobStore(), Options{DPI: 30}, nil).Generate(ctx, lpg, combined)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteSummary(&buf, []SummaryRow{
		{Family: "dados_glp", Stats: fuel.CleanStats{Files: 2, Rows: 10, Kept: 9, Dropped: map[string]int{fuel.DropInvalidValue: 1}}},
		{Family: "dados_gasolina_etanol", Stats: fuel.CleanStats{Files: 12, Rows: 1500, Kept: 1000, Dropped: map[string]int{
			fuel.DropUnknownProduct: 480,
			fuel.DropInvalidDate:    20,
		}}},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Família")
	assert.True(t, strings.HasPrefix(lines[1], "| ---"))
	assert.Contains(t, lines[3], "| 500 ")

	// Every line has the same display width, accented header included.
	width := len([]rune(lines[0]))
	for _, line := range lines[1:] {
		assert.Equal(t, width, len([]rune(line)), line)
	}
}
