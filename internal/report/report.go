// Package report aggregates clean datasets and renders the chart artifacts.
package report

import (
	"context"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/anp-fuel-report/internal/fuel"
	"github.com/JakeFAU/anp-fuel-report/internal/metrics"
)

// Artifact file names, written under Options.OutputDir.
const (
	TrendChartName = "1_evolucao_precos_mensal.png"
	StateChartName = "2_comparativo_estados_gasolina.png"
	RatioChartName = "3_relacao_etanol_gasolina.png"
)

// Writer persists rendered artifacts.
type Writer interface {
	Write(ctx context.Context, locator string, data []byte) error
}

// Options tune chart output.
type Options struct {
	OutputDir string
	DPI       int
	TopN      int
	Parity    float64
}

// Artifact describes one written chart.
type Artifact struct {
	Name    string
	Locator string
	Bytes   int
}

// Reporter renders the chart set from the LPG and gasoline/ethanol datasets.
type Reporter struct {
	writer Writer
	opts   Options
	logger *zap.Logger
}

// NewReporter constructs a Reporter.
func NewReporter(writer Writer, opts Options, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.DPI <= 0 {
		opts.DPI = 300
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	if opts.Parity <= 0 {
		opts.Parity = 0.7
	}
	return &Reporter{writer: writer, opts: opts, logger: logger}
}

// Generate renders and writes the three charts in order. The first failure stops the run.
func (r *Reporter) Generate(ctx context.Context, lpg, combined fuel.Dataset) ([]Artifact, error) {
	steps := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{TrendChartName, func() ([]byte, error) { return r.trend(lpg, combined) }},
		{StateChartName, func() ([]byte, error) { return r.states(combined) }},
		{RatioChartName, func() ([]byte, error) { return r.ratios(combined) }},
	}

	artifacts := make([]Artifact, 0, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return artifacts, err
		}
		start := time.Now()
		data, err := step.render()
		if err != nil {
			return artifacts, fmt.Errorf("render %s: %w", step.name, err)
		}
		locator := path.Join(r.opts.OutputDir, step.name)
		if err := r.writer.Write(ctx, locator, data); err != nil {
			return artifacts, fmt.Errorf("write %s: %w", locator, err)
		}
		metrics.ObserveArtifact()
		r.logger.Info("chart written",
			zap.String("locator", locator),
			zap.Int("bytes", len(data)),
			zap.Duration("elapsed", time.Since(start)),
		)
		artifacts = append(artifacts, Artifact{Name: step.name, Locator: locator, Bytes: len(data)})
	}
	return artifacts, nil
}

func (r *Reporter) trend(lpg, combined fuel.Dataset) ([]byte, error) {
	series := []Series{
		{Label: "Gasolina Comum", Points: MonthlyMeans(combined.Records, fuel.ProductGasoline), Color: colorGasoline},
		{Label: "Etanol", Points: MonthlyMeans(combined.Records, fuel.ProductEthanol), Color: colorEthanol},
		{Label: "GLP (Botijão 13kg)", Points: MonthlyMeans(lpg.Records, ""), Color: colorLPG, Dashed: true},
	}
	return TrendChart("Evolução do Preço Médio Mensal dos Combustíveis", series, r.opts.DPI)
}

func (r *Reporter) states(combined fuel.Dataset) ([]byte, error) {
	means := StateMeans(combined.Records, fuel.ProductGasoline)
	cheapest, priciest := Extremes(means, r.opts.TopN)
	return StateChart("Gasolina", priciest, cheapest, r.opts.DPI)
}

func (r *Reporter) ratios(combined fuel.Dataset) ([]byte, error) {
	ratios := EthanolRatios(combined.Records, r.opts.Parity)
	favorable := 0
	for _, ratio := range ratios {
		if ratio.Favorable {
			favorable++
		}
	}
	r.logger.Info("ethanol parity computed",
		zap.Int("states", len(ratios)),
		zap.Int("favorable", favorable),
		zap.Float64("parity", r.opts.Parity),
	)
	return RatioChart(ratios, r.opts.Parity, r.opts.DPI)
}
