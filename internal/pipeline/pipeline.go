// Package pipeline runs one report: fetch, load both product families, then chart or skip.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/anp-fuel-report/internal/config"
	"github.com/JakeFAU/anp-fuel-report/internal/fetch"
	"github.com/JakeFAU/anp-fuel-report/internal/fuel"
	"github.com/JakeFAU/anp-fuel-report/internal/normalize"
	"github.com/JakeFAU/anp-fuel-report/internal/report"
)

// Result summarizes a finished run.
type Result struct {
	RunID     string
	Fetch     fetch.Summary
	LPG       fuel.CleanStats
	Combined  fuel.CleanStats
	Artifacts []report.Artifact
	Skipped   bool
	Elapsed   time.Duration
}

// SummaryRows returns the per-family stats in report order.
func (r Result) SummaryRows(cfg config.Config) []report.SummaryRow {
	return []report.SummaryRow{
		{Family: cfg.Products.LPG.Dir, Stats: r.LPG},
		{Family: cfg.Products.GasolineEthanol.Dir, Stats: r.Combined},
	}
}

// Pipeline holds the collaborators of a run. The config is read-only.
type Pipeline struct {
	cfg        config.Config
	store      fuel.Store
	downloader fuel.Downloader
	ids        fuel.IDGenerator
	logger     *zap.Logger
}

// New constructs a Pipeline.
func New(cfg config.Config, store fuel.Store, downloader fuel.Downloader, ids fuel.IDGenerator, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		store:      store,
		downloader: downloader,
		ids:        ids,
		logger:     logger,
	}
}

// Run executes the batch. Missing data is a normal completion with Skipped set;
// only host-level failures (storage, rendering, cancellation) are returned as errors.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	runID, err := p.ids.NewID()
	if err != nil {
		return Result{}, fmt.Errorf("run id: %w", err)
	}
	result := Result{RunID: runID}
	log := p.logger.With(zap.String("run_id", runID))
	log.Info("run started",
		zap.Ints("years", p.cfg.Source.Years),
		zap.String("base_url", p.cfg.Source.BaseURL),
	)

	fetcher := fetch.New(p.cfg.Source.BaseURL, p.store, p.downloader, log.Named("fetch"))
	result.Fetch, err = fetcher.FetchAll(ctx, p.cfg.Products.All(), p.cfg.Source.Years)
	if err != nil {
		return result, fmt.Errorf("fetch: %w", err)
	}

	loader := normalize.NewLoader(p.store, log.Named("normalize"))
	lpgProduct := p.cfg.Products.LPG
	lpg, lpgStats, err := loader.Load(ctx, lpgProduct.Dir, lpgProduct.FilterKnownProducts)
	result.LPG = lpgStats
	if err != nil {
		return result, fmt.Errorf("load %s: %w", lpgProduct.Name, err)
	}
	combinedProduct := p.cfg.Products.GasolineEthanol
	combined, combinedStats, err := loader.Load(ctx, combinedProduct.Dir, combinedProduct.FilterKnownProducts)
	result.Combined = combinedStats
	if err != nil {
		return result, fmt.Errorf("load %s: %w", combinedProduct.Name, err)
	}

	if lpg.Empty() || combined.Empty() {
		result.Skipped = true
		result.Elapsed = time.Since(start)
		log.Warn("report skipped: no data",
			zap.Int("lpg_records", lpg.Len()),
			zap.Int("gasoline_ethanol_records", combined.Len()),
		)
		return result, nil
	}

	reporter := report.NewReporter(p.store, report.Options{
		OutputDir: p.cfg.Report.OutputDir,
		DPI:       p.cfg.Report.DPI,
		TopN:      p.cfg.Report.TopN,
		Parity:    p.cfg.Report.Parity,
	}, log.Named("report"))
	result.Artifacts, err = reporter.Generate(ctx, lpg, combined)
	if err != nil {
		return result, fmt.Errorf("report: %w", err)
	}

	result.Elapsed = time.Since(start)
	log.Info("run finished",
		zap.Int("artifacts", len(result.Artifacts)),
		zap.Int("fetch_failures", result.Fetch.Failed),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}
