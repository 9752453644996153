// Package fetch downloads the monthly ANP survey files into the local cache.
//
// The loop is sequential and makes at most one request per target. A target whose
// locator already exists is never fetched again; absent or failed targets are logged
// and left for the next run.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/anp-fuel-report/internal/fuel"
	"github.com/JakeFAU/anp-fuel-report/internal/metrics"
)

// Failure records one target that could not be downloaded this run.
type Failure struct {
	Target fuel.Target
	Err    error
}

// Summary counts the outcome of every target in a batch.
type Summary struct {
	Targets    int
	Cached     int
	Downloaded int
	Absent     int
	Failed     int
	Bytes      int64
	Failures   []Failure
}

func (s Summary) processed() int {
	return s.Cached + s.Downloaded + s.Absent + s.Failed
}

// Targets expands years × months 1..12 × products into fetch targets, in that loop order.
func Targets(baseURL string, years []int, products []fuel.Product) []fuel.Target {
	base := strings.TrimRight(baseURL, "/")
	targets := make([]fuel.Target, 0, len(years)*12*len(products))
	for _, year := range years {
		for month := 1; month <= 12; month++ {
			for _, product := range products {
				targets = append(targets, fuel.Target{
					Year:      year,
					Month:     month,
					Product:   product,
					RemoteURL: fmt.Sprintf("%s/%d/%s-%02d.csv", base, year, product.Prefix, month),
					Locator:   path.Join(product.Dir, fmt.Sprintf("%s-%d-%02d.csv", product.Prefix, year, month)),
				})
			}
		}
	}
	return targets
}

// Fetcher fills the cache from the remote publisher.
type Fetcher struct {
	baseURL    string
	cache      fuel.Cache
	downloader fuel.Downloader
	logger     *zap.Logger
	now        func() time.Time
}

// New constructs a Fetcher.
func New(baseURL string, cache fuel.Cache, downloader fuel.Downloader, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		baseURL:    baseURL,
		cache:      cache,
		downloader: downloader,
		logger:     logger,
		now:        time.Now,
	}
}

// FetchAll processes every target for products and years.
// Download failures never abort the batch; a cache error does, since the cache is the host filesystem.
func (f *Fetcher) FetchAll(ctx context.Context, products []fuel.Product, years []int) (Summary, error) {
	targets := Targets(f.baseURL, years, products)
	summary := Summary{Targets: len(targets)}
	f.logger.Info("fetch started", zap.Int("targets", len(targets)))

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			f.logger.Warn("fetch interrupted", zap.Int("remaining", summary.Targets-summary.processed()))
			return summary, fmt.Errorf("fetch interrupted: %w", err)
		}
		if err := f.fetchOne(ctx, target, &summary); err != nil {
			return summary, err
		}
	}

	f.logger.Info("fetch finished",
		zap.Int("cached", summary.Cached),
		zap.Int("downloaded", summary.Downloaded),
		zap.Int("absent", summary.Absent),
		zap.Int("failed", summary.Failed),
		zap.Int64("bytes", summary.Bytes),
	)
	return summary, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, target fuel.Target, summary *Summary) error {
	log := f.logger.With(zap.String("url", target.RemoteURL), zap.String("locator", target.Locator))

	exists, err := f.cache.Exists(ctx, target.Locator)
	if err != nil {
		return fmt.Errorf("check cache for %s: %w", target.Locator, err)
	}
	if exists {
		summary.Cached++
		metrics.ObserveFetch(target.Product.Prefix, metrics.OutcomeCached, 0, 0)
		log.Debug("file already cached")
		return nil
	}

	start := f.now()
	body, err := f.downloader.Download(ctx, target.RemoteURL)
	elapsed := f.now().Sub(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("download %s: %w", target.RemoteURL, ctxErr)
		}
		if errors.Is(err, fuel.ErrResourceAbsent) {
			summary.Absent++
			metrics.ObserveFetch(target.Product.Prefix, metrics.OutcomeAbsent, 0, elapsed)
			log.Info("file not published for period")
			return nil
		}
		summary.Failed++
		summary.Failures = append(summary.Failures, Failure{Target: target, Err: err})
		metrics.ObserveFetch(target.Product.Prefix, metrics.OutcomeFailed, 0, elapsed)
		fields := []zap.Field{zap.Error(err)}
		var te *fuel.TransferError
		if errors.As(err, &te) && te.StatusCode > 0 {
			fields = append(fields, zap.Int("status", te.StatusCode))
		}
		log.Error("download failed", fields...)
		return nil
	}

	if err := f.cache.Write(ctx, target.Locator, body); err != nil {
		return fmt.Errorf("store %s: %w", target.Locator, err)
	}
	summary.Downloaded++
	summary.Bytes += int64(len(body))
	metrics.ObserveFetch(target.Product.Prefix, metrics.OutcomeDownloaded, len(body), elapsed)
	sum := sha256.Sum256(body)
	log.Info("file saved",
		zap.Int("bytes", len(body)),
		zap.String("sha256", hex.EncodeToString(sum[:])),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}
