// Package normalize turns the publisher's raw CSV files into clean datasets.
package normalize

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/JakeFAU/anp-fuel-report/internal/fuel"
	"github.com/JakeFAU/anp-fuel-report/internal/metrics"
)

// Column headers used by the publisher.
const (
	ColumnRegion       = "Regiao - Sigla"
	ColumnState        = "Estado - Sigla"
	ColumnMunicipality = "Municipio"
	ColumnProduct      = "Produto"
	ColumnDate         = "Data da Coleta"
	ColumnValue        = "Valor de Venda"
	ColumnUnit         = "Unidade de Medida"
)

const (
	fieldDelimiter = ';'
	fileExtension  = ".csv"
)

// Loader reads every file of one product family from a source.
type Loader struct {
	source fuel.Source
	logger *zap.Logger
}

// NewLoader constructs a Loader.
func NewLoader(source fuel.Source, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{source: source, logger: logger}
}

// Load concatenates and cleans every .csv directly under dir.
// No files yields an empty dataset and a nil error; callers must check Empty.
func (l *Loader) Load(ctx context.Context, dir string, filterKnown bool) (fuel.Dataset, fuel.CleanStats, error) {
	dataset := fuel.Dataset{Family: dir}
	stats := fuel.CleanStats{Dropped: make(map[string]int)}
	log := l.logger.With(zap.String("dir", dir))

	locators, err := l.source.List(ctx, dir, fileExtension)
	if err != nil {
		return dataset, stats, fmt.Errorf("list %s: %w", dir, err)
	}
	if len(locators) == 0 {
		log.Warn("no csv files found")
		return dataset, stats, nil
	}

	log.Info("loading files", zap.Int("files", len(locators)), zap.Bool("filter_known_products", filterKnown))
	for _, locator := range locators {
		raw, err := l.readFile(ctx, locator)
		if err != nil {
			return dataset, stats, err
		}
		records, fileStats := Clean(raw, filterKnown)
		fileStats.Files = 1
		stats.Merge(fileStats)
		dataset.Records = append(dataset.Records, records...)
		log.Debug("file cleaned",
			zap.String("locator", locator),
			zap.Int("rows", fileStats.Rows),
			zap.Int("kept", fileStats.Kept),
		)
	}

	metrics.ObserveRows(dir, "kept", stats.Kept)
	for reason, n := range stats.Dropped {
		metrics.ObserveRows(dir, reason, n)
	}
	log.Info("dataset loaded",
		zap.Int("files", stats.Files),
		zap.Int("rows", stats.Rows),
		zap.Int("kept", stats.Kept),
		zap.Int("dropped", stats.DroppedTotal()),
		zap.Any("dropped_by_reason", stats.Dropped),
	)
	return dataset, stats, nil
}

func (l *Loader) readFile(ctx context.Context, locator string) ([]fuel.RawRecord, error) {
	rc, err := l.source.Open(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", locator, err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			l.logger.Warn("failed to close file", zap.String("locator", locator), zap.Error(cerr))
		}
	}()

	raw, err := ParseRaw(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", locator, err)
	}
	return raw, nil
}

// ParseRaw decodes a Latin-1, semicolon-delimited file with a header row into raw records.
func ParseRaw(r io.Reader) ([]fuel.RawRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	text, err := decode(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = fieldDelimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)

	var rows []fuel.RawRecord
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, fuel.RawRecord{
			Region:       cols.get(fields, ColumnRegion),
			State:        cols.get(fields, ColumnState),
			Municipality: cols.get(fields, ColumnMunicipality),
			Product:      cols.get(fields, ColumnProduct),
			CollectedOn:  cols.get(fields, ColumnDate),
			SaleValue:    cols.get(fields, ColumnValue),
			Unit:         cols.get(fields, ColumnUnit),
		})
	}
	return rows, nil
}

func decode(data []byte) (string, error) {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode latin-1: %w", err)
	}
	return string(decoded), nil
}

type columnIndex map[string]int

func indexColumns(header []string) columnIndex {
	cols := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

// get returns the named field, or "" when the column or the field is missing.
func (c columnIndex) get(fields []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return fields[i]
}
