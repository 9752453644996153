package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/anp-fuel-report/internal/fuel"
)

// dateLayout is day/month/four-digit-year; leading zeros are optional.
const dateLayout = "2/1/2006"

// knownProducts is the allow-list applied to the combined gasoline/ethanol files.
var knownProducts = map[string]bool{
	fuel.ProductGasoline: true,
	fuel.ProductEthanol:  true,
}

// Clean coerces raw rows and drops every row that is not usable.
// A row survives only when value, date, product and state are all present; with
// filterKnown it must also be GASOLINA or ETANOL. Drops are counted by the first
// failing reason. Files is left to the caller.
func Clean(raw []fuel.RawRecord, filterKnown bool) ([]fuel.Record, fuel.CleanStats) {
	stats := fuel.CleanStats{
		Rows:    len(raw),
		Dropped: make(map[string]int),
	}
	records := make([]fuel.Record, 0, len(raw))

	for _, row := range raw {
		record, reason := coerce(row)
		if reason == "" && filterKnown && !knownProducts[record.Product] {
			reason = fuel.DropUnknownProduct
		}
		if reason != "" {
			stats.Dropped[reason]++
			continue
		}
		records = append(records, record)
	}

	stats.Kept = len(records)
	return records, stats
}

func coerce(row fuel.RawRecord) (fuel.Record, string) {
	value, ok := ParseValue(row.SaleValue)
	if !ok {
		return fuel.Record{}, fuel.DropInvalidValue
	}
	date, ok := ParseDate(row.CollectedOn)
	if !ok {
		return fuel.Record{}, fuel.DropInvalidDate
	}
	// Product is kept verbatim: the allow-list match is exact and case-sensitive.
	product := row.Product
	if strings.TrimSpace(product) == "" {
		return fuel.Record{}, fuel.DropMissingProduct
	}
	state := strings.TrimSpace(row.State)
	if state == "" {
		return fuel.Record{}, fuel.DropMissingState
	}
	return fuel.Record{
		Region:       strings.TrimSpace(row.Region),
		State:        state,
		Municipality: strings.TrimSpace(row.Municipality),
		Product:      product,
		Date:         date,
		Value:        value,
	}, ""
}

// ParseValue converts a comma-decimal string such as "5,479" into 5.479.
// Every comma becomes a period before parsing, so "1.234,56" is rejected.
func ParseValue(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseDate converts "15/03/2024" into 2024-03-15 UTC. Any other order is rejected.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
