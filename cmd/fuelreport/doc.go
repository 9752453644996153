// Package main hosts the fuelreport batch entrypoint.
//
// A run is a single sequential pass:
//   - Fetch: for every configured year, month and product family the monthly ANP survey file is
//     downloaded once through the Colly-based downloader and cached under {dir}/{prefix}-{year}-{MM}.csv.
//     Cached files are never fetched again; 404s and transfer failures are logged and skipped.
//   - Normalize: every cached .csv of a family is decoded from Latin-1, split on ';' and coerced
//     (comma decimals, dd/mm/yyyy dates). Rows missing value, date, product or state are dropped and counted.
//   - Report: when both families have data, three PNG charts are rendered with gonum/plot into the
//     output directory. Otherwise the report is skipped with a warning.
//
// Storage is the local filesystem by default, or a GCS bucket with storage.backend=gcs.
// Configuration comes from built-in defaults, an optional -config file, a .env file and
// FUELREPORT_* environment variables. Run metrics are pushed to a Prometheus Pushgateway
// when metrics.pushgateway_url is set.
//
// The process exits 1 only on host-level failures such as an unwritable store or bad configuration.
//
// Run locally: go run ./cmd/fuelreport
package main
