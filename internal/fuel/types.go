// Package fuel defines the core types shared by the fetch, normalize and report stages.
package fuel

import (
	"errors"
	"fmt"
	"time"
)

// Product names as published by ANP in the "Produto" column.
const (
	ProductGasoline = "GASOLINA"
	ProductEthanol  = "ETANOL"
)

// Drop reasons recorded in CleanStats.Dropped.
const (
	DropInvalidValue   = "invalid_value"
	DropInvalidDate    = "invalid_date"
	DropMissingProduct = "missing_product"
	DropMissingState   = "missing_state"
	DropUnknownProduct = "unknown_product"
)

// ErrResourceAbsent reports that the publisher has no file for a period.
var ErrResourceAbsent = errors.New("remote resource not found")

// TransferError describes any download failure other than an absent resource.
type TransferError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transfer %s failed with status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transfer %s failed: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Product describes one published dataset family and where it is cached.
type Product struct {
	Name                string `mapstructure:"name"`
	Dir                 string `mapstructure:"dir"`
	Prefix              string `mapstructure:"prefix"`
	FilterKnownProducts bool   `mapstructure:"filter_known_products"`
}

// Target is one (year, month, product) file to fetch.
type Target struct {
	Year      int
	Month     int
	Product   Product
	RemoteURL string
	Locator   string
}

// RawRecord is one row as read from a downloaded file. Nothing is validated yet.
type RawRecord struct {
	Region       string
	State        string
	Municipality string
	Product      string
	CollectedOn  string
	SaleValue    string
	Unit         string
}

// Record is a RawRecord that passed coercion. Value, Date, Product and State are always set.
type Record struct {
	Region       string
	State        string
	Municipality string
	Product      string
	Date         time.Time
	Value        float64
}

// Dataset is the concatenation of every clean record for one product family.
type Dataset struct {
	Family  string
	Records []Record
}

// Len returns the number of records.
func (d Dataset) Len() int {
	return len(d.Records)
}

// Empty reports whether there is nothing to report on.
func (d Dataset) Empty() bool {
	return len(d.Records) == 0
}

// CleanStats summarizes what the normalizer read and why rows were dropped.
type CleanStats struct {
	Files   int
	Rows    int
	Kept    int
	Dropped map[string]int
}

// DroppedTotal sums the drop counters.
func (s CleanStats) DroppedTotal() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// Merge adds other into s.
func (s *CleanStats) Merge(other CleanStats) {
	s.Files += other.Files
	s.Rows += other.Rows
	s.Kept += other.Kept
	for reason, n := range other.Dropped {
		if s.Dropped == nil {
			s.Dropped = make(map[string]int)
		}
		s.Dropped[reason] += n
	}
}
