// Package outwriter renders detection results, records, filter options and run
// history as text tables, CSV, JSON or Parquet.
package outwriter

import (
	"time"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/schema"
)

// OutWriter provides a unified interface for all output operations.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteAnomalies prints a detection report using the configured output format.
func (ow *OutWriter) WriteAnomalies(report schema.DetectionReport, cfg *contract.Config, duration time.Duration) error {
	return PrintAnomalies(report, cfg, duration)
}

// WriteRecords prints records using the configured output format.
func (ow *OutWriter) WriteRecords(records []schema.Record, cfg *contract.Config) error {
	return PrintRecords(records, cfg)
}

// WriteFilterOptions prints the available filter values using the configured output format.
func (ow *OutWriter) WriteFilterOptions(opts schema.FilterOptions, cfg *contract.Config) error {
	return PrintFilterOptions(opts, cfg)
}

// WriteRuns prints the detection run history using the configured output format.
func (ow *OutWriter) WriteRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	return PrintRuns(runs, cfg)
}
