// Package core has the detection engine and the orchestration around it:
// record selection, run tracking and output.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/loader"
	"github.com/huangsam/outlier/internal/metrics"
	"github.com/huangsam/outlier/internal/outwriter"
	"github.com/huangsam/outlier/schema"
)

// ExecutorFunc defines the function signature for executing CLI commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteDetect runs the configured detection and prints the report.
// It serves as the main entry point for the 'detect' command.
func ExecuteDetect(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	report, err := RunDetection(ctx, cfg, mgr, metrics.Default())
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteAnomalies(report, cfg, time.Since(start))
}

// ExecuteRecords prints the records selected by the filter, up to the result limit.
func ExecuteRecords(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	records, err := LoadRecords(ctx, cfg, recordStore(mgr))
	if err != nil {
		return err
	}
	if cfg.ResultLimit > 0 && len(records) > cfg.ResultLimit {
		records = records[:cfg.ResultLimit]
	}
	return outwriter.NewOutWriter().WriteRecords(records, cfg)
}

// ExecuteOptions prints the values available for each filter.
func ExecuteOptions(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	opts, err := GetFilterOptions(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteFilterOptions(opts, cfg)
}

// ExecuteRuns prints the most recent detection runs, up to the result limit.
func ExecuteRuns(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	runs := runStore(mgr)
	if runs == nil {
		return errors.New("run history needs a database backend")
	}
	history, err := runs.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if cfg.ResultLimit > 0 && len(history) > cfg.ResultLimit {
		history = history[len(history)-cfg.ResultLimit:]
	}
	return outwriter.NewOutWriter().WriteRuns(history, cfg)
}

// ExecuteLoad reads the input file into the record store and reports how many
// records were written to w.
func ExecuteLoad(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, w io.Writer) error {
	if cfg.Backend == schema.NoneBackend {
		return errors.New("loading records needs a database backend")
	}
	store := recordStore(mgr)
	if store == nil {
		return ErrNoRecordSource
	}
	if cfg.Input == "" {
		return errors.New("an input file is required")
	}

	start := time.Now()
	records, err := loader.Load(cfg.Input)
	if err != nil {
		return err
	}
	n, err := store.InsertRecords(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to store records: %w", err)
	}
	_, err = fmt.Fprintf(w, "Loaded %d records from %s into %s store in %v\n", n, cfg.Input, cfg.Backend, time.Since(start).Round(time.Millisecond))
	return err
}
