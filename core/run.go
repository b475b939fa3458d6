package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/loader"
	"github.com/huangsam/outlier/internal/metrics"
	"github.com/huangsam/outlier/schema"
)

// ErrNoRecordSource is returned when neither an input file nor a record store is available.
var ErrNoRecordSource = errors.New("no record source: pass --input or configure a database backend")

// recordStore returns the manager's record store, tolerating a nil manager.
func recordStore(mgr contract.StoreManager) contract.RecordStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetRecordStore()
}

// runStore returns the manager's run store, tolerating a nil manager.
func runStore(mgr contract.StoreManager) contract.RunStore {
	if mgr == nil {
		return nil
	}
	return mgr.GetRunStore()
}

// LoadRecords returns the records selected by the configured filter. An input
// file takes precedence over the record store.
func LoadRecords(ctx context.Context, cfg *contract.Config, store contract.RecordStore) ([]schema.Record, error) {
	if cfg.Input != "" {
		records, err := loader.Load(cfg.Input)
		if err != nil {
			return nil, err
		}
		return cfg.Filter.Apply(records), nil
	}
	if store == nil {
		return nil, ErrNoRecordSource
	}
	records, err := store.QueryRecords(ctx, cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return records, nil
}

// RunDetection loads the filtered records, runs the configured detection and
// assembles the report. When a run store is available the run and its flags
// are tracked; tracking failures are logged and never fail the detection.
func RunDetection(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, rec *metrics.Recorder) (schema.DetectionReport, error) {
	start := time.Now()
	req := cfg.Request
	if !shouldSuppressHeader(ctx) {
		logDetectionHeader(cfg)
	}

	// --- 0. Begin Run Tracking (if configured) ---
	runs := runStore(mgr)
	var runID int64
	if runs != nil {
		id, err := runs.BeginRun(ctx, start, req.Describe(), cfg.Filter.Describe())
		if err != nil {
			contract.LogWarn("Run tracking initialization failed", err)
		} else if id > 0 {
			runID = id
			ctx = withRunID(ctx, id)
		}
	}

	// --- 1. Record Selection ---
	records, err := LoadRecords(ctx, cfg, recordStore(mgr))

	// --- 2. Detection ---
	var results []schema.AnomalyResult
	if err == nil {
		results, err = Detect(records, req)
	}
	rec.ObserveDetection(req.Method, err, time.Since(start), len(results))

	// --- 3. End Run Tracking ---
	if id, ok := RunIDFromContext(ctx); ok {
		if err == nil {
			if ferr := runs.RecordFlags(ctx, id, results); ferr != nil {
				contract.LogWarn("Failed to store run flags", ferr)
			}
		}
		if eerr := runs.EndRun(ctx, id, time.Now(), len(records), len(results), err); eerr != nil {
			contract.LogWarn("Failed to finalize run tracking", eerr)
		}
	}
	if err != nil {
		return schema.DetectionReport{}, err
	}

	report := schema.NewDetectionReport(req, cfg.Filter, records, results, cfg.ResultLimit)
	report.RunID = runID
	log.Debug().
		Int64("run_id", runID).
		Str("method", string(req.Method)).
		Int("records", len(records)).
		Int("flagged", len(results)).
		Dur("duration", time.Since(start)).
		Msg("detection finished")
	return report, nil
}

// logDetectionHeader logs what is about to be evaluated.
func logDetectionHeader(cfg *contract.Config) {
	source := string(cfg.Backend)
	if cfg.Input != "" {
		source = cfg.Input
	}
	log.Info().
		Str("method", string(cfg.Request.Method)).
		Interface("params", cfg.Request.Describe()).
		Interface("filter", cfg.Filter.Describe()).
		Str("source", source).
		Msg("running detection")
}
