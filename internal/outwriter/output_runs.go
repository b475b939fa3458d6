package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/parquet"
	"github.com/huangsam/outlier/schema"
)

// Run states shown in run listings.
const (
	runRunning   = "running"
	runCompleted = "completed"
	runFailed    = "failed"
)

func runState(r schema.RunRecord) string {
	switch {
	case r.ErrorMessage != nil:
		return runFailed
	case r.EndTime == nil:
		return runRunning
	default:
		return runCompleted
	}
}

// PrintRuns outputs the detection run history.
func PrintRuns(runs []schema.RunRecord, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsCSV(w, runs)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteRuns(w, runs)
		}, "Wrote Parquet")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsTable(w, runs, cfg)
		}, "Wrote table")
	}
}

func writeRunsTable(w io.Writer, runs []schema.RunRecord, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	headers := []string{"Run", "Method", "Started", "Duration", "Records", "Flagged", "State"}
	if cfg.Detail {
		headers = append(headers, "Params", "Filter")
	}
	table.Header(headers)

	var data [][]string
	for _, r := range runs {
		row := []string{
			strconv.FormatInt(r.RunID, 10),
			string(r.Method),
			r.StartTime.Local().Format(contract.DateTimeFormat),
			formatDuration(r.DurationMs),
			strconv.Itoa(r.TotalRecords),
			strconv.Itoa(r.FlaggedCount),
			runState(r),
		}
		if cfg.Detail {
			row = append(row, r.Params, r.Filter)
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d runs\n", len(runs))
	return err
}

func writeRunsCSV(w io.Writer, runs []schema.RunRecord) error {
	header := []string{"run_id", "method", "params", "filter", "start_time", "end_time", "duration_ms", "total_records", "flagged_count", "state", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range runs {
			endTime, errMsg := "", ""
			if r.EndTime != nil {
				endTime = r.EndTime.UTC().Format(contract.DateTimeFormat)
			}
			if r.ErrorMessage != nil {
				errMsg = *r.ErrorMessage
			}
			duration := ""
			if r.DurationMs != nil {
				duration = strconv.FormatInt(*r.DurationMs, 10)
			}
			rec := []string{
				strconv.FormatInt(r.RunID, 10),
				string(r.Method),
				r.Params,
				r.Filter,
				r.StartTime.UTC().Format(contract.DateTimeFormat),
				endTime,
				duration,
				strconv.Itoa(r.TotalRecords),
				strconv.Itoa(r.FlaggedCount),
				runState(r),
				errMsg,
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func formatDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return fmt.Sprintf("%dms", *ms)
}
