package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/parquet"
	"github.com/huangsam/outlier/schema"
)

// PrintAnomalies outputs a detection report, dispatching on the configured format.
func PrintAnomalies(report schema.DetectionReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnomaliesCSV(w, report.Anomalies, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteAnomalies(w, report.Anomalies)
		}, "Wrote Parquet")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAnomaliesTable(w, report, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// writeAnomaliesTable generates and writes the human-readable table.
func writeAnomaliesTable(w io.Writer, report schema.DetectionReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Rank", "ID", "Date", "Value", "Score", "Severity"}
	if cfg.Detail {
		headers = append(headers, "Port", "State", "Measure")
	}
	headers = append(headers, "Reason")
	table.Header(headers)

	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	reasonWidth := getMaxTableReasonWidth(cfg)
	var data [][]string
	for _, a := range report.Anomalies {
		row := []string{
			strconv.Itoa(a.Rank),
			strconv.FormatInt(a.ID, 10),
			a.Date,
			schema.FormatNumber(a.Value),
			fmtFloat(a.Score),
			severityLabel(a.Severity, cfg),
		}
		if cfg.Detail {
			row = append(row,
				contract.TruncateText(a.Attributes[schema.AttrPortName], 20),
				a.Attributes[schema.AttrState],
				contract.TruncateText(a.Attributes[schema.AttrMeasure], 20),
			)
		}
		row = append(row, contract.TruncateText(a.Reason, reasonWidth))
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Flagged %d of %d records with %s (showing %d)\n",
		report.FlaggedCount, report.TotalRecords, schema.MethodLabels[report.Method], len(report.Anomalies)); err != nil {
		return err
	}
	if report.RunID > 0 {
		if _, err := fmt.Fprintf(w, "Detection run %d completed in %v. Store backend: %s\n", report.RunID, duration, cfg.Backend); err != nil {
			return err
		}
		return nil
	}
	_, err := fmt.Fprintf(w, "Detection completed in %v. Store backend: %s\n", duration, cfg.Backend)
	return err
}

// writeAnomaliesCSV writes one row per anomaly with its record attributes.
func writeAnomaliesCSV(w io.Writer, anomalies []schema.EnrichedAnomaly, fmtFloat func(float64) string) error {
	header := []string{"rank", "id", "date", "method", "value", "score", "severity", "reason", "port_name", "state", "border", "measure"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, a := range anomalies {
			rec := []string{
				strconv.Itoa(a.Rank),
				strconv.FormatInt(a.ID, 10),
				a.Date,
				string(a.Method),
				schema.FormatNumber(a.Value),
				fmtFloat(a.Score),
				a.Severity,
				a.Reason,
				a.Attributes[schema.AttrPortName],
				a.Attributes[schema.AttrState],
				a.Attributes[schema.AttrBorder],
				a.Attributes[schema.AttrMeasure],
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
