package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/parquet"
	"github.com/huangsam/outlier/schema"
)

// recordAttrColumns are the attribute columns of CSV record output, in order.
// The layout can be loaded back with the CSV loader.
var recordAttrColumns = []string{
	schema.AttrPortName,
	schema.AttrState,
	schema.AttrPortCode,
	schema.AttrBorder,
	schema.AttrMeasure,
	schema.AttrLatitude,
	schema.AttrLongitude,
	schema.AttrPoint,
}

// PrintRecords outputs records, dispatching on the configured format.
func PrintRecords(records []schema.Record, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, records)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecordsCSV(w, records)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteRecords(w, records)
		}, "Wrote Parquet")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecordsTable(w, records, cfg)
		}, "Wrote table")
	}
}

func writeRecordsTable(w io.Writer, records []schema.Record, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	headers := []string{"ID", "Date", "Value", "Port", "State", "Measure"}
	if cfg.Detail {
		headers = append(headers, "Code", "Border")
	}
	table.Header(headers)
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range records {
		attrs := r.Attributes
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.DateString(),
			formatValue(r),
			contract.TruncateText(attrs[schema.AttrPortName], 24),
			attrs[schema.AttrState],
			contract.TruncateText(attrs[schema.AttrMeasure], 28),
		}
		if cfg.Detail {
			row = append(row, attrs[schema.AttrPortCode], attrs[schema.AttrBorder])
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d records\n", len(records))
	return err
}

func writeRecordsCSV(w io.Writer, records []schema.Record) error {
	header := append([]string{"id", "date", "value"}, recordAttrColumns...)
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range records {
			rec := []string{strconv.FormatInt(r.ID, 10), r.DateString(), formatValue(r)}
			for _, col := range recordAttrColumns {
				rec = append(rec, r.Attributes[col])
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

// formatValue renders a record value, or an empty string when missing.
func formatValue(r schema.Record) string {
	if !r.HasValue() {
		return ""
	}
	return schema.FormatNumber(*r.Value)
}
