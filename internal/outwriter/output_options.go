package outwriter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/schema"
)

// ErrParquetUnsupported is returned for outputs that have no Parquet layout.
var ErrParquetUnsupported = errors.New("parquet output is not supported for this command")

// optionGroup is one named list of filter options.
type optionGroup struct {
	Name    string
	Options []schema.Option
}

func optionGroups(opts schema.FilterOptions) []optionGroup {
	return []optionGroup{
		{"port_names", opts.PortNames},
		{"states", opts.States},
		{"borders", opts.Borders},
		{"measures", opts.Measures},
		{"port_codes", opts.PortCodes},
		{"dates", opts.Dates},
		{"anomaly_types", opts.AnomalyTypes},
	}
}

// PrintFilterOptions outputs the available filter values.
func PrintFilterOptions(opts schema.FilterOptions, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, opts)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"filter", "value", "label"}, func(cw *csv.Writer) error {
				for _, g := range optionGroups(opts) {
					for _, o := range g.Options {
						if err := cw.Write([]string{g.Name, o.Value, o.Label}); err != nil {
							return fmt.Errorf("failed to write CSV record: %w", err)
						}
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return ErrParquetUnsupported
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOptionsText(w, opts, cfg)
		}, "Wrote text")
	}
}

// writeOptionsText lists each group on one line. Long groups are cut to the
// result limit unless detail is requested.
func writeOptionsText(w io.Writer, opts schema.FilterOptions, cfg *contract.Config) error {
	for _, g := range optionGroups(opts) {
		values := make([]string, 0, len(g.Options))
		for _, o := range g.Options {
			if o.Label != "" && o.Label != o.Value {
				values = append(values, fmt.Sprintf("%s (%s)", o.Value, o.Label))
				continue
			}
			values = append(values, o.Value)
		}
		suffix := ""
		if !cfg.Detail && cfg.ResultLimit > 0 && len(values) > cfg.ResultLimit {
			suffix = fmt.Sprintf(", ... %d more", len(values)-cfg.ResultLimit)
			values = values[:cfg.ResultLimit]
		}
		if _, err := fmt.Fprintf(w, "%s (%d): %s%s\n", g.Name, len(g.Options), strings.Join(values, ", "), suffix); err != nil {
			return err
		}
	}
	return nil
}
