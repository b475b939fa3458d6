// Package loader reads border crossing records from CSV and Parquet files.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/huangsam/outlier/internal/parquet"
	"github.com/huangsam/outlier/schema"
)

// Column names after normalization.
const (
	idColumn    = "id"
	dateColumn  = "date"
	valueColumn = "value"
)

// dateLayouts are tried in order for the date column.
var dateLayouts = []string{
	"Jan 2006",
	schema.DateLayout,
	"2006-01",
	"01/02/2006 03:04:05 PM",
	"01/02/2006",
	time.RFC3339,
}

// ErrNoValueColumn is returned when a CSV header has no value column.
var ErrNoValueColumn = errors.New("csv header has no value column")

// Load reads records from path. Files ending in .parquet are read as Parquet,
// everything else as CSV.
func Load(path string) ([]schema.Record, error) {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return parquet.ReadRecords(path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer func() { _ = file.Close() }()
	records, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, nil
}

// ReadCSV parses records from r. The header may use the raw dataset names
// ("Port Name", "Value", ...) or the normalized ones ("port_name", "value", ...).
// Without an id column records are numbered from 1 in file order.
// Unparsable dates and values become missing.
func ReadCSV(r io.Reader) ([]schema.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	columns := make([]string, len(headers))
	valueIdx, idIdx := -1, -1
	for i, h := range headers {
		columns[i] = normalizeColumn(h)
		switch columns[i] {
		case valueColumn:
			valueIdx = i
		case idColumn:
			idIdx = i
		}
	}
	if valueIdx < 0 {
		return nil, ErrNoValueColumn
	}

	var records []schema.Record
	var skipped int
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			log.Debug().Err(err).Int("line", line).Msg("skipping malformed csv row")
			continue
		}

		rec := schema.Record{ID: int64(len(records) + skipped + 1), Attributes: make(map[string]string)}
		for i, raw := range row {
			if i >= len(columns) {
				break
			}
			val := strings.TrimSpace(raw)
			switch {
			case i == idIdx:
				if id, err := strconv.ParseInt(val, 10, 64); err == nil {
					rec.ID = id
				}
			case i == valueIdx:
				rec.Value = parseValue(val)
			case columns[i] == dateColumn:
				rec.Date = parseDate(val)
			case val != "" && columns[i] != "":
				rec.Attributes[columns[i]] = val
			}
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("loaded", len(records)).Msg("csv rows skipped")
	}
	return records, nil
}

// normalizeColumn maps "Port Name" to "port_name".
func normalizeColumn(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Join(strings.Fields(schema.NormalizeKey(h)), "_")
}

func parseValue(s string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}
