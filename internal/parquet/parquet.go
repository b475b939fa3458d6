// Package parquet provides data structures and functions for exporting records,
// anomalies and detection history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/outlier/schema"
)

// CrossingRecord is one border crossing record.
// This struct maps to the crossing_records database table.
type CrossingRecord struct {
	ID        int64    `parquet:"id,snappy"`
	PortName  *string  `parquet:"port_name,optional,snappy"`
	State     *string  `parquet:"state,optional,snappy"`
	PortCode  *int32   `parquet:"port_code,optional,snappy"`
	Border    *string  `parquet:"border,optional,snappy"`
	Date      *string  `parquet:"date,optional,snappy"` // YYYY-MM-DD
	Measure   *string  `parquet:"measure,optional,snappy"`
	Value     *float64 `parquet:"value,optional,snappy"`
	Latitude  *float64 `parquet:"latitude,optional,snappy"`
	Longitude *float64 `parquet:"longitude,optional,snappy"`
	Point     *string  `parquet:"point,optional,snappy"`
}

// Anomaly is one flagged record joined with its descriptive attributes.
type Anomaly struct {
	Rank     int32   `parquet:"rank,snappy"`
	Severity string  `parquet:"severity,snappy"`
	ID       int64   `parquet:"id,snappy"`
	Method   string  `parquet:"method,snappy"`
	Date     *string `parquet:"date,optional,snappy"`
	Value    float64 `parquet:"value,snappy"`
	Score    float64 `parquet:"score,snappy"`
	Reason   string  `parquet:"reason,snappy"`
	PortName *string `parquet:"port_name,optional,snappy"`
	State    *string `parquet:"state,optional,snappy"`
	Measure  *string `parquet:"measure,optional,snappy"`
}

// DetectionRun is one detection run with metadata.
// This struct maps to the detection_runs database table.
type DetectionRun struct {
	RunID        int64      `parquet:"run_id,snappy"`
	Method       string     `parquet:"method,snappy"`
	Params       string     `parquet:"params,snappy"`
	Filter       string     `parquet:"filter,snappy"`
	StartTime    time.Time  `parquet:"start_time,snappy"`
	EndTime      *time.Time `parquet:"end_time,optional,snappy"`
	DurationMs   *int64     `parquet:"run_duration_ms,optional,snappy"`
	TotalRecords int32      `parquet:"total_records,snappy"`
	FlaggedCount int32      `parquet:"flagged_count,snappy"`
	ErrorMessage *string    `parquet:"error_message,optional,snappy"`
}

// DetectionFlag is one record flagged by a run.
// This struct maps to the detection_flags database table.
type DetectionFlag struct {
	RunID    int64   `parquet:"run_id,snappy"`
	RecordID int64   `parquet:"record_id,snappy"`
	Value    float64 `parquet:"value,snappy"`
	Score    float64 `parquet:"score,snappy"`
	Reason   string  `parquet:"reason,snappy"`
}

// write encodes rows to w with a schema derived from the struct tags.
func write[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// writeFile writes rows to a new file at outputPath.
func writeFile[T any](outputPath string, rows []T) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteRecords writes records to w.
func WriteRecords(w io.Writer, records []schema.Record) error {
	return write(w, ConvertRecords(records))
}

// WriteAnomalies writes enriched anomalies to w.
func WriteAnomalies(w io.Writer, anomalies []schema.EnrichedAnomaly) error {
	return write(w, ConvertAnomalies(anomalies))
}

// WriteRuns writes detection runs to w.
func WriteRuns(w io.Writer, runs []schema.RunRecord) error {
	return write(w, ConvertRunRecords(runs))
}

// WriteRunsParquet writes detection runs to a Parquet file.
func WriteRunsParquet(runs []schema.RunRecord, outputPath string) error {
	return writeFile(outputPath, ConvertRunRecords(runs))
}

// WriteFlagsParquet writes detection flags to a Parquet file.
func WriteFlagsParquet(flags []schema.FlagRecord, outputPath string) error {
	return writeFile(outputPath, ConvertFlagRecords(flags))
}

// ReadRecords reads records written by WriteRecords.
func ReadRecords(path string) ([]schema.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[CrossingRecord](file)
	defer func() { _ = reader.Close() }()

	rows := make([]CrossingRecord, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}

	records := make([]schema.Record, 0, n)
	for _, row := range rows[:n] {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// ConvertRecords converts records to their Parquet rows.
func ConvertRecords(records []schema.Record) []CrossingRecord {
	out := make([]CrossingRecord, len(records))
	for i, r := range records {
		attrs := r.Attributes
		row := CrossingRecord{
			ID:        r.ID,
			PortName:  optString(attrs[schema.AttrPortName]),
			State:     optString(attrs[schema.AttrState]),
			Border:    optString(attrs[schema.AttrBorder]),
			Measure:   optString(attrs[schema.AttrMeasure]),
			Point:     optString(attrs[schema.AttrPoint]),
			Date:      optString(r.DateString()),
			Latitude:  optFloat(attrs[schema.AttrLatitude]),
			Longitude: optFloat(attrs[schema.AttrLongitude]),
		}
		if r.HasValue() {
			v := *r.Value
			row.Value = &v
		}
		if code, err := strconv.ParseInt(attrs[schema.AttrPortCode], 10, 32); err == nil {
			c := int32(code)
			row.PortCode = &c
		}
		out[i] = row
	}
	return out
}

// toRecord converts a Parquet row back to a record. Unparsable dates become missing.
func (c CrossingRecord) toRecord() schema.Record {
	r := schema.Record{ID: c.ID, Attributes: make(map[string]string)}
	if c.Value != nil {
		r.Value = schema.Float(*c.Value)
	}
	if c.Date != nil {
		if t, err := time.Parse(schema.DateLayout, *c.Date); err == nil {
			r.Date = t
		}
	}
	for key, v := range map[string]*string{
		schema.AttrPortName: c.PortName,
		schema.AttrState:    c.State,
		schema.AttrBorder:   c.Border,
		schema.AttrMeasure:  c.Measure,
		schema.AttrPoint:    c.Point,
	} {
		if v != nil {
			r.Attributes[key] = *v
		}
	}
	if c.PortCode != nil {
		r.Attributes[schema.AttrPortCode] = strconv.Itoa(int(*c.PortCode))
	}
	if c.Latitude != nil {
		r.Attributes[schema.AttrLatitude] = strconv.FormatFloat(*c.Latitude, 'f', -1, 64)
	}
	if c.Longitude != nil {
		r.Attributes[schema.AttrLongitude] = strconv.FormatFloat(*c.Longitude, 'f', -1, 64)
	}
	return r
}

// ConvertAnomalies converts enriched anomalies to their Parquet rows.
func ConvertAnomalies(anomalies []schema.EnrichedAnomaly) []Anomaly {
	out := make([]Anomaly, len(anomalies))
	for i, a := range anomalies {
		out[i] = Anomaly{
			Rank:     int32(a.Rank),
			Severity: a.Severity,
			ID:       a.ID,
			Method:   string(a.Method),
			Date:     optString(a.Date),
			Value:    a.Value,
			Score:    a.Score,
			Reason:   a.Reason,
			PortName: optString(a.Attributes[schema.AttrPortName]),
			State:    optString(a.Attributes[schema.AttrState]),
			Measure:  optString(a.Attributes[schema.AttrMeasure]),
		}
	}
	return out
}

// ConvertRunRecords converts run records to their Parquet rows.
func ConvertRunRecords(records []schema.RunRecord) []DetectionRun {
	out := make([]DetectionRun, len(records))
	for i, r := range records {
		out[i] = DetectionRun{
			RunID:        r.RunID,
			Method:       string(r.Method),
			Params:       r.Params,
			Filter:       r.Filter,
			StartTime:    r.StartTime,
			EndTime:      r.EndTime,
			DurationMs:   r.DurationMs,
			TotalRecords: int32(r.TotalRecords),
			FlaggedCount: int32(r.FlaggedCount),
			ErrorMessage: r.ErrorMessage,
		}
	}
	return out
}

// ConvertFlagRecords converts flag records to their Parquet rows.
func ConvertFlagRecords(records []schema.FlagRecord) []DetectionFlag {
	out := make([]DetectionFlag, len(records))
	for i, r := range records {
		out[i] = DetectionFlag(r)
	}
	return out
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
