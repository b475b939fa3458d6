package iostore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/outlier/schema"
)

// recordColumns are the crossing_records columns besides id, in insert order.
var recordColumns = []string{
	schema.AttrPortName, schema.AttrState, schema.AttrPortCode, schema.AttrBorder, "date",
	schema.AttrMeasure, "value", schema.AttrLatitude, schema.AttrLongitude, schema.AttrPoint,
}

// InsertRecords stores records in one transaction. Records with an id replace any
// stored record with the same id, so loading a file twice is harmless.
func (s *Store) InsertRecords(ctx context.Context, records []schema.Record) (int, error) {
	if s.disabled() || len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	upsert, err := tx.PrepareContext(ctx, s.upsertRecordQuery())
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = upsert.Close() }()

	insert, err := tx.PrepareContext(ctx, s.insertRecordQuery())
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = insert.Close() }()

	var explicitIDs bool
	for _, r := range records {
		args := recordArgs(r)
		if r.ID != 0 {
			explicitIDs = true
			_, err = upsert.ExecContext(ctx, append([]any{r.ID}, args...)...)
		} else {
			_, err = insert.ExecContext(ctx, args...)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to insert record %d: %w", r.ID, err)
		}
	}

	// Explicit ids do not advance a PostgreSQL sequence
	if explicitIDs && s.backend == schema.PostgreSQLBackend {
		query := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT COALESCE(MAX(id), 1) FROM %s))`,
			recordsTable, quoteTableName(recordsTable, s.backend))
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return 0, fmt.Errorf("failed to advance id sequence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit records: %w", err)
	}
	return len(records), nil
}

// upsertRecordQuery returns the UPSERT query for the backend.
func (s *Store) upsertRecordQuery() string {
	quoted := quoteTableName(recordsTable, s.backend)
	columns := "id, " + strings.Join(recordColumns, ", ")
	values := s.placeholders(1, len(recordColumns)+1)

	switch s.backend {
	case schema.MySQLBackend:
		updates := make([]string, len(recordColumns))
		for i, c := range recordColumns {
			updates[i] = fmt.Sprintf("%s = new.%s", c, c)
		}
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new ON DUPLICATE KEY UPDATE %s`,
			quoted, columns, values, strings.Join(updates, ", "))

	case schema.PostgreSQLBackend:
		updates := make([]string, len(recordColumns))
		for i, c := range recordColumns {
			updates[i] = fmt.Sprintf("%s = EXCLUDED.%s", c, c)
		}
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s`,
			quoted, columns, values, strings.Join(updates, ", "))

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (%s) VALUES (%s)`, quoted, columns, values)
	}
}

// insertRecordQuery returns the INSERT query letting the database pick the id.
func (s *Store) insertRecordQuery() string {
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`, quoteTableName(recordsTable, s.backend),
		strings.Join(recordColumns, ", "), s.placeholders(1, len(recordColumns)))
}

// recordArgs returns the column values of r in recordColumns order.
func recordArgs(r schema.Record) []any {
	attrs := r.Attributes
	var value, date any
	if r.HasValue() {
		value = *r.Value
	}
	if r.HasDate() {
		date = r.DateString()
	}
	return []any{
		nullString(attrs[schema.AttrPortName]),
		nullString(attrs[schema.AttrState]),
		nullInt(attrs[schema.AttrPortCode]),
		nullString(attrs[schema.AttrBorder]),
		date,
		nullString(attrs[schema.AttrMeasure]),
		value,
		nullFloat(attrs[schema.AttrLatitude]),
		nullFloat(attrs[schema.AttrLongitude]),
		nullString(attrs[schema.AttrPoint]),
	}
}

// QueryRecords returns the records matching the filter, ordered by date descending,
// then state and port name.
func (s *Store) QueryRecords(ctx context.Context, filter schema.RecordFilter) ([]schema.Record, error) {
	if s.disabled() {
		return nil, nil
	}

	var where []string
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, s.placeholder(len(args))))
	}
	if filter.PortName != "" {
		add("port_name = %s", filter.PortName)
	}
	if filter.State != "" {
		add("state = %s", filter.State)
	}
	if filter.Border != "" {
		add("border = %s", filter.Border)
	}
	if filter.Measure != "" {
		add("measure = %s", filter.Measure)
	}
	if filter.PortCode != nil {
		add("port_code = %s", *filter.PortCode)
	}
	if filter.Date != nil {
		add("date = %s", filter.Date.Format(schema.DateLayout))
	}
	if filter.Start != nil {
		add("date >= %s", filter.Start.Format(schema.DateLayout))
	}
	if filter.End != nil {
		add("date <= %s", filter.End.Format(schema.DateLayout))
	}

	query := fmt.Sprintf("SELECT id, %s FROM %s", strings.Join(recordColumns, ", "), quoteTableName(recordsTable, s.backend))
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date DESC, state ASC, port_name ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return results, nil
}

// scanRecord reads one crossing_records row. NULL columns are left out of Attributes.
func scanRecord(rows *sql.Rows) (schema.Record, error) {
	var (
		id                         int64
		portName, state, border    sql.NullString
		date, measure, point       sql.NullString
		portCode                   sql.NullInt64
		value, latitude, longitude sql.NullFloat64
	)
	if err := rows.Scan(&id, &portName, &state, &portCode, &border, &date, &measure, &value, &latitude, &longitude, &point); err != nil {
		return schema.Record{}, fmt.Errorf("failed to scan record: %w", err)
	}

	r := schema.Record{ID: id, Attributes: make(map[string]string)}
	if value.Valid {
		r.Value = schema.Float(value.Float64)
	}
	if date.Valid {
		if t, err := time.Parse(schema.DateLayout, date.String); err == nil {
			r.Date = t
		}
	}
	for key, v := range map[string]sql.NullString{
		schema.AttrPortName: portName,
		schema.AttrState:    state,
		schema.AttrBorder:   border,
		schema.AttrMeasure:  measure,
		schema.AttrPoint:    point,
	} {
		if v.Valid {
			r.Attributes[key] = v.String
		}
	}
	if portCode.Valid {
		r.Attributes[schema.AttrPortCode] = strconv.FormatInt(portCode.Int64, 10)
	}
	if latitude.Valid {
		r.Attributes[schema.AttrLatitude] = strconv.FormatFloat(latitude.Float64, 'f', -1, 64)
	}
	if longitude.Valid {
		r.Attributes[schema.AttrLongitude] = strconv.FormatFloat(longitude.Float64, 'f', -1, 64)
	}
	return r, nil
}

// FilterOptions returns the distinct values of each filterable column, plus the
// detection methods.
func (s *Store) FilterOptions(ctx context.Context) (schema.FilterOptions, error) {
	opts := schema.FilterOptions{AnomalyTypes: schema.MethodOptions()}
	if s.disabled() {
		return opts, nil
	}

	targets := []struct {
		column string
		dst    *[]schema.Option
	}{
		{schema.AttrPortName, &opts.PortNames},
		{schema.AttrState, &opts.States},
		{schema.AttrBorder, &opts.Borders},
		{schema.AttrMeasure, &opts.Measures},
		{"date", &opts.Dates},
		{schema.AttrPortCode, &opts.PortCodes},
	}
	for _, target := range targets {
		values, err := s.distinct(ctx, target.column)
		if err != nil {
			return opts, err
		}
		options := make([]schema.Option, len(values))
		for i, v := range values {
			options[i] = schema.Option{Value: v, Label: v}
		}
		*target.dst = options
	}
	return opts, nil
}

// distinct returns the sorted distinct non-NULL values of a column as strings.
func (s *Store) distinct(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL ORDER BY %s",
		column, quoteTableName(recordsTable, s.backend), column, column)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	values := []string{}
	for rows.Next() {
		var v string
		if column == schema.AttrPortCode {
			var code int64
			if err := rows.Scan(&code); err != nil {
				return nil, fmt.Errorf("failed to scan %s: %w", column, err)
			}
			v = strconv.FormatInt(code, 10)
		} else if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", column, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", column, err)
	}
	return values, nil
}

// Clear removes all records. Run history is kept.
func (s *Store) Clear(ctx context.Context) error {
	if s.disabled() {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", quoteTableName(recordsTable, s.backend))); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

// GetStatus returns status information about the store.
func (s *Store) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:    string(s.backend),
		Connected:  s.db != nil,
		TableSizes: make(map[string]int64),
	}
	if s.disabled() {
		return status, nil
	}

	for _, table := range allTables {
		var count int64
		row := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, s.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalRecords = status.TableSizes[recordsTable]
	status.TotalRuns = status.TableSizes[runsTable]

	if status.TotalRuns > 0 {
		ts := &timeScanner{backend: s.backend}
		query := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", quoteTableName(runsTable, s.backend))
		if err := s.db.QueryRow(query).Scan(ts.dest()); err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		last, err := ts.value()
		if err != nil {
			return status, err
		}
		status.LastRunTime = last
	}
	return status, nil
}

func nullString(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func nullInt(s string) any {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return v
}

func nullFloat(s string) any {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return v
}
