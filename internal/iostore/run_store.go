package iostore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/outlier/schema"
)

// BeginRun creates a new detection run and returns its unique ID.
func (s *Store) BeginRun(ctx context.Context, startTime time.Time, params, filter map[string]any) (int64, error) {
	if s.disabled() {
		return 0, nil
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal params: %w", err)
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal filter: %w", err)
	}
	method, _ := params["method"].(string)

	quoted := quoteTableName(runsTable, s.backend)
	var runID int64
	switch s.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (method, params, filter_params, start_time) VALUES ($1, $2, $3, $4) RETURNING run_id`, quoted)
		err = s.db.QueryRowContext(ctx, query, method, string(paramsJSON), string(filterJSON), startTime).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (method, params, filter_params, start_time) VALUES (?, ?, ?, ?)`, quoted)
		var result sql.Result
		result, err = s.db.ExecContext(ctx, query, method, string(paramsJSON), string(filterJSON), formatTime(startTime, s.backend))
		if err != nil {
			return 0, fmt.Errorf("failed to insert detection run: %w", err)
		}
		runID, err = result.LastInsertId()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert detection run: %w", err)
	}
	return runID, nil
}

// RecordFlags stores the results of a run in one transaction.
func (s *Store) RecordFlags(ctx context.Context, runID int64, results []schema.AnomalyResult) error {
	if s.disabled() || len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (run_id, record_id, value, score, reason) VALUES (%s)`,
		quoteTableName(flagsTable, s.backend), s.placeholders(1, 5))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare flag insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx, runID, r.ID, r.Value, r.Score, r.Reason); err != nil {
			return fmt.Errorf("failed to insert flag for record %d: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit flags: %w", err)
	}
	return nil
}

// EndRun updates the run with completion data.
func (s *Store) EndRun(ctx context.Context, runID int64, endTime time.Time, totalRecords, flagged int, runErr error) error {
	if s.disabled() {
		return nil
	}

	quoted := quoteTableName(runsTable, s.backend)
	ts := &timeScanner{backend: s.backend}
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quoted, s.placeholder(1))
	if err := s.db.QueryRowContext(ctx, query, runID).Scan(ts.dest()); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := ts.value()
	if err != nil {
		return err
	}
	var durationMs int64
	if startTime != nil {
		durationMs = endTime.Sub(*startTime).Milliseconds()
	}

	var errMsg any
	if runErr != nil {
		errMsg = runErr.Error()
	}

	update := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_records = %s, flagged_count = %s, error_message = %s WHERE run_id = %s`,
		quoted, s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4), s.placeholder(5), s.placeholder(6))
	if _, err := s.db.ExecContext(ctx, update, formatTime(endTime, s.backend), durationMs, totalRecords, flagged, errMsg, runID); err != nil {
		return fmt.Errorf("failed to update detection run: %w", err)
	}
	return nil
}

// ListRuns returns every run, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]schema.RunRecord, error) {
	if s.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, method, params, filter_params, start_time, end_time, run_duration_ms,
		total_records, flagged_count, error_message FROM %s ORDER BY run_id`, quoteTableName(runsTable, s.backend))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query detection runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var (
			record         schema.RunRecord
			method         string
			params, filter sql.NullString
			duration       sql.NullInt64
			errMsg         sql.NullString
		)
		start := &timeScanner{backend: s.backend}
		end := &timeScanner{backend: s.backend}
		if err := rows.Scan(&record.RunID, &method, &params, &filter, start.dest(), end.dest(), &duration,
			&record.TotalRecords, &record.FlaggedCount, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan detection run: %w", err)
		}
		record.Method = schema.Method(method)
		record.Params = params.String
		record.Filter = filter.String

		startTime, err := start.value()
		if err != nil {
			return nil, err
		}
		if startTime != nil {
			record.StartTime = *startTime
		}
		if record.EndTime, err = end.value(); err != nil {
			return nil, err
		}
		if duration.Valid {
			record.DurationMs = &duration.Int64
		}
		if errMsg.Valid {
			record.ErrorMessage = &errMsg.String
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating detection runs: %w", err)
	}
	return results, nil
}

// ListFlags returns the results stored for a run, by record id. A zero runID lists
// the flags of every run.
func (s *Store) ListFlags(ctx context.Context, runID int64) ([]schema.FlagRecord, error) {
	if s.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, record_id, value, score, reason FROM %s`, quoteTableName(flagsTable, s.backend))
	var args []any
	if runID != 0 {
		query += " WHERE run_id = " + s.placeholder(1)
		args = append(args, runID)
	}
	query += " ORDER BY run_id, record_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query detection flags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FlagRecord
	for rows.Next() {
		var f schema.FlagRecord
		if err := rows.Scan(&f.RunID, &f.RecordID, &f.Value, &f.Score, &f.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan detection flag: %w", err)
		}
		results = append(results, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating detection flags: %w", err)
	}
	return results, nil
}
