package iostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/outlier/schema"
)

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func crossing(id int64, date string, value float64, port, state, measure string) schema.Record {
	d, _ := time.Parse(schema.DateLayout, date)
	return schema.Record{
		ID:    id,
		Value: schema.Float(value),
		Date:  d,
		Attributes: map[string]string{
			schema.AttrPortName:  port,
			schema.AttrState:     state,
			schema.AttrPortCode:  "2402",
			schema.AttrBorder:    "US-Mexico Border",
			schema.AttrMeasure:   measure,
			schema.AttrLatitude:  "31.764",
			schema.AttrLongitude: "-106.451",
			schema.AttrPoint:     "POINT (-106.451 31.764)",
		},
	}
}

func sampleRecords() []schema.Record {
	return []schema.Record{
		crossing(1, "2023-01-01", 100, "El Paso", "Texas", "Trucks"),
		crossing(2, "2023-02-01", 120, "El Paso", "Texas", "Trucks"),
		crossing(3, "2023-02-01", 80, "Calexico", "California", "Buses"),
		crossing(4, "2023-03-01", 5000, "Calexico", "California", "Trucks"),
	}
}

func TestStore_NoneBackend(t *testing.T) {
	store, err := NewStore(schema.NoneBackend, "")
	require.NoError(t, err)
	ctx := context.Background()

	n, err := store.InsertRecords(ctx, sampleRecords())
	assert.NoError(t, err)
	assert.Zero(t, n)

	records, err := store.QueryRecords(ctx, schema.RecordFilter{})
	assert.NoError(t, err)
	assert.Empty(t, records)

	opts, err := store.FilterOptions(ctx)
	assert.NoError(t, err)
	assert.Len(t, opts.AnomalyTypes, len(schema.AllMethods))

	runID, err := store.BeginRun(ctx, time.Now(), map[string]any{"method": "range"}, nil)
	assert.NoError(t, err)
	assert.Zero(t, runID)
	assert.NoError(t, store.RecordFlags(ctx, runID, []schema.AnomalyResult{{ID: 1}}))
	assert.NoError(t, store.EndRun(ctx, runID, time.Now(), 1, 1, nil))
	assert.NoError(t, store.Clear(ctx))

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestStore_UnsupportedBackend(t *testing.T) {
	_, err := NewStore(schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestStore_InsertAndQuery(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	n, err := store.InsertRecords(ctx, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	t.Run("ordering matches the dashboard", func(t *testing.T) {
		records, err := store.QueryRecords(ctx, schema.RecordFilter{})
		require.NoError(t, err)
		ids := make([]int64, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}
		// date desc, then state asc, then port name asc
		assert.Equal(t, []int64{4, 3, 2, 1}, ids)
	})

	t.Run("round trips attributes", func(t *testing.T) {
		records, err := store.QueryRecords(ctx, schema.RecordFilter{PortName: "El Paso", Date: timePtr("2023-01-01")})
		require.NoError(t, err)
		require.Len(t, records, 1)
		r := records[0]
		assert.Equal(t, int64(1), r.ID)
		assert.Equal(t, 100.0, *r.Value)
		assert.Equal(t, "2023-01-01", r.DateString())
		assert.Equal(t, sampleRecords()[0].Attributes, r.Attributes)
	})

	t.Run("combined filters", func(t *testing.T) {
		code := 2402
		records, err := store.QueryRecords(ctx, schema.RecordFilter{
			State:    "California",
			Measure:  "Trucks",
			Border:   "US-Mexico Border",
			PortCode: &code,
		})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, int64(4), records[0].ID)
	})

	t.Run("date range", func(t *testing.T) {
		records, err := store.QueryRecords(ctx, schema.RecordFilter{Start: timePtr("2023-02-01"), End: timePtr("2023-02-28")})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("no match", func(t *testing.T) {
		records, err := store.QueryRecords(ctx, schema.RecordFilter{State: "Maine"})
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestStore_InsertReplacesByID(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	_, err := store.InsertRecords(ctx, sampleRecords())
	require.NoError(t, err)
	updated := crossing(2, "2023-02-01", 999, "El Paso", "Texas", "Trucks")
	_, err = store.InsertRecords(ctx, []schema.Record{updated})
	require.NoError(t, err)

	records, err := store.QueryRecords(ctx, schema.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, records, 4)
	for _, r := range records {
		if r.ID == 2 {
			assert.Equal(t, 999.0, *r.Value)
		}
	}
}

func TestStore_MissingValuesAndAutoIDs(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	_, err := store.InsertRecords(ctx, []schema.Record{
		{ID: 10, Attributes: map[string]string{schema.AttrPortName: "Blaine", schema.AttrPortCode: "n/a"}},
		{Value: schema.Float(7), Date: time.Date(2022, time.May, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	records, err := store.QueryRecords(ctx, schema.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	byID := map[int64]schema.Record{}
	for _, r := range records {
		byID[r.ID] = r
	}
	missing := byID[10]
	assert.False(t, missing.HasValue())
	assert.False(t, missing.HasDate())
	assert.Equal(t, map[string]string{schema.AttrPortName: "Blaine"}, missing.Attributes)

	var auto schema.Record
	for id, r := range byID {
		if id != 10 {
			auto = r
		}
	}
	assert.Greater(t, auto.ID, int64(10))
	assert.Equal(t, 7.0, *auto.Value)
}

func TestStore_FilterOptions(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	_, err := store.InsertRecords(ctx, sampleRecords())
	require.NoError(t, err)

	opts, err := store.FilterOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []schema.Option{{Value: "Calexico", Label: "Calexico"}, {Value: "El Paso", Label: "El Paso"}}, opts.PortNames)
	assert.Equal(t, []schema.Option{{Value: "California", Label: "California"}, {Value: "Texas", Label: "Texas"}}, opts.States)
	assert.Equal(t, []schema.Option{{Value: "US-Mexico Border", Label: "US-Mexico Border"}}, opts.Borders)
	assert.Equal(t, []schema.Option{{Value: "Buses", Label: "Buses"}, {Value: "Trucks", Label: "Trucks"}}, opts.Measures)
	assert.Len(t, opts.Dates, 3)
	assert.Equal(t, "2023-01-01", opts.Dates[0].Value)
	assert.Equal(t, []schema.Option{{Value: "2402", Label: "2402"}}, opts.PortCodes)
	assert.Equal(t, schema.MethodOptions(), opts.AnomalyTypes)
}

func TestStore_Clear(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()
	_, err := store.InsertRecords(ctx, sampleRecords())
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))
	records, err := store.QueryRecords(ctx, schema.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_Runs(t *testing.T) {
	store := newMemoryStore(t)
	ctx := context.Background()

	start := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun(ctx, start,
		map[string]any{"method": "range", "min": 50.0},
		map[string]any{"state": "Texas"})
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	results := []schema.AnomalyResult{
		{ID: 3, Method: schema.RangeMethod, Value: 12, Score: 38, Reason: "Out of Range: Value 12 is below minimum 50 by 38"},
		{ID: 7, Method: schema.RangeMethod, Value: 20, Score: 30, Reason: "Out of Range: Value 20 is below minimum 50 by 30"},
	}
	require.NoError(t, store.RecordFlags(ctx, runID, results))
	require.NoError(t, store.EndRun(ctx, runID, start.Add(1500*time.Millisecond), 10, len(results), nil))

	failedID, err := store.BeginRun(ctx, start.Add(time.Minute), map[string]any{"method": "seasonal_residual"}, nil)
	require.NoError(t, err)
	require.NoError(t, store.EndRun(ctx, failedID, start.Add(time.Minute), 0, 0, errors.New("malformed input: no dates")))

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	first := runs[0]
	assert.Equal(t, runID, first.RunID)
	assert.Equal(t, schema.RangeMethod, first.Method)
	assert.JSONEq(t, `{"method":"range","min":50}`, first.Params)
	assert.JSONEq(t, `{"state":"Texas"}`, first.Filter)
	assert.True(t, start.Equal(first.StartTime))
	require.NotNil(t, first.EndTime)
	require.NotNil(t, first.DurationMs)
	assert.Equal(t, int64(1500), *first.DurationMs)
	assert.Equal(t, 10, first.TotalRecords)
	assert.Equal(t, 2, first.FlaggedCount)
	assert.Nil(t, first.ErrorMessage)

	require.NotNil(t, runs[1].ErrorMessage)
	assert.Equal(t, "malformed input: no dates", *runs[1].ErrorMessage)

	flags, err := store.ListFlags(ctx, runID)
	require.NoError(t, err)
	require.Len(t, flags, 2)
	assert.Equal(t, schema.FlagRecord{RunID: runID, RecordID: 3, Value: 12, Score: 38, Reason: results[0].Reason}, flags[0])

	all, err := store.ListFlags(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, int64(2), status.TotalRuns)
	assert.Equal(t, int64(2), status.TableSizes[flagsTable])
	require.NotNil(t, status.LastRunTime)
	assert.True(t, start.Add(time.Minute).Equal(*status.LastRunTime))
}

func TestStore_EndRunUnknown(t *testing.T) {
	store := newMemoryStore(t)
	err := store.EndRun(context.Background(), 42, time.Now(), 0, 0, nil)
	assert.ErrorContains(t, err, "failed to get start_time for run 42")
}

func TestStore_Placeholders(t *testing.T) {
	sqlite := &Store{backend: schema.SQLiteBackend}
	pg := &Store{backend: schema.PostgreSQLBackend}
	assert.Equal(t, "?, ?, ?", sqlite.placeholders(1, 3))
	assert.Equal(t, "$2, $3", pg.placeholders(2, 2))
	assert.Equal(t, "`crossing_records`", quoteTableName(recordsTable, schema.MySQLBackend))
	assert.Equal(t, `"crossing_records"`, quoteTableName(recordsTable, schema.PostgreSQLBackend))
}

func TestStore_UpsertQueries(t *testing.T) {
	mysqlStore := &Store{backend: schema.MySQLBackend}
	assert.Contains(t, mysqlStore.upsertRecordQuery(), "ON DUPLICATE KEY UPDATE port_name = new.port_name")
	pgStore := &Store{backend: schema.PostgreSQLBackend}
	assert.Contains(t, pgStore.upsertRecordQuery(), "ON CONFLICT (id) DO UPDATE SET port_name = EXCLUDED.port_name")
	assert.Contains(t, pgStore.upsertRecordQuery(), "$11")
	sqliteStore := &Store{backend: schema.SQLiteBackend}
	assert.Contains(t, sqliteStore.upsertRecordQuery(), "INSERT OR REPLACE")
}

func timePtr(s string) *time.Time {
	t, _ := time.Parse(schema.DateLayout, s)
	return &t
}
