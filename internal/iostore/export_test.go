package iostore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/outlier/schema"
)

func TestExportRuns(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an output file", func(t *testing.T) {
		err := ExportRuns(ctx, &MockRunStore{}, "", &bytes.Buffer{})
		assert.ErrorContains(t, err, "--output-file is required")
	})

	t.Run("no runs", func(t *testing.T) {
		runs := &MockRunStore{}
		runs.On("ListRuns", ctx).Return([]schema.RunRecord{}, nil)
		err := ExportRuns(ctx, runs, filepath.Join(t.TempDir(), "out"), &bytes.Buffer{})
		assert.ErrorContains(t, err, "no detection runs found")
		runs.AssertExpectations(t)
	})

	t.Run("list failure", func(t *testing.T) {
		runs := &MockRunStore{}
		runs.On("ListRuns", ctx).Return(nil, errors.New("boom"))
		err := ExportRuns(ctx, runs, filepath.Join(t.TempDir(), "out"), &bytes.Buffer{})
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("writes both files", func(t *testing.T) {
		store := newMemoryStore(t)
		runID, err := store.BeginRun(ctx, time.Now(), map[string]any{"method": "statistical"}, nil)
		require.NoError(t, err)
		require.NoError(t, store.RecordFlags(ctx, runID, []schema.AnomalyResult{{ID: 5, Value: 100, Score: 3.2, Reason: "x"}}))
		require.NoError(t, store.EndRun(ctx, runID, time.Now(), 5, 1, nil))

		base := filepath.Join(t.TempDir(), "history")
		var out bytes.Buffer
		require.NoError(t, ExportRuns(ctx, store, base, &out))
		assert.Contains(t, out.String(), "Exported 1 detection runs")
		assert.Contains(t, out.String(), "Exported 1 detection flags")

		for _, suffix := range []string{".detection_runs.parquet", ".detection_flags.parquet"} {
			info, err := os.Stat(base + suffix)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		}
	})

	t.Run("mock store is called with run zero", func(t *testing.T) {
		runs := &MockRunStore{}
		runs.On("ListRuns", ctx).Return([]schema.RunRecord{{RunID: 1, Method: schema.RangeMethod}}, nil)
		runs.On("ListFlags", ctx, mock.AnythingOfType("int64")).Return([]schema.FlagRecord{}, nil)
		require.NoError(t, ExportRuns(ctx, runs, filepath.Join(t.TempDir(), "m"), &bytes.Buffer{}))
		runs.AssertCalled(t, "ListFlags", ctx, int64(0))
	})
}
