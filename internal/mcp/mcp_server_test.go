package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/iostore"
	mcp_internal "github.com/huangsam/outlier/internal/mcp"
	"github.com/huangsam/outlier/schema"
)

func newTestServer(t *testing.T, withStore bool) *server.MCPServer {
	t.Helper()
	baseCfg := &contract.Config{
		Request:     schema.DetectionRequest{Method: schema.StatisticalMethod, Params: schema.StatisticalParams{}},
		ResultLimit: contract.DefaultResultLimit,
		Backend:     schema.SQLiteBackend,
	}
	if !withStore {
		return mcp_internal.NewMCPServer(baseCfg, nil)
	}

	store, err := iostore.NewStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	records := make([]schema.Record, 20)
	for i := range records {
		v := 50.0
		if i == 19 {
			v = 5000
		}
		records[i] = schema.Record{
			ID:         int64(i + 1),
			Value:      schema.Float(v),
			Date:       time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0),
			Attributes: map[string]string{schema.AttrState: "Vermont", schema.AttrMeasure: "Buses"},
		}
	}
	_, err = store.InsertRecords(context.Background(), records)
	require.NoError(t, err)
	return mcp_internal.NewMCPServer(baseCfg, iostore.NewManager(store))
}

func call(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		name    string
		tool    string
		args    map[string]any
		message string
	}{
		{"unknown method", "detect_anomalies", map[string]any{"method": "magic"}, "unknown method"},
		{"negative threshold", "detect_anomalies", map[string]any{"threshold": -2.0}, "threshold"},
		{"period too short", "detect_anomalies", map[string]any{"method": "seasonal_residual", "period": 1.0}, "period"},
		{"bad date", "query_records", map[string]any{"date": "yesterday"}, "invalid filter"},
		{"no record source", "detect_anomalies", map[string]any{}, "no record source"},
		{"no run history", "list_runs", map[string]any{}, "database backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, s, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, text(res), tt.message)
		})
	}
}

func TestMCPServerHandlers_Detect(t *testing.T) {
	s := newTestServer(t, true)

	res := call(t, s, "detect_anomalies", map[string]any{"measure": "Buses"})
	require.False(t, res.IsError, text(res))

	var report schema.DetectionReport
	require.NoError(t, json.Unmarshal([]byte(text(res)), &report))
	assert.Equal(t, schema.StatisticalMethod, report.Method)
	assert.Equal(t, 20, report.TotalRecords)
	require.Len(t, report.Anomalies, 1)
	assert.Equal(t, int64(20), report.Anomalies[0].ID)

	res = call(t, s, "detect_anomalies", map[string]any{"method": "range", "min": 60.0, "limit": 3.0})
	require.False(t, res.IsError, text(res))
	require.NoError(t, json.Unmarshal([]byte(text(res)), &report))
	assert.Equal(t, schema.RangeMethod, report.Method)
	assert.Equal(t, 19, report.FlaggedCount)
	assert.Len(t, report.Anomalies, 3)

	res = call(t, s, "list_runs", map[string]any{"limit": 1.0})
	require.False(t, res.IsError, text(res))
	var runs []schema.RunRecord
	require.NoError(t, json.Unmarshal([]byte(text(res)), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, schema.RangeMethod, runs[0].Method)
	assert.Equal(t, 19, runs[0].FlaggedCount)
}

func TestMCPServerHandlers_Records(t *testing.T) {
	s := newTestServer(t, true)

	res := call(t, s, "query_records", map[string]any{"start": "2023-06-01", "limit": 2.0})
	require.False(t, res.IsError, text(res))
	var records []schema.Record
	require.NoError(t, json.Unmarshal([]byte(text(res)), &records))
	require.Len(t, records, 2)
	assert.Equal(t, int64(20), records[0].ID)

	res = call(t, s, "query_records", map[string]any{"state": "Maine"})
	require.False(t, res.IsError)
	assert.JSONEq(t, "[]", text(res))

	res = call(t, s, "list_filter_options", map[string]any{})
	require.False(t, res.IsError, text(res))
	var opts schema.FilterOptions
	require.NoError(t, json.Unmarshal([]byte(text(res)), &opts))
	assert.Equal(t, []schema.Option{{Value: "Buses", Label: "Buses"}}, opts.Measures)
}
