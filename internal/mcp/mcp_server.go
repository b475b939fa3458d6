// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/metrics"
)

// filterArgs are the record filter arguments shared by the record-reading tools.
func filterArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("port_name", mcp.Description("Only records of this port.")),
		mcp.WithString("state", mcp.Description("Only records of this state.")),
		mcp.WithString("border", mcp.Description("Only records of this border.")),
		mcp.WithString("measure", mcp.Description("Only records of this measure (e.g., 'Trucks').")),
		mcp.WithNumber("port_code", mcp.Description("Only records of this port code.")),
		mcp.WithString("date", mcp.Description("Only records of this month (e.g., '2024-01-01' or 'Jan 2024').")),
		mcp.WithString("start", mcp.Description("Only records on or after this date.")),
		mcp.WithString("end", mcp.Description("Only records on or before this date.")),
		mcp.WithString("input", mcp.Description("CSV or parquet file to read instead of the record store.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	}
}

// NewMCPServer initializes and configures the outlier MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Outlier Anomaly Detection Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
		rec:     metrics.Default(),
	}

	// --- 1. Tool: detect_anomalies ---
	detectOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Flag anomalous monthly counts with range, statistical (z-score) or seasonal residual detection."),
		mcp.WithString("method", mcp.Description("Detection method. Defaults to 'statistical'."),
			mcp.Enum("range", "statistical", "seasonal_residual")),
		mcp.WithNumber("threshold", mcp.Description("Z-score threshold for statistical and seasonal_residual. Defaults to 3.")),
		mcp.WithNumber("min", mcp.Description("Lower bound for range detection.")),
		mcp.WithNumber("max", mcp.Description("Upper bound for range detection.")),
		mcp.WithNumber("period", mcp.Description("Season length in months for seasonal_residual. Defaults to 12.")),
		mcp.WithString("model", mcp.Description("Decomposition model for seasonal_residual."),
			mcp.Enum("additive", "multiplicative")),
	}, filterArgs()...)
	s.AddTool(mcp.NewTool("detect_anomalies", detectOpts...), h.handleDetectAnomalies)

	// --- 2. Tool: list_filter_options ---
	s.AddTool(mcp.NewTool("list_filter_options",
		mcp.WithDescription("List the distinct ports, states, borders, measures, dates and detection methods available for filtering."),
		mcp.WithString("input", mcp.Description("CSV or parquet file to read instead of the record store.")),
	), h.handleListFilterOptions)

	// --- 3. Tool: query_records ---
	recordOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Return the records matching a filter, newest first."),
	}, filterArgs()...)
	s.AddTool(mcp.NewTool("query_records", recordOpts...), h.handleQueryRecords)

	// --- 4. Tool: list_runs ---
	s.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List the most recent detection runs stored in the run history."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of runs returned.")),
	), h.handleListRuns)

	return s
}

// StartMCPServer starts the outlier MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
