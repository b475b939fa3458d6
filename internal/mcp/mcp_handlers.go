package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/outlier/core"
	"github.com/huangsam/outlier/internal/contract"
	"github.com/huangsam/outlier/internal/metrics"
	"github.com/huangsam/outlier/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
	rec     *metrics.Recorder
}

// argString returns a string or numeric argument as a string, or "" when absent.
func argString(request mcp.CallToolRequest, key string) string {
	switch v := request.GetArguments()[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// requestConfig copies the base config and applies the tool arguments to it.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := *h.baseCfg
	raw := &contract.ConfigRawInput{
		Method:    argString(request, "method"),
		Threshold: argString(request, "threshold"),
		Min:       argString(request, "min"),
		Max:       argString(request, "max"),
		Period:    argString(request, "period"),
		Model:     argString(request, "model"),
		PortName:  argString(request, "port_name"),
		State:     argString(request, "state"),
		Border:    argString(request, "border"),
		Measure:   argString(request, "measure"),
		PortCode:  argString(request, "port_code"),
		Date:      argString(request, "date"),
		Start:     argString(request, "start"),
		End:       argString(request, "end"),
	}
	if err := contract.ProcessQuery(&cfg, raw); err != nil {
		return nil, err
	}
	if in := request.GetString("input", ""); in != "" {
		cfg.Input = in
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = min(l, contract.MaxResultLimit)
	}
	return &cfg, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleDetectAnomalies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid detection parameters: %v", err)), nil
	}

	report, err := core.RunDetection(core.WithSuppressHeader(ctx), cfg, h.mgr, h.rec)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("detection failed: %v", err)), nil
	}
	return jsonResult(report), nil
}

func (h *toolHandler) handleListFilterOptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := *h.baseCfg
	if in := request.GetString("input", ""); in != "" {
		cfg.Input = in
	}

	opts, err := core.GetFilterOptions(ctx, &cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing filter options failed: %v", err)), nil
	}
	return jsonResult(opts), nil
}

func (h *toolHandler) handleQueryRecords(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid filter: %v", err)), nil
	}

	var store contract.RecordStore
	if h.mgr != nil {
		store = h.mgr.GetRecordStore()
	}
	records, err := core.LoadRecords(ctx, cfg, store)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	if cfg.ResultLimit > 0 && len(records) > cfg.ResultLimit {
		records = records[:cfg.ResultLimit]
	}
	if records == nil {
		records = []schema.Record{}
	}
	return jsonResult(records), nil
}

func (h *toolHandler) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var runs contract.RunStore
	if h.mgr != nil {
		runs = h.mgr.GetRunStore()
	}
	if runs == nil {
		return mcp.NewToolResultError("run history needs a database backend"), nil
	}

	records, err := runs.ListRuns(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing runs failed: %v", err)), nil
	}
	limit := h.baseCfg.ResultLimit
	if l := request.GetInt("limit", 0); l > 0 {
		limit = l
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	if records == nil {
		records = []schema.RunRecord{}
	}
	return jsonResult(records), nil
}
