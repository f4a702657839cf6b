package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kpilens/kpilens/core"
	"github.com/kpilens/kpilens/internal/contract"
	"github.com/kpilens/kpilens/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

func (h *toolHandler) handleExtractKpis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if k := request.GetString("kind", ""); k != "" {
		cfg.Kind = schema.DocumentKind(k)
	}
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}
	if err := applyAsOf(cfg, request.GetString("as_of", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid as_of date: %v", err)), nil
	}

	text := request.GetString("text", "")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	candidates, err := core.NewPipeline().Extract(text, cfg.Kind, cfg.AsOf)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extraction failed: %v", err)), nil
	}

	ranked := scoreAndRank(ctx, cfg, candidates)
	jsonData, _ := json.MarshalIndent(ranked, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleScoreKpiRows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}
	if err := applyAsOf(cfg, request.GetString("as_of", "")); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid as_of date: %v", err)), nil
	}

	rowsJSON := request.GetString("rows", "")
	if rowsJSON == "" {
		return mcp.NewToolResultError("rows is required"), nil
	}
	var rawRows []map[string]any
	if err := json.Unmarshal([]byte(rowsJSON), &rawRows); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid rows payload: %v", err)), nil
	}

	candidates := make([]schema.KpiRecord, 0, len(rawRows))
	for i, raw := range rawRows {
		row := make(map[string]string, len(raw))
		for k, v := range raw {
			if v == nil {
				continue
			}
			row[k] = fmt.Sprintf("%v", v)
		}
		rec, err := core.RowToRecord(row, cfg.AsOf)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("row %d is invalid: %v", i+1, err)), nil
		}
		candidates = append(candidates, rec)
	}

	ranked := scoreAndRank(ctx, cfg, candidates)
	jsonData, _ := json.MarshalIndent(ranked, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetPortfolio(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if l := request.GetInt("limit", 0); l > 0 {
		cfg.ResultLimit = l
	}

	if h.mgr == nil {
		return mcp.NewToolResultError("portfolio requires a configured record store"), nil
	}
	store := h.mgr.GetRecordStore()
	if store == nil {
		return mcp.NewToolResultError("portfolio requires a configured record store"), nil
	}
	records, err := store.ListRecords()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading records failed: %v", err)), nil
	}

	records = core.ScoreAll(ctx, cfg, records)
	metrics := core.BuildPortfolioMetrics(records)
	ranked := core.RankRecords(records, cfg.ResultLimit)

	result := struct {
		Metrics schema.PortfolioMetrics `json:"metrics"`
		Records []schema.KpiRecord      `json:"records"`
	}{Metrics: metrics, Records: ranked}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

// scoreAndRank runs the shared validate, score and rank tail of every tool.
func scoreAndRank(ctx context.Context, cfg *contract.Config, candidates []schema.KpiRecord) []schema.KpiRecord {
	validator := core.NewValidator()
	records := make([]schema.KpiRecord, 0, len(candidates))
	for _, rec := range candidates {
		validated, err := validator.Validate(rec, cfg.AsOf)
		if err != nil {
			continue
		}
		records = append(records, validated)
	}
	records = core.ScoreAll(ctx, cfg, records)
	return core.RankRecords(records, cfg.ResultLimit)
}

// applyAsOf parses the optional as_of argument into the config clock.
func applyAsOf(cfg *contract.Config, asOf string) error {
	if asOf == "" {
		if cfg.AsOf.IsZero() {
			cfg.AsOf = time.Now()
		}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, asOf); err == nil {
		cfg.AsOf = t
		return nil
	}
	t, err := time.Parse("2006-01-02", asOf)
	if err != nil {
		return err
	}
	cfg.AsOf = t
	return nil
}
