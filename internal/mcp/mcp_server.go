// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/kpilens/kpilens/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the KpiLens MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"KpiLens Scoring Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: extract_kpis ---
	s.AddTool(mcp.NewTool("extract_kpis",
		mcp.WithDescription("Extract KPI candidates from unstructured document text, then validate, score and rank them."),
		mcp.WithString("text", mcp.Description("The document text to extract KPIs from."), mcp.Required()),
		mcp.WithString("kind", mcp.Description("Document kind (sow, requirements, charter, freetext). Defaults to 'freetext'."), mcp.Enum("sow", "requirements", "charter", "freetext")),
		mcp.WithString("as_of", mcp.Description("Reference date for scoring in RFC3339 or YYYY-MM-DD form (defaults to now).")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleExtractKpis)

	// --- 2. Tool: score_kpi_rows ---
	s.AddTool(mcp.NewTool("score_kpi_rows",
		mcp.WithDescription("Score structured KPI rows. Accepts a JSON array of objects with columns like name, current, target, status, owner."),
		mcp.WithString("rows", mcp.Description("JSON array of row objects to score."), mcp.Required()),
		mcp.WithString("as_of", mcp.Description("Reference date for scoring in RFC3339 or YYYY-MM-DD form (defaults to now).")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleScoreKpiRows)

	// --- 3. Tool: get_portfolio ---
	s.AddTool(mcp.NewTool("get_portfolio",
		mcp.WithDescription("Rescore every persisted KPI record and return portfolio rollups plus the ranked records."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of records returned.")),
	), h.handleGetPortfolio)

	return s
}

// StartMCPServer starts the KpiLens MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
