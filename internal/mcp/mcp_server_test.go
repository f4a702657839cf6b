package mcp_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/kpilens/kpilens/internal/contract"
	mcp_internal "github.com/kpilens/kpilens/internal/mcp"
	"github.com/kpilens/kpilens/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() *contract.Config {
	return &contract.Config{
		Kind:        schema.FreeTextDoc,
		ResultLimit: 25,
		Workers:     4,
		Precision:   1,
		Output:      schema.TextOut,
		AsOf:        time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Scoring:     schema.DefaultScoringConfig(),
	}
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	// A nil manager is fine here because these calls fail before touching the store
	var mgr contract.StoreManager
	s := mcp_internal.NewMCPServer(baseConfig(), mgr)

	ctx := context.Background()

	t.Run("extract_kpis missing text", func(t *testing.T) {
		tool := s.GetTool("extract_kpis")
		require.NotNil(t, tool, "Tool extract_kpis should exist")

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "extract_kpis",
				Arguments: map[string]any{"text": ""},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "text is required")
	})

	t.Run("extract_kpis invalid as_of", func(t *testing.T) {
		tool := s.GetTool("extract_kpis")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name: "extract_kpis",
				Arguments: map[string]any{
					"text":  "Target: 90%",
					"as_of": "not-a-date",
				},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "invalid as_of date")
	})

	t.Run("score_kpi_rows invalid payload", func(t *testing.T) {
		tool := s.GetTool("score_kpi_rows")
		require.NotNil(t, tool, "Tool score_kpi_rows should exist")

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "score_kpi_rows",
				Arguments: map[string]any{"rows": "{not json"},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "invalid rows payload")
	})

	t.Run("get_portfolio without store", func(t *testing.T) {
		tool := s.GetTool("get_portfolio")
		require.NotNil(t, tool, "Tool get_portfolio should exist")

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "get_portfolio",
				Arguments: map[string]any{},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "record store")
	})
}

func TestMCPServerScoreKpiRows(t *testing.T) {
	var mgr contract.StoreManager
	s := mcp_internal.NewMCPServer(baseConfig(), mgr)

	tool := s.GetTool("score_kpi_rows")
	require.NotNil(t, tool)

	rows := `[
		{"name": "Customer satisfaction", "current": 62, "target": 90, "status": "on_track", "owner": "Dana Reyes"},
		{"name": "Deployment frequency", "current": 4, "target": 10}
	]`
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: "score_kpi_rows",
			Arguments: map[string]any{
				"rows":  rows,
				"as_of": "2026-02-01",
			},
		},
	}

	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)

	var records []schema.KpiRecord
	text := res.Content[0].(mcp.TextContent).Text
	require.NoError(t, json.Unmarshal([]byte(text), &records))
	require.Len(t, records, 2)

	for _, rec := range records {
		require.NotNil(t, rec.Derived, "every record should carry derived scores")
		assert.GreaterOrEqual(t, rec.Derived.HealthScore, 0.0)
		assert.LessOrEqual(t, rec.Derived.HealthScore, 100.0)
	}
}
