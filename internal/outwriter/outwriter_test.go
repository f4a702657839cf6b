package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kpilens/kpilens/internal/contract"
	"github.com/kpilens/kpilens/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *contract.Config {
	return &contract.Config{
		ResultLimit:  25,
		Workers:      4,
		Precision:    1,
		Output:       schema.TextOut,
		Width:        200,
		StoreBackend: schema.NoneBackend,
	}
}

func scoredRecord(name string, health, risk float64) schema.KpiRecord {
	cur := 62.0
	tgt := 90.0
	return schema.KpiRecord{
		ID:           "kpi-" + strings.ToLower(name),
		Name:         name,
		Project:      "Apollo",
		Goal:         "Retention",
		Owner:        "Dana Reyes",
		CurrentValue: &cur,
		TargetValue:  &tgt,
		Unit:         schema.UnitPercent,
		Status:       schema.OnTrack,
		LastUpdated:  time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
		Confidence:   0.9,
		Derived: &schema.DerivedFields{
			HealthScore: health,
			RiskScore:   risk,
			Breakdown: map[schema.FactorKey]float64{
				schema.FactorCompletion: 27.6,
				schema.FactorTrend:      18.8,
				schema.FactorStatus:     15.0,
				schema.FactorRecency:    13.5,
			},
			RiskFactors: []schema.RiskFactor{schema.RiskBehindTarget},
			Insights:    []string{"On course: keep the current cadence"},
		},
	}
}

func TestWriteJSONResultsForRecords(t *testing.T) {
	records := []schema.KpiRecord{scoredRecord("Customer satisfaction", 81.5, 85)}

	var buf bytes.Buffer
	err := writeJSONResultsForRecords(&buf, records)
	require.NoError(t, err)

	// Parse the JSON to verify structure
	var result []map[string]any
	err = json.Unmarshal(buf.Bytes(), &result)
	require.NoError(t, err)
	require.Len(t, result, 1)

	assert.Equal(t, float64(1), result[0]["rank"])
	assert.Equal(t, "Customer satisfaction", result[0]["name"])
	assert.Equal(t, "Critical", result[0]["label"])

	derived, ok := result[0]["derived"].(map[string]any)
	require.True(t, ok, "derived fields should be embedded")
	assert.Equal(t, 81.5, derived["health_score"])
}

func TestWriteCSVResultsForRecords(t *testing.T) {
	fmtFloat, _ := createFormatters(2)
	records := []schema.KpiRecord{scoredRecord("Churn rate", 55.25, 45)}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(recordCSVHeader()))
	err := writeCSVResultsForRecords(w, records, fmtFloat)
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2) // header + 1 row

	assert.Contains(t, lines[0], "rank")
	assert.Contains(t, lines[0], "health_score")
	assert.Contains(t, lines[0], "risk_factors")

	assert.Contains(t, lines[1], "Churn rate")
	assert.Contains(t, lines[1], "55.25")
	assert.Contains(t, lines[1], "behind_target")
	assert.Contains(t, lines[1], "Moderate")
}

func TestWriteCSVResultsEmptyRecords(t *testing.T) {
	fmtFloat, _ := createFormatters(2)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(recordCSVHeader()))
	err := writeCSVResultsForRecords(w, nil, fmtFloat)
	require.NoError(t, err)
	w.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "rank")
}

func TestWriteRecordTable(t *testing.T) {
	cfg := testConfig()
	fmtFloat, _ := createFormatters(cfg.Precision)
	records := []schema.KpiRecord{
		scoredRecord("Customer satisfaction", 81.5, 20),
		scoredRecord("Deployment frequency", 42.0, 65),
	}

	var buf bytes.Buffer
	err := writeRecordTable(records, cfg, fmtFloat, 42*time.Millisecond, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Customer satisfaction")
	assert.Contains(t, out, "Deployment frequency")
	assert.Contains(t, out, "62.0%")
	assert.Contains(t, out, "Showing top 2 KPIs")
	assert.Contains(t, out, "Store backend: none")
	// Explain is off, so no insight lines
	assert.NotContains(t, out, "Insights:")
}

func TestWriteRecordTableDetailAndExplain(t *testing.T) {
	cfg := testConfig()
	cfg.Detail = true
	cfg.Explain = true
	fmtFloat, _ := createFormatters(cfg.Precision)
	records := []schema.KpiRecord{scoredRecord("Customer satisfaction", 81.5, 20)}

	var buf bytes.Buffer
	err := writeRecordTable(records, cfg, fmtFloat, time.Millisecond, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "27.6")
	assert.Contains(t, out, "behind target")
	assert.Contains(t, out, "Insights:")
	assert.Contains(t, out, "On course: keep the current cadence")
}

func TestWriteRecordTableUnscored(t *testing.T) {
	cfg := testConfig()
	fmtFloat, _ := createFormatters(cfg.Precision)
	records := []schema.KpiRecord{{Name: "Unscored KPI", Status: schema.NotStarted}}

	var buf bytes.Buffer
	err := writeRecordTable(records, cfg, fmtFloat, time.Millisecond, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Unscored KPI")
	assert.Contains(t, out, "-") // nil values render as a dash
}

func TestWritePortfolioSummary(t *testing.T) {
	fmtFloat, _ := createFormatters(1)
	metrics := schema.PortfolioMetrics{
		TotalRecords:   4,
		OnTrack:        2,
		AtRisk:         1,
		NotStarted:     1,
		AvgHealth:      64.25,
		AvgRisk:        31.5,
		AvgCompletion:  58.0,
		UniqueOwners:   3,
		UniqueProjects: 2,
	}

	var buf bytes.Buffer
	err := writePortfolioSummary(metrics, fmtFloat, &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "4 KPIs across 2 projects with 3 owners")
	assert.Contains(t, out, "2 on track, 1 at risk")
	assert.Contains(t, out, "health 64.2, risk 31.5")
}

func TestWritePortfolioCSVResults(t *testing.T) {
	cfg := testConfig()
	cfg.Output = schema.CSVOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "portfolio.csv")
	fmtFloat, _ := createFormatters(cfg.Precision)
	metrics := schema.PortfolioMetrics{TotalRecords: 3, OnTrack: 2, AvgHealth: 70.5}

	err := writePortfolioCSVResults(metrics, cfg, fmtFloat)
	require.NoError(t, err)

	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	out := string(content)
	assert.Contains(t, out, "metric,value")
	assert.Contains(t, out, "total_records,3")
	assert.Contains(t, out, "avg_health,70.5")
}

func TestPrintPortfolioResultsJSONToFile(t *testing.T) {
	cfg := testConfig()
	cfg.Output = schema.JSONOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "portfolio.json")
	metrics := schema.PortfolioMetrics{TotalRecords: 1, OnTrack: 1, AvgHealth: 81.5}
	records := []schema.KpiRecord{scoredRecord("Customer satisfaction", 81.5, 20)}

	err := PrintPortfolioResults(metrics, records, cfg, time.Millisecond)
	require.NoError(t, err)

	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)

	var parsed struct {
		Metrics schema.PortfolioMetrics `json:"metrics"`
		Records []struct {
			Rank  int    `json:"rank"`
			Label string `json:"label"`
			Name  string `json:"name"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(content, &parsed))
	assert.Equal(t, 1, parsed.Metrics.TotalRecords)
	require.Len(t, parsed.Records, 1)
	assert.Equal(t, 1, parsed.Records[0].Rank)
	assert.Equal(t, "Customer satisfaction", parsed.Records[0].Name)
	assert.Equal(t, "Low", parsed.Records[0].Label)
}

func TestFormatTopFactorBreakdown(t *testing.T) {
	rec := scoredRecord("Any", 80, 20)
	out := formatTopFactorBreakdown(rec.Derived)
	assert.Equal(t, "completion > trend > status", out)

	assert.Equal(t, "Not applicable", formatTopFactorBreakdown(nil))
	assert.Equal(t, "Not applicable", formatTopFactorBreakdown(&schema.DerivedFields{}))
}

func TestFormatRiskFactors(t *testing.T) {
	rec := scoredRecord("Any", 80, 20)
	assert.Equal(t, "behind target", formatRiskFactors(rec.Derived))
	assert.Equal(t, "None", formatRiskFactors(nil))
	assert.Equal(t, "None", formatRiskFactors(&schema.DerivedFields{}))
}

func TestFormatValue(t *testing.T) {
	fmtFloat, _ := createFormatters(1)
	v := 42.5
	assert.Equal(t, "42.5%", formatValue(&v, schema.UnitPercent, fmtFloat))
	assert.Equal(t, "$42.5", formatValue(&v, schema.UnitCurrency, fmtFloat))
	assert.Equal(t, "42.5", formatValue(&v, schema.UnitRaw, fmtFloat))
	assert.Equal(t, "-", formatValue(nil, schema.UnitPercent, fmtFloat))
}

func TestGetMaxTableNameWidth(t *testing.T) {
	cfg := testConfig()
	cfg.Width = 300
	assert.Equal(t, 50, getMaxTableNameWidth(cfg), "wide terminals are capped")

	cfg.Width = 40
	assert.Equal(t, 15, getMaxTableNameWidth(cfg), "narrow terminals get the floor")

	cfg.Width = 160
	cfg.Detail = true
	cfg.Explain = true
	assert.Equal(t, 15, getMaxTableNameWidth(cfg), "extra columns squeeze the name")
}
