package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpilens/kpilens/schema"
)

func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		Limit:        DefaultResultLimit,
		Workers:      4,
		Kind:         "freetext",
		Precision:    DefaultPrecision,
		Output:       "text",
		StoreBackend: "none",
		Color:        "no",
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, schema.FreeTextDoc, cfg.Kind)
	assert.Equal(t, DefaultResultLimit, cfg.ResultLimit)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.Equal(t, schema.NoneBackend, cfg.StoreBackend)
	assert.False(t, cfg.UseColors)
	assert.WithinDuration(t, time.Now(), cfg.AsOf, time.Minute)
	assert.Equal(t, schema.DefaultScoringConfig().Weights, cfg.Scoring.Weights)
}

func TestProcessAndValidateRejectsBadInputs(t *testing.T) {
	for name, mutate := range map[string]func(*ConfigRawInput){
		"zero limit":      func(in *ConfigRawInput) { in.Limit = 0 },
		"huge limit":      func(in *ConfigRawInput) { in.Limit = MaxResultLimit + 1 },
		"zero workers":    func(in *ConfigRawInput) { in.Workers = 0 },
		"bad kind":        func(in *ConfigRawInput) { in.Kind = "pdf" },
		"bad precision":   func(in *ConfigRawInput) { in.Precision = 5 },
		"bad output":      func(in *ConfigRawInput) { in.Output = "xml" },
		"bad backend":     func(in *ConfigRawInput) { in.StoreBackend = "oracle" },
		"bad color":       func(in *ConfigRawInput) { in.Color = "maybe" },
		"bad as-of":       func(in *ConfigRawInput) { in.AsOf = "yesterday-ish" },
		"parquet no file": func(in *ConfigRawInput) { in.Output = "parquet" },
	} {
		in := validInput()
		mutate(in)
		assert.Error(t, ProcessAndValidate(&Config{}, in), name)
	}
}

func TestProcessAndValidateAsOf(t *testing.T) {
	in := validInput()
	in.AsOf = "2026-06-01"
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, in))
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), cfg.AsOf)
}

func TestProcessAndValidateCustomWeights(t *testing.T) {
	half := 0.5
	quarter := 0.25
	in := validInput()
	in.Weights = WeightsRawInput{Completion: &half, Trend: &quarter}

	// 0.5 + 0.25 + defaults 0.20 + 0.15 does not sum to 1.0
	assert.Error(t, ProcessAndValidate(&Config{}, in))

	tenth := 0.10
	fifteenth := 0.15
	in.Weights = WeightsRawInput{Completion: &half, Trend: &quarter, Status: &tenth, Recency: &fifteenth}
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, in))
	assert.Equal(t, 0.5, cfg.Scoring.Weights[schema.FactorCompletion])
}

func TestProcessAndValidateRiskPoints(t *testing.T) {
	forty := 40.0
	in := validInput()
	in.RiskPoints = RiskPointsRawInput{StaleData: &forty}
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, in))
	assert.Equal(t, 40.0, cfg.Scoring.RiskPoints[schema.RiskStaleData])
	// untouched factors keep defaults
	assert.Equal(t, 30.0, cfg.Scoring.RiskPoints[schema.RiskBehindTarget])

	over := 150.0
	in.RiskPoints = RiskPointsRawInput{BadStatus: &over}
	assert.Error(t, ProcessAndValidate(&Config{}, in))
}

func TestProcessAndValidateThresholds(t *testing.T) {
	in := validInput()
	in.TrendWindow = 10
	in.StaleAfterDays = 14
	in.BehindTargetGap = 35
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, in))
	assert.Equal(t, 10, cfg.Scoring.TrendWindow)
	assert.Equal(t, 14*24*time.Hour, cfg.Scoring.StaleAfter)
	assert.Equal(t, 35.0, cfg.Scoring.BehindTargetGap)

	in.TrendWindow = 1
	assert.Error(t, ProcessAndValidate(&Config{}, in))
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	assert.NoError(t, ValidateDatabaseConnectionString(schema.SQLiteBackend, ""))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.NoneBackend, ""))

	assert.Error(t, ValidateDatabaseConnectionString(schema.MySQLBackend, ""))
	assert.Error(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "user:pass@host/db"))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.MySQLBackend, "user:pass@tcp(localhost:3306)/kpilens"))

	assert.Error(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "host=localhost"))
	assert.NoError(t, ValidateDatabaseConnectionString(schema.PostgreSQLBackend, "host=localhost dbname=kpilens sslmode=disable"))
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Scoring: schema.DefaultScoringConfig()}
	clone := cfg.Clone()
	clone.Scoring.Weights[schema.FactorCompletion] = 0.9
	assert.Equal(t, 0.40, cfg.Scoring.Weights[schema.FactorCompletion])
}
