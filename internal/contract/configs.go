package contract

import (
	"fmt"
	"maps"
	"runtime"
	"strings"
	"time"

	"github.com/kpilens/kpilens/schema"
)

// Default values for configuration.
const (
	DefaultResultLimit = 25
	MaxResultLimit     = 1000
	DefaultPrecision   = 1
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// WeightsRawInput holds custom health factor weights from the YAML config
// file. Use float64 pointers so absent fields fall back to defaults.
type WeightsRawInput struct {
	Completion *float64 `mapstructure:"completion"`
	Trend      *float64 `mapstructure:"trend"`
	Status     *float64 `mapstructure:"status"`
	Recency    *float64 `mapstructure:"recency"`
}

// RiskPointsRawInput holds custom risk point values from the YAML config file.
type RiskPointsRawInput struct {
	StaleData     *float64 `mapstructure:"stale_data"`
	BehindTarget  *float64 `mapstructure:"behind_target"`
	NegativeTrend *float64 `mapstructure:"negative_trend"`
	MissingOwner  *float64 `mapstructure:"missing_owner"`
	BadStatus     *float64 `mapstructure:"bad_status"`
}

// Config holds the runtime configuration for a kpilens invocation.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath   string
	Kind        schema.DocumentKind
	AsOf        time.Time
	ResultLimit int
	Workers     int
	Detail      bool
	Explain     bool
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)

	Scoring     schema.ScoringConfig
	SaveToStore bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Limit          int    `mapstructure:"limit"`
	Workers        int    `mapstructure:"workers"`
	Kind           string `mapstructure:"kind"`
	AsOf           string `mapstructure:"as-of"`
	Precision      int    `mapstructure:"precision"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Detail         bool   `mapstructure:"detail"`
	Explain        bool   `mapstructure:"explain"`
	Width          int    `mapstructure:"width"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	Color          string `mapstructure:"color"`

	Save bool `mapstructure:"save"`

	// --- Scoring thresholds from config file ---
	TrendWindow     int     `mapstructure:"trend-window"`
	StaleAfterDays  int     `mapstructure:"stale-after-days"`
	BehindTargetGap float64 `mapstructure:"behind-target-gap"`

	// --- Custom weights from config file ---
	Weights WeightsRawInput `mapstructure:"weights"`

	// --- Custom risk points from config file ---
	RiskPoints RiskPointsRawInput `mapstructure:"risk_points"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Scoring.Weights != nil {
		clone.Scoring.Weights = make(map[schema.FactorKey]float64)
		maps.Copy(clone.Scoring.Weights, c.Scoring.Weights)
	}
	if c.Scoring.RiskPoints != nil {
		clone.Scoring.RiskPoints = make(map[schema.RiskFactor]float64)
		maps.Copy(clone.Scoring.RiskPoints, c.Scoring.RiskPoints)
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processAsOf(cfg, input); err != nil {
		return err
	}
	if err := processScoring(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database
// connection strings for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates all non-scoring fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.InputPath = input.InputPathStr
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Explain = input.Explain
	cfg.Width = input.Width
	cfg.SaveToStore = input.Save

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 3. Kind Validation ---
	cfg.Kind = schema.DocumentKind(strings.ToLower(input.Kind))
	if _, ok := schema.ValidDocumentKinds[cfg.Kind]; !ok {
		return fmt.Errorf("invalid kind '%s'. must be sow, requirements, charter, freetext", input.Kind)
	}

	// --- 4. Precision and Output Validation ---
	if input.Precision < 0 || input.Precision > 2 {
		return fmt.Errorf("precision must be 0, 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", cfg.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	// --- 5. Backend Validation ---
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidStoreBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	return nil
}

// processAsOf resolves the scoring clock. An empty --as-of means "now" so
// scores reflect the current moment; a pinned clock makes runs reproducible.
func processAsOf(cfg *Config, input *ConfigRawInput) error {
	if strings.TrimSpace(input.AsOf) == "" {
		cfg.AsOf = time.Now()
		return nil
	}
	if t, err := time.Parse(DateTimeFormat, input.AsOf); err == nil {
		cfg.AsOf = t
		return nil
	}
	t, err := time.Parse("2006-01-02", input.AsOf)
	if err != nil {
		return fmt.Errorf("invalid --as-of value '%s'. Expected ISO8601 or YYYY-MM-DD", input.AsOf)
	}
	cfg.AsOf = t
	return nil
}

// processScoring merges custom weights, risk points and thresholds over the
// engine defaults, then validates the result.
func processScoring(cfg *Config, input *ConfigRawInput) error {
	scoring := schema.DefaultScoringConfig()

	weightOverrides := map[schema.FactorKey]*float64{
		schema.FactorCompletion: input.Weights.Completion,
		schema.FactorTrend:      input.Weights.Trend,
		schema.FactorStatus:     input.Weights.Status,
		schema.FactorRecency:    input.Weights.Recency,
	}
	customized := false
	for key, v := range weightOverrides {
		if v != nil {
			scoring.Weights[key] = *v
			customized = true
		}
	}
	if customized {
		sum := 0.0
		for _, w := range scoring.Weights {
			sum += w
		}
		if sum < 0.999 || sum > 1.001 {
			return fmt.Errorf("custom weights must sum to 1.0, got %.3f", sum)
		}
	}

	pointOverrides := map[schema.RiskFactor]*float64{
		schema.RiskStaleData:     input.RiskPoints.StaleData,
		schema.RiskBehindTarget:  input.RiskPoints.BehindTarget,
		schema.RiskNegativeTrend: input.RiskPoints.NegativeTrend,
		schema.RiskMissingOwner:  input.RiskPoints.MissingOwner,
		schema.RiskBadStatus:     input.RiskPoints.BadStatus,
	}
	for factor, v := range pointOverrides {
		if v == nil {
			continue
		}
		if *v < 0 || *v > 100 {
			return fmt.Errorf("risk points for %s must be between 0 and 100 (received %.2f)", factor, *v)
		}
		scoring.RiskPoints[factor] = *v
	}

	if input.TrendWindow != 0 {
		if input.TrendWindow < 2 {
			return fmt.Errorf("trend-window must be at least 2 (received %d)", input.TrendWindow)
		}
		scoring.TrendWindow = input.TrendWindow
	}
	if input.StaleAfterDays != 0 {
		if input.StaleAfterDays < 1 {
			return fmt.Errorf("stale-after-days must be at least 1 (received %d)", input.StaleAfterDays)
		}
		scoring.StaleAfter = time.Duration(input.StaleAfterDays) * 24 * time.Hour
	}
	if input.BehindTargetGap != 0 {
		if input.BehindTargetGap < 0 || input.BehindTargetGap > 100 {
			return fmt.Errorf("behind-target-gap must be between 0 and 100 (received %.2f)", input.BehindTargetGap)
		}
		scoring.BehindTargetGap = input.BehindTargetGap
	}

	cfg.Scoring = scoring
	return nil
}
