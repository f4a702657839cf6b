package schema

import "time"

// Scoring defaults. Thresholds are expressed in days or percentage points.
const (
	DefaultTrendWindow     = 5   // history points used for the trend slope
	DefaultStaleAfterDays  = 30  // age at which a record counts as stale
	DefaultHardStaleDays   = 180 // age at which recency floors regardless
	DefaultBehindTargetGap = 20  // percentage points behind target that fire risk
)

// ScoringConfig carries every weight and threshold the scoring and
// prediction engine uses. It is passed explicitly into the engine so each
// score computation is reproducible from its inputs alone.
type ScoringConfig struct {
	Weights    map[FactorKey]float64  // health factor weights, sum to 1.0
	RiskPoints map[RiskFactor]float64 // additive risk point values

	TrendWindow     int           // history points for the slope, >= 2
	StaleAfter      time.Duration // stale threshold for recency decay and risk
	HardStale       time.Duration // recency hard floor ceiling
	BehindTargetGap float64       // percentage points behind target
}

// DefaultScoringConfig returns the engine defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights:         GetDefaultWeights(),
		RiskPoints:      GetDefaultRiskPoints(),
		TrendWindow:     DefaultTrendWindow,
		StaleAfter:      DefaultStaleAfterDays * 24 * time.Hour,
		HardStale:       DefaultHardStaleDays * 24 * time.Hour,
		BehindTargetGap: DefaultBehindTargetGap,
	}
}
