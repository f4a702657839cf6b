package core

import (
	"math"
	"strings"
	"time"

	"github.com/kpilens/kpilens/schema"
)

const neutralFactor = 50.0

// Engine computes health and risk scores for validated records. Scoring is
// pure: the same record, clock and config always produce the same output,
// and the input record is never mutated.
type Engine struct {
	cfg schema.ScoringConfig
}

// NewEngine returns a scoring engine with the given config.
func NewEngine(cfg schema.ScoringConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Score computes every derived field for one record as of the given clock.
func (e *Engine) Score(rec schema.KpiRecord, now time.Time) schema.DerivedFields {
	history := rec.CloneHistory()

	factors := map[schema.FactorKey]float64{
		schema.FactorCompletion: e.completionFactor(rec),
		schema.FactorTrend:      e.trendFactor(history),
		schema.FactorStatus:     statusFactor(rec.Status),
		schema.FactorRecency:    e.recencyFactor(rec.LastUpdated, now),
	}

	breakdown := make(map[schema.FactorKey]float64, len(factors))
	health := 0.0
	for key, factor := range factors {
		weighted := e.cfg.Weights[key] * factor
		breakdown[key] = weighted
		health += weighted
	}

	risk, riskFactors := e.riskScore(rec, history, now)
	derived := schema.DerivedFields{
		HealthScore:         clamp(health, 0, 100),
		RiskScore:           risk,
		Breakdown:           breakdown,
		RiskFactors:         riskFactors,
		PredictedCompletion: e.PredictCompletion(rec, history),
	}
	derived.Insights = buildInsights(rec, derived)
	return derived
}

// completionFactor measures progress toward the target. Without both a
// current and a target value the factor sits at the neutral midpoint.
func (e *Engine) completionFactor(rec schema.KpiRecord) float64 {
	pct, ok := completionPercent(rec)
	if !ok {
		return neutralFactor
	}
	return clamp(pct, 0, 100)
}

// completionPercent returns the percent of target reached, when computable.
// A baseline shifts the zero point, and a target equal to the baseline makes
// the percentage undefined.
func completionPercent(rec schema.KpiRecord) (float64, bool) {
	if rec.CurrentValue == nil || rec.TargetValue == nil {
		return 0, false
	}
	baseline := 0.0
	if rec.BaselineValue != nil {
		baseline = *rec.BaselineValue
	}
	span := *rec.TargetValue - baseline
	if span == 0 {
		return 0, false
	}
	pct := (*rec.CurrentValue - baseline) / span * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, false
	}
	return pct, true
}

// trendFactor maps the recent slope of history onto 0-100, centered on the
// neutral midpoint. Fewer than two points give no signal.
func (e *Engine) trendFactor(history []schema.Snapshot) float64 {
	slope, ok := historySlope(history, e.cfg.TrendWindow)
	if !ok {
		return neutralFactor
	}
	return neutralFactor + clamp(slope*10, -neutralFactor, neutralFactor)
}

// historySlope returns the least-squares slope, in value units per day, over
// the last windowSize points of history.
func historySlope(history []schema.Snapshot, windowSize int) (float64, bool) {
	if windowSize > 0 && len(history) > windowSize {
		history = history[len(history)-windowSize:]
	}
	if len(history) < 2 {
		return 0, false
	}
	origin := history[0].Date
	var sumX, sumY, sumXY, sumXX float64
	for _, snap := range history {
		x := snap.Date.Sub(origin).Hours() / 24
		sumX += x
		sumY += snap.Value
		sumXY += x * snap.Value
		sumXX += x * x
	}
	n := float64(len(history))
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / denom, true
}

func statusFactor(status schema.Status) float64 {
	if score, ok := schema.GetStatusFactorScores()[status]; ok {
		return score
	}
	return neutralFactor
}

// recencyFactor decays exponentially with the age of the last update and
// floors once the record is hard stale.
func (e *Engine) recencyFactor(lastUpdated, now time.Time) float64 {
	if lastUpdated.IsZero() {
		return 10
	}
	age := now.Sub(lastUpdated)
	if age <= 0 {
		return 100
	}
	if age >= e.cfg.HardStale {
		return 10
	}
	return 10 + 90*math.Exp(-float64(age)/float64(e.cfg.StaleAfter))
}

// riskScore adds up the configured points for every firing risk factor,
// evaluated in the fixed schema.AllRiskFactors order.
func (e *Engine) riskScore(rec schema.KpiRecord, history []schema.Snapshot, now time.Time) (float64, []schema.RiskFactor) {
	fired := map[schema.RiskFactor]bool{}

	if rec.LastUpdated.IsZero() || now.Sub(rec.LastUpdated) > e.cfg.StaleAfter {
		fired[schema.RiskStaleData] = true
	}
	if pct, ok := completionPercent(rec); ok && 100-pct > e.cfg.BehindTargetGap {
		fired[schema.RiskBehindTarget] = true
	}
	if slope, ok := historySlope(history, e.cfg.TrendWindow); ok && slope < 0 {
		fired[schema.RiskNegativeTrend] = true
	}
	if owner := strings.TrimSpace(rec.Owner); owner == "" || owner == schema.DefaultOwner {
		fired[schema.RiskMissingOwner] = true
	}
	if rec.Status == schema.AtRisk || rec.Status == schema.Stalled {
		fired[schema.RiskBadStatus] = true
	}

	total := 0.0
	var factors []schema.RiskFactor
	for _, f := range schema.AllRiskFactors {
		if fired[f] {
			total += e.cfg.RiskPoints[f]
			factors = append(factors, f)
		}
	}
	return clamp(total, 0, 100), factors
}
