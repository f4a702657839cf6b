package core

import (
	"time"

	"github.com/kpilens/kpilens/schema"
)

// PredictCompletion extrapolates the recent history slope to the date the
// target would be reached. It returns nil whenever the history cannot
// support a prediction: fewer than two points, no target, or a slope moving
// away from (or parallel to) the target.
func (e *Engine) PredictCompletion(rec schema.KpiRecord, history []schema.Snapshot) *time.Time {
	if rec.TargetValue == nil || len(history) < 2 {
		return nil
	}
	slope, ok := historySlope(history, e.cfg.TrendWindow)
	if !ok || slope == 0 {
		return nil
	}

	last := history[len(history)-1]
	target := *rec.TargetValue
	remaining := target - last.Value
	if remaining == 0 {
		return &last.Date
	}
	// The slope has to point at the target.
	if (remaining > 0) != (slope > 0) {
		return nil
	}

	days := remaining / slope
	predicted := last.Date.Add(time.Duration(days * 24 * float64(time.Hour)))
	return &predicted
}
