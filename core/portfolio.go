package core

import "github.com/kpilens/kpilens/schema"

// BuildPortfolioMetrics aggregates status counts and score averages over a
// set of scored records. Records without derived fields count toward status
// totals but not toward the averages.
func BuildPortfolioMetrics(records []schema.KpiRecord) schema.PortfolioMetrics {
	m := schema.PortfolioMetrics{TotalRecords: len(records)}
	owners := map[string]struct{}{}
	projects := map[string]struct{}{}

	var healthSum, riskSum float64
	var scored int
	var completionSum float64
	var completed int
	for _, rec := range records {
		switch rec.Status {
		case schema.OnTrack:
			m.OnTrack++
		case schema.AtRisk:
			m.AtRisk++
		case schema.Achieved:
			m.Achieved++
		case schema.Stalled:
			m.Stalled++
		default:
			m.NotStarted++
		}
		owners[rec.Owner] = struct{}{}
		projects[rec.Project] = struct{}{}
		if rec.Derived != nil {
			healthSum += rec.Derived.HealthScore
			riskSum += rec.Derived.RiskScore
			scored++
		}
		if pct, ok := completionPercent(rec); ok {
			completionSum += clamp(pct, 0, 100)
			completed++
		}
	}
	if scored > 0 {
		m.AvgHealth = healthSum / float64(scored)
		m.AvgRisk = riskSum / float64(scored)
	}
	if completed > 0 {
		m.AvgCompletion = completionSum / float64(completed)
	}
	m.UniqueOwners = len(owners)
	m.UniqueProjects = len(projects)
	return m
}
