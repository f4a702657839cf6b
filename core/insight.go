package core

import "github.com/kpilens/kpilens/schema"

// insightRule pairs a predicate over a scored record with the recommendation
// it produces. Rules run in order and every matching rule fires once, so the
// output is deterministic for a given record.
type insightRule struct {
	applies func(rec schema.KpiRecord, d schema.DerivedFields) bool
	text    string
}

var insightRules = []insightRule{
	{
		applies: func(_ schema.KpiRecord, d schema.DerivedFields) bool { return d.HealthScore < 40 },
		text:    "Health is critical: escalate this KPI to the project sponsor",
	},
	{
		applies: func(_ schema.KpiRecord, d schema.DerivedFields) bool {
			return d.HealthScore >= 40 && d.HealthScore < 60
		},
		text: "Health is slipping: schedule a review with the owner",
	},
	{
		applies: func(_ schema.KpiRecord, d schema.DerivedFields) bool { return d.RiskScore >= 70 },
		text:    "Multiple risk factors are active: prioritize mitigation this cycle",
	},
	{
		applies: func(_ schema.KpiRecord, d schema.DerivedFields) bool {
			return d.HasRiskFactor(schema.RiskStaleData)
		},
		text: "Data is stale: request updated figures from the owner",
	},
	{
		applies: func(_ schema.KpiRecord, d schema.DerivedFields) bool {
			return d.HasRiskFactor(schema.RiskMissingOwner)
		},
		text: "No owner is assigned: assign one so progress has an accountable party",
	},
	{
		applies: func(_ schema.KpiRecord, d schema.DerivedFields) bool {
			return d.HasRiskFactor(schema.RiskNegativeTrend)
		},
		text: "Recent values are trending down: investigate the regression",
	},
	{
		applies: func(_ schema.KpiRecord, d schema.DerivedFields) bool {
			return d.HasRiskFactor(schema.RiskBehindTarget)
		},
		text: "Progress is well behind target: consider rebasing the target or adding capacity",
	},
	{
		applies: func(rec schema.KpiRecord, _ schema.DerivedFields) bool {
			return rec.Status == schema.Achieved
		},
		text: "Target achieved: document what worked for the next planning cycle",
	},
	{
		applies: func(_ schema.KpiRecord, d schema.DerivedFields) bool {
			return d.HealthScore >= 80 && d.RiskScore < 40
		},
		text: "On course: keep the current cadence",
	},
}

// buildInsights returns the recommendation texts for every rule that applies
// to the scored record, in rule order.
func buildInsights(rec schema.KpiRecord, d schema.DerivedFields) []string {
	var out []string
	for _, rule := range insightRules {
		if rule.applies(rec, d) {
			out = append(out, rule.text)
		}
	}
	return out
}
