package core

import (
	"sort"

	"github.com/kpilens/kpilens/schema"
)

// RankRecords sorts scored records by attention priority: highest risk
// first, ties broken by lower health, then by name for stable output.
// If limit is greater than the number of records, all records are returned
// in sorted order.
func RankRecords(records []schema.KpiRecord, limit int) []schema.KpiRecord {
	sort.Slice(records, func(i, j int) bool {
		di, dj := records[i].Derived, records[j].Derived
		ri, hi := derivedScores(di)
		rj, hj := derivedScores(dj)
		if ri != rj {
			return ri > rj
		}
		if hi != hj {
			return hi < hj
		}
		return records[i].Name < records[j].Name
	})
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

func derivedScores(d *schema.DerivedFields) (risk, health float64) {
	if d == nil {
		return 0, 0
	}
	return d.RiskScore, d.HealthScore
}
