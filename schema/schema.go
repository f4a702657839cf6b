// Package schema has models, enums and default weights for all parts of kpilens.
package schema

import (
	"sort"
	"time"
)

// Snapshot is one dated observation of a KPI's current value.
// History is kept ordered by date ascending; a snapshot that shares a
// calendar date with an existing entry overwrites it instead of duplicating.
type Snapshot struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Span points back at the source text position that produced a field.
// Line is 1-based; Offset is the byte offset of the match within that line.
type Span struct {
	Line   int `json:"line"`
	Offset int `json:"offset"`
}

// KpiRecord is the central entity: a tracked metric with a current and
// target value, produced either by the extraction pipeline or by direct
// import. Derived holds recomputed scoring output and is never an input.
type KpiRecord struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Project string `json:"project"`
	Goal    string `json:"goal"`
	Owner   string `json:"owner"`

	CurrentValue  *float64  `json:"current_value,omitempty"`
	TargetValue   *float64  `json:"target_value,omitempty"`
	BaselineValue *float64  `json:"baseline_value,omitempty"`
	Unit          ValueUnit `json:"unit"`

	Status      Status     `json:"status"`
	LastUpdated time.Time  `json:"last_updated"`
	History     []Snapshot `json:"history,omitempty"`

	// Confidence is 0-1: how certain the extraction pipeline was about this
	// record. Directly imported rows carry 1.0; template placeholders 0.
	Confidence float64 `json:"confidence"`

	// SourceKind is the document kind the record was extracted from.
	// Empty for imported or manually entered records.
	SourceKind DocumentKind `json:"source_kind,omitempty"`

	// Provenance maps field names to the span of the first pattern match
	// that populated them, for audit. Nil for imported records.
	Provenance map[string]Span `json:"provenance,omitempty"`

	// Derived is recomputed on every scoring pass and never persisted as input.
	Derived *DerivedFields `json:"derived,omitempty"`
}

// DerivedFields holds everything the scoring and prediction engine computes
// from a record's persisted fields. Recomputation is pure and idempotent.
type DerivedFields struct {
	HealthScore         float64               `json:"health_score"`
	RiskScore           float64               `json:"risk_score"`
	Breakdown           map[FactorKey]float64 `json:"breakdown"` // weighted contribution per factor
	RiskFactors         []RiskFactor          `json:"risk_factors,omitempty"`
	PredictedCompletion *time.Time            `json:"predicted_completion,omitempty"`
	Insights            []string              `json:"insights,omitempty"`
}

// AppendSnapshot inserts a snapshot into the record's history, keeping it
// ordered by date ascending. A snapshot on an already-present calendar date
// overwrites the existing value.
func (r *KpiRecord) AppendSnapshot(snap Snapshot) {
	day := snap.Date.Truncate(24 * time.Hour)
	snap.Date = day
	for i, existing := range r.History {
		if existing.Date.Equal(day) {
			r.History[i].Value = snap.Value
			return
		}
	}
	r.History = append(r.History, snap)
	sort.Slice(r.History, func(i, j int) bool {
		return r.History[i].Date.Before(r.History[j].Date)
	})
}

// CloneHistory returns an independent copy of the record's history so that
// scoring can run on an immutable snapshot (copy-on-read semantics).
func (r *KpiRecord) CloneHistory() []Snapshot {
	if len(r.History) == 0 {
		return nil
	}
	out := make([]Snapshot, len(r.History))
	copy(out, r.History)
	return out
}

// HasRiskFactor reports whether the derived fields carry the given tag.
func (d *DerivedFields) HasRiskFactor(f RiskFactor) bool {
	for _, rf := range d.RiskFactors {
		if rf == f {
			return true
		}
	}
	return false
}

// PortfolioMetrics aggregates counts and averages over a scored record set.
type PortfolioMetrics struct {
	TotalRecords   int     `json:"total_records"`
	OnTrack        int     `json:"on_track"`
	AtRisk         int     `json:"at_risk"`
	Achieved       int     `json:"achieved"`
	Stalled        int     `json:"stalled"`
	NotStarted     int     `json:"not_started"`
	AvgHealth      float64 `json:"avg_health"`
	AvgRisk        float64 `json:"avg_risk"`
	AvgCompletion  float64 `json:"avg_completion"` // over records with a completion percentage
	UniqueOwners   int     `json:"unique_owners"`
	UniqueProjects int     `json:"unique_projects"`
}

// StoreStatus holds diagnostics about the record store.
type StoreStatus struct {
	Backend       DatabaseBackend `json:"backend"`
	Location      string          `json:"location"`
	RecordCount   int             `json:"record_count"`
	SnapshotCount int             `json:"snapshot_count"`
	RunCount      int             `json:"run_count"`
}
