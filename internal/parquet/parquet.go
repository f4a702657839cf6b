// Package parquet provides data structures and functions for exporting scored
// KPI data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kpilens/kpilens/schema"
	"github.com/parquet-go/parquet-go"
)

// KpiScoreRow represents a single scored KPI record flattened for columnar
// storage. Nested history and provenance are omitted; the row carries the
// latest values plus every derived score so warehouse queries need no joins.
type KpiScoreRow struct {
	// RecordID is the unique identifier of the KPI record
	RecordID string `parquet:"record_id,snappy"`

	// Rank is the 1-based position of the record in the ranked output
	Rank int32 `parquet:"rank,snappy"`

	// Name is the human-readable KPI name
	Name string `parquet:"name,snappy"`

	// Project is the project the KPI belongs to
	Project string `parquet:"project,snappy"`

	// Goal is the strategic goal the KPI rolls up to
	Goal string `parquet:"goal,snappy"`

	// Owner is the accountable party for the KPI
	Owner string `parquet:"owner,snappy"`

	// Status is the normalized status string
	Status string `parquet:"status,snappy"`

	// Unit is the value unit (raw, percent, count, currency)
	Unit string `parquet:"unit,snappy"`

	// CurrentValue is the latest observed value (nullable)
	CurrentValue *float64 `parquet:"current_value,optional,snappy"`

	// TargetValue is the goal value (nullable)
	TargetValue *float64 `parquet:"target_value,optional,snappy"`

	// BaselineValue is the starting value (nullable)
	BaselineValue *float64 `parquet:"baseline_value,optional,snappy"`

	// LastUpdated is when the KPI data was last refreshed
	LastUpdated time.Time `parquet:"last_updated,snappy"`

	// Confidence is the extraction confidence in [0, 1]
	Confidence float64 `parquet:"confidence,snappy"`

	// HealthScore is the composite health score in [0, 100]
	HealthScore float64 `parquet:"health_score,snappy"`

	// RiskScore is the additive risk score in [0, 100]
	RiskScore float64 `parquet:"risk_score,snappy"`

	// RiskLabel is the plain criticality label for the risk score
	RiskLabel string `parquet:"risk_label,snappy"`

	// FactorCompletion is the weighted completion contribution
	FactorCompletion float64 `parquet:"factor_completion,snappy"`

	// FactorTrend is the weighted trend contribution
	FactorTrend float64 `parquet:"factor_trend,snappy"`

	// FactorStatus is the weighted status contribution
	FactorStatus float64 `parquet:"factor_status,snappy"`

	// FactorRecency is the weighted recency contribution
	FactorRecency float64 `parquet:"factor_recency,snappy"`

	// RiskFactors is the pipe-joined list of active risk factors
	RiskFactors string `parquet:"risk_factors,snappy"`

	// PredictedCompletion is the extrapolated target date (nullable)
	PredictedCompletion *time.Time `parquet:"predicted_completion,optional,snappy"`

	// Insights is the pipe-joined list of generated insight strings
	Insights string `parquet:"insights,snappy"`

	// SnapshotCount is the number of history points behind the scores
	SnapshotCount int32 `parquet:"snapshot_count,snappy"`
}

// FromRecords flattens ranked KPI records into Parquet rows. The input order
// is preserved and encoded as the rank column.
func FromRecords(records []schema.KpiRecord, labelFor func(float64) string) []KpiScoreRow {
	rows := make([]KpiScoreRow, len(records))
	for i, rec := range records {
		row := KpiScoreRow{
			RecordID:      rec.ID,
			Rank:          int32(i + 1),
			Name:          rec.Name,
			Project:       rec.Project,
			Goal:          rec.Goal,
			Owner:         rec.Owner,
			Status:        string(rec.Status),
			Unit:          string(rec.Unit),
			CurrentValue:  rec.CurrentValue,
			TargetValue:   rec.TargetValue,
			BaselineValue: rec.BaselineValue,
			LastUpdated:   rec.LastUpdated,
			Confidence:    rec.Confidence,
			SnapshotCount: int32(len(rec.History)),
		}
		if d := rec.Derived; d != nil {
			row.HealthScore = d.HealthScore
			row.RiskScore = d.RiskScore
			row.RiskLabel = labelFor(d.RiskScore)
			row.FactorCompletion = d.Breakdown[schema.FactorCompletion]
			row.FactorTrend = d.Breakdown[schema.FactorTrend]
			row.FactorStatus = d.Breakdown[schema.FactorStatus]
			row.FactorRecency = d.Breakdown[schema.FactorRecency]
			row.RiskFactors = joinRiskFactors(d.RiskFactors)
			row.PredictedCompletion = d.PredictedCompletion
			row.Insights = strings.Join(d.Insights, "|")
		}
		rows[i] = row
	}
	return rows
}

func joinRiskFactors(factors []schema.RiskFactor) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = string(f)
	}
	return strings.Join(parts, "|")
}

// WriteKpiScoresParquet writes a slice of KpiScoreRow structs to a Parquet file.
func WriteKpiScoresParquet(data []KpiScoreRow, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// Create a Parquet writer using struct schema inference
	// The schema is automatically derived from the KpiScoreRow struct tags
	writer := parquet.NewGenericWriter[KpiScoreRow](file)
	defer func() { _ = writer.Close() }()

	// Write all records to the file
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}
