package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kpilens/kpilens/internal/contract"
	"github.com/kpilens/kpilens/internal/parquet"
	"github.com/kpilens/kpilens/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintRecordResults outputs scored KPI records, dispatching based on the output format configured.
func PrintRecordResults(records []schema.KpiRecord, cfg *contract.Config, duration time.Duration) error {
	// Create formatters using helper
	fmtFloat, _ := createFormatters(cfg.Precision)

	// Dispatcher: Handle different output formats
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeRecordJSONResults(records, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeRecordCSVResults(records, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeRecordParquetResults(records, cfg); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecordTable(records, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writeRecordJSONResults handles opening the file and calling the JSON writer.
func writeRecordJSONResults(records []schema.KpiRecord, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSONResultsForRecords(w, records)
	}, "Wrote JSON")
}

// writeRecordCSVResults handles opening the file and calling the CSV writer.
func writeRecordCSVResults(records []schema.KpiRecord, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCSVWithHeader(w, recordCSVHeader(), func(csvWriter *csv.Writer) error {
			return writeCSVResultsForRecords(csvWriter, records, fmtFloat)
		})
	}, "Wrote CSV")
}

// writeRecordParquetResults flattens records and writes them to the configured output file.
func writeRecordParquetResults(records []schema.KpiRecord, cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires an output file")
	}
	rows := parquet.FromRecords(records, contract.GetPlainLabel)
	if err := parquet.WriteKpiScoresParquet(rows, cfg.OutputFile); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	return nil
}

// writeRecordTable generates and writes the human-readable table.
func writeRecordTable(records []schema.KpiRecord, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)
	label := labelFunc(cfg)

	// 1. Define Headers
	headers := []string{"Rank", "Name", "Project", "Owner", "Status", "Current", "Target", "Health", "Risk", "Label"}
	if cfg.Detail {
		headers = append(headers, "Compl", "Trend", "StatPts", "Recency", "Conf")
	}
	if cfg.Explain {
		headers = append(headers, "Drivers", "Risks")
	}
	table.Header(headers)

	// 2. Configure alignment for a minimal look
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	// 3. Populate Rows
	nameWidth := getMaxTableNameWidth(cfg)
	var data [][]string
	for i, rec := range records {
		d := derivedOf(&rec)
		row := []string{
			strconv.Itoa(i + 1), // Rank
			contract.TruncateText(rec.Name, nameWidth),
			contract.TruncateText(rec.Project, 18),
			contract.TruncateText(rec.Owner, 18),
			string(rec.Status),
			formatValue(rec.CurrentValue, rec.Unit, fmtFloat),
			formatValue(rec.TargetValue, rec.Unit, fmtFloat),
			fmtFloat(d.HealthScore),
			fmtFloat(d.RiskScore),
			label(d.RiskScore),
		}
		if cfg.Detail {
			row = append(
				row,
				fmtFloat(d.Breakdown[schema.FactorCompletion]), // Completion contribution
				fmtFloat(d.Breakdown[schema.FactorTrend]),      // Trend contribution
				fmtFloat(d.Breakdown[schema.FactorStatus]),     // Status contribution
				fmtFloat(d.Breakdown[schema.FactorRecency]),    // Recency contribution
				fmtFloat(rec.Confidence),                       // Extraction confidence
			)
		}
		if cfg.Explain {
			row = append(row, formatTopFactorBreakdown(rec.Derived), formatRiskFactors(rec.Derived))
		}
		data = append(data, row)
	}

	// 4. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// 5. Insight lines for records that generated any
	if cfg.Explain {
		if err := writeInsightLines(writer, records); err != nil {
			return err
		}
	}

	// Compute summary stats
	if _, err := fmt.Fprintf(writer, "Showing top %d KPIs\n", len(records)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Scoring completed in %v with %d workers. Store backend: %s\n", duration, cfg.Workers, cfg.StoreBackend); err != nil {
		return err
	}
	return nil
}

// writeInsightLines prints the generated insights beneath the table, grouped by rank.
func writeInsightLines(writer io.Writer, records []schema.KpiRecord) error {
	printedHeader := false
	for i, rec := range records {
		if rec.Derived == nil || len(rec.Derived.Insights) == 0 {
			continue
		}
		if !printedHeader {
			if _, err := fmt.Fprintln(writer, "Insights:"); err != nil {
				return err
			}
			printedHeader = true
		}
		for _, insight := range rec.Derived.Insights {
			if _, err := fmt.Fprintf(writer, "  %d. %s: %s\n", i+1, rec.Name, insight); err != nil {
				return err
			}
		}
	}
	return nil
}

// recordCSVHeader returns the CSV column names for record exports.
func recordCSVHeader() []string {
	return []string{
		"rank",
		"name",
		"project",
		"goal",
		"owner",
		"status",
		"unit",
		"current_value",
		"target_value",
		"baseline_value",
		"health_score",
		"risk_score",
		"label",
		"risk_factors",
		"predicted_completion",
		"last_updated",
		"confidence",
		"insights",
	}
}

// writeCSVResultsForRecords writes the scored records in CSV format.
func writeCSVResultsForRecords(w *csv.Writer, records []schema.KpiRecord, fmtFloat func(float64) string) error {
	for i, rec := range records {
		d := derivedOf(&rec)
		row := []string{
			strconv.Itoa(i + 1),                // Rank
			rec.Name,                           // KPI Name
			rec.Project,                        // Project
			rec.Goal,                           // Goal
			rec.Owner,                          // Owner
			string(rec.Status),                 // Status
			string(rec.Unit),                   // Unit
			csvValue(rec.CurrentValue, fmtFloat),
			csvValue(rec.TargetValue, fmtFloat),
			csvValue(rec.BaselineValue, fmtFloat),
			fmtFloat(d.HealthScore),                // Health Score
			fmtFloat(d.RiskScore),                  // Risk Score
			contract.GetPlainLabel(d.RiskScore),    // Label
			joinFactors(d.RiskFactors),             // Risk Factors
			csvTime(d.PredictedCompletion),         // Predicted Completion
			rec.LastUpdated.Format(contract.DateTimeFormat), // Last Updated
			fmtFloat(rec.Confidence),               // Confidence
			strings.Join(d.Insights, "; "),         // Insights
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// writeJSONResultsForRecords writes the scored records in JSON format.
func writeJSONResultsForRecords(w io.Writer, records []schema.KpiRecord) error {
	// 1. Prepare the data structure for JSON with rank and label added
	type JSONKpiResult struct {
		Rank  int    `json:"rank"`
		Label string `json:"label"`
		schema.KpiRecord
	}

	output := make([]JSONKpiResult, len(records))
	for i, rec := range records {
		d := derivedOf(&rec)
		output[i] = JSONKpiResult{
			Rank:      i + 1,
			Label:     contract.GetPlainLabel(d.RiskScore),
			KpiRecord: rec,
		}
	}

	// 2. Use the generic JSON writer
	return writeJSON(w, output)
}

func csvValue(v *float64, fmtFloat func(float64) string) string {
	if v == nil {
		return ""
	}
	return fmtFloat(*v)
}

func csvTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(contract.DateTimeFormat)
}

func joinFactors(factors []schema.RiskFactor) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = string(f)
	}
	return strings.Join(parts, "|")
}
