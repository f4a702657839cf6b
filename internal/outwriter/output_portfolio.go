package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/kpilens/kpilens/internal/contract"
	"github.com/kpilens/kpilens/schema"
)

// PrintPortfolioResults outputs portfolio metrics plus the ranked records behind them,
// dispatching based on the output format configured.
func PrintPortfolioResults(metrics schema.PortfolioMetrics, records []schema.KpiRecord, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writePortfolioJSONResults(metrics, records, cfg); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writePortfolioCSVResults(metrics, cfg, fmtFloat); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeRecordParquetResults(records, cfg); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := writePortfolioSummary(metrics, fmtFloat, w); err != nil {
				return err
			}
			return writeRecordTable(records, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
	return nil
}

// writePortfolioSummary prints the aggregate metrics block above the record table.
func writePortfolioSummary(metrics schema.PortfolioMetrics, fmtFloat func(float64) string, w io.Writer) error {
	lines := []string{
		fmt.Sprintf("Portfolio: %d KPIs across %d projects with %d owners", metrics.TotalRecords, metrics.UniqueProjects, metrics.UniqueOwners),
		fmt.Sprintf("Status: %d on track, %d at risk, %d achieved, %d stalled, %d not started",
			metrics.OnTrack, metrics.AtRisk, metrics.Achieved, metrics.Stalled, metrics.NotStarted),
		fmt.Sprintf("Averages: health %s, risk %s, completion %s%%",
			fmtFloat(metrics.AvgHealth), fmtFloat(metrics.AvgRisk), fmtFloat(metrics.AvgCompletion)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// writePortfolioJSONResults writes the metrics and ranked records as one JSON document.
func writePortfolioJSONResults(metrics schema.PortfolioMetrics, records []schema.KpiRecord, cfg *contract.Config) error {
	type JSONPortfolioRecord struct {
		Rank  int    `json:"rank"`
		Label string `json:"label"`
		schema.KpiRecord
	}
	type JSONPortfolioResult struct {
		Metrics schema.PortfolioMetrics `json:"metrics"`
		Records []JSONPortfolioRecord   `json:"records"`
	}

	out := JSONPortfolioResult{
		Metrics: metrics,
		Records: make([]JSONPortfolioRecord, len(records)),
	}
	for i, rec := range records {
		d := derivedOf(&rec)
		out.Records[i] = JSONPortfolioRecord{
			Rank:      i + 1,
			Label:     contract.GetPlainLabel(d.RiskScore),
			KpiRecord: rec,
		}
	}

	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeJSON(w, out)
	}, "Wrote JSON")
}

// writePortfolioCSVResults writes the aggregate metrics as metric/value rows.
func writePortfolioCSVResults(metrics schema.PortfolioMetrics, cfg *contract.Config, fmtFloat func(float64) string) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		header := []string{"metric", "value"}
		return writeCSVWithHeader(w, header, func(csvWriter *csv.Writer) error {
			rows := [][]string{
				{"total_records", strconv.Itoa(metrics.TotalRecords)},
				{"on_track", strconv.Itoa(metrics.OnTrack)},
				{"at_risk", strconv.Itoa(metrics.AtRisk)},
				{"achieved", strconv.Itoa(metrics.Achieved)},
				{"stalled", strconv.Itoa(metrics.Stalled)},
				{"not_started", strconv.Itoa(metrics.NotStarted)},
				{"avg_health", fmtFloat(metrics.AvgHealth)},
				{"avg_risk", fmtFloat(metrics.AvgRisk)},
				{"avg_completion", fmtFloat(metrics.AvgCompletion)},
				{"unique_owners", strconv.Itoa(metrics.UniqueOwners)},
				{"unique_projects", strconv.Itoa(metrics.UniqueProjects)},
			}
			for _, row := range rows {
				if err := csvWriter.Write(row); err != nil {
					return err
				}
			}
			return nil
		})
	}, "Wrote CSV")
}
