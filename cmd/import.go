package cmd

import (
	"github.com/kpilens/kpilens/core"
	"github.com/kpilens/kpilens/internal/contract"
	"github.com/spf13/cobra"
)

// importCmd scores structured KPI rows from a file.
var importCmd = &cobra.Command{
	Use:   "import <rows.csv|rows.yaml>",
	Short: "Score and rank KPIs from a CSV or YAML export.",
	Long: `Load structured KPI rows from a CSV or YAML file, then validate, score and rank them.

Column matching is tolerant: headers are case-insensitive and common synonyms
are accepted (e.g. "kpi", "metric" or "name"; "current", "actual" or "value";
"target" or "goal_value"). Rows without a usable name are skipped with a warning.

Examples:
  # Score a CSV export from a tracking spreadsheet
  kpilens import kpis.csv

  # Score a YAML list of KPI rows and persist them
  kpilens import kpis.yaml --save

  # Rescore as of the end of last quarter
  kpilens import kpis.csv --as-of 2025-12-31

  # Export the scored rows for warehouse handoff
  kpilens import kpis.csv --output parquet --output-file kpis.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteImport(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run import", err)
		}
	},
}
