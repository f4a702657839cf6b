package cmd

import (
	"github.com/kpilens/kpilens/core"
	"github.com/kpilens/kpilens/internal/contract"
	"github.com/spf13/cobra"
)

// extractCmd extracts KPI candidates from an unstructured document.
var extractCmd = &cobra.Command{
	Use:   "extract [input-path]",
	Short: "Extract, score and rank KPIs from a project document.",
	Long: `Scan a project document for KPI candidates, then validate, score and rank them.

Reads the document from the given path, or from stdin when the path is "-"
or omitted. The extraction rules adapt to the document kind:
- sow           - statements of work with labeled commitment blocks
- requirements  - requirement sentences (shall/must/should)
- charter       - project charters with goals and owners
- freetext      - any other prose (the default)

Each extracted KPI gets a health score (0-100, higher is better), a risk
score (0-100, higher is worse), active risk factors and actionable insights.

Examples:
  # Extract from a statement of work
  kpilens extract sow.txt --kind sow

  # Pipe a document through stdin
  cat charter.md | kpilens extract --kind charter

  # Show factor contributions and risk drivers
  kpilens extract sow.txt --kind sow --detail --explain

  # Score as of a fixed date and persist the results
  kpilens extract sow.txt --as-of 2026-01-01 --save

  # Export findings to CSV for tracking
  kpilens extract sow.txt --output csv --output-file kpis.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteExtract(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run extraction", err)
		}
	},
}
