package cmd

import (
	"github.com/kpilens/kpilens/core"
	"github.com/kpilens/kpilens/internal/contract"
	"github.com/spf13/cobra"
)

// portfolioCmd rolls up every persisted KPI record.
var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Rescore persisted KPIs and show portfolio rollups.",
	Long: `Load every KPI record from the store, rescore it as of the configured
clock, and print portfolio rollups plus the ranked records.

The rollup covers status counts, average health, risk and completion, and the
number of distinct owners and projects. Use --as-of to rewind the clock and
see how the portfolio looked on a past date.

Requires records persisted by a previous 'extract --save' or 'import --save'.

Examples:
  # Show the current portfolio
  kpilens portfolio

  # Rewind to the end of the quarter
  kpilens portfolio --as-of 2025-12-31

  # Export the rollup for reporting
  kpilens portfolio --output json --output-file portfolio.json`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecutePortfolio(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot run portfolio rollup", err)
		}
	},
}
