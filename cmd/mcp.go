package cmd

import (
	"github.com/kpilens/kpilens/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the KpiLens MCP server",
	Long:  `Launch an MCP server that allows AI agents to extract and score KPIs via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// The setup must stay quiet in MCP mode to avoid polluting
		// stdio which is used for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, storeManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
