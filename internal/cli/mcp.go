package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/qsearch/qsearch/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the index over the Model Context Protocol on stdio",
	Long: `Mcp starts an MCP server bound to the workspace containing the current
directory. Stdout carries the protocol, so all logging goes to stderr.
Point your MCP client at 'qsearch mcp' to expose index_workspace,
search_code, find_similar, and get_status as tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}

		logger := newLogger()
		defer func() { _ = logger.Sync() }()

		s, err := mcp.NewServer(wd, logger)
		if err != nil {
			return err
		}
		return s.Serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
