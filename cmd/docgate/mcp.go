package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docgate/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the document tools over MCP on stdin/stdout",
	Long: `mcp runs a Model Context Protocol server on stdio with the tools
list_roots, read_directory, find_documents, convert_document and
save_conversion. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		logger.Info("starting MCP server in stdio mode", "roots", a.Policy.Load().Roots())
		return mcpserver.ServeStdio(mcpserver.NewServer(mcpserver.NewTools(a.Pipeline, a.Policy, logger)))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
