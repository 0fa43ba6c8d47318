package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"webflowcms/internal/loader"
	"webflowcms/internal/server"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP (Model Context Protocol) server on stdin/stdout",
	Long:  "Exposes every Webflow CMS operation and every flow as an MCP tool.",
	Args:  cobra.NoArgs,
	RunE:  serveMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func serveMCP(cmd *cobra.Command, args []string) error {
	flows, err := loader.LoadFlows(flowsDir)
	if err != nil {
		return fmt.Errorf("loading flows: %w", err)
	}

	srv := server.NewMCPServer(current.engine(), flows, current.secrets, current.log.Named("mcp"))
	return srv.ServeStdio(cmd.Context())
}
