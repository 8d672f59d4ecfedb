package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/wikiwalk/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:     "mcp",
	Aliases: []string{"serve"},
	Short:   "Start the MCP server for AI agent integration",
	Long:    `Starts a Model Context Protocol (MCP) server on stdio, exposing nearby article search and summaries as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "wikiwalk MCP server started on stdio (wiki=%s)\n", cfg.Wiki.APIEndpoint())

		srv := mcpserver.NewServer(newWikiClient(cfg), mcpserver.Defaults{
			Radius: cfg.Search.Radius,
			Limit:  cfg.Search.Limit,
			Zoom:   cfg.Map.Zoom,
		})
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
