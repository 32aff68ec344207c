package main

import (
	"context"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"splatpipe/internal/logging"
	mcpserver "splatpipe/internal/mcp"
	"splatpipe/internal/store"
)

var serveFlags struct {
	dbPath string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio for agent integration",
	Long: `Starts an MCP server over stdin/stdout exposing the pipeline stages as
tools (prepare_dataset, train_model, render_views, compute_metrics,
get_status, list_runs). Connect an MCP-capable agent frontend to drive
the workflow conversationally.

The server watches for parent process death and self-terminates when the
frontend goes away, so crashed agents do not leave orphaned processes
holding the GPU.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.dbPath, "db", store.DefaultDBPath, "Run store DB path")
}

func runServe(cmd *cobra.Command, _ []string) error {
	p, closeStore, err := newPipeline(serveFlags.dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := mcpserver.NewServer(p)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	log := logging.New("mcp")
	mcpserver.WatchParent(ctx, log, cancel)

	log.Info("starting splatpipe MCP server over stdio (parent watchdog active)")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
