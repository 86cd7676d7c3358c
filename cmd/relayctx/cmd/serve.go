package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/WildfireRanch/relayctx/internal/config"
	"github.com/WildfireRanch/relayctx/internal/logging"
	"github.com/WildfireRanch/relayctx/internal/mcp"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the context engine over MCP (stdio)",
		Long: `Run an MCP server exposing the build_context tool over stdio.

Stdout carries the JSON-RPC stream, so all logging goes to
~/.relayctx/logs/ only. Point an MCP client at this command:

  relayctx serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	return cmd
}

func runServe(cmd *cobra.Command) error {
	root, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	// File-only logging: any stray stdout/stderr write corrupts JSON-RPC.
	cleanup, err := logging.SetupServeMode(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer cleanup()

	eng, closeBackends, err := buildEngine(root, cfg)
	if err != nil {
		return err
	}
	defer closeBackends()

	srv, err := mcp.NewServer(eng)
	if err != nil {
		return err
	}
	return srv.Serve(cmd.Context(), "stdio")
}
