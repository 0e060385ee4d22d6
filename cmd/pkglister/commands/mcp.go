package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pkglister/internal/config"
	"github.com/Sumatoshi-tech/pkglister/pkg/mcp"
	"github.com/Sumatoshi-tech/pkglister/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand(globals *GlobalOptions) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes pkglister as tools that AI agents can discover and invoke:
  - pkglister_scan: Scan a directory and list imported packages with requirements
  - pkglister_imports: Extract top-level imports from a Python snippet

The Python environment is resolved once at startup from the configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(globals.ConfigPath)
			if err != nil {
				return err
			}

			// Stdout carries the protocol, so logs are always JSON on stderr.
			cfg.Observability.LogJSON = true

			local := *globals
			local.Verbose = local.Verbose || debug

			providers, err := initObservability(cfg, &local, observability.ModeMCP, cobraCmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer shutdownObservability(providers)

			logger := providers.Logger

			pyVersion, registry, err := resolveEnvironment(cobraCmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			metrics, err := observability.NewScanMetrics(providers.Meter)
			if err != nil {
				return err
			}

			opts, err := cfg.ScanOptions()
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:        logger,
				Tracer:        providers.Tracer,
				Metrics:       metrics,
				Registry:      registry,
				PythonVersion: pyVersion,
				ScanOptions:   opts,
			})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging and full trace sampling")

	return cmd
}
