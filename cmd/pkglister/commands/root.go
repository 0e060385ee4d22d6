// Package commands implements CLI command handlers for pkglister.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pkglister/pkg/version"
)

// GlobalOptions holds the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	LogJSON    bool
}

// NewRootCommand builds the pkglister command tree.
func NewRootCommand() *cobra.Command {
	globals := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "pkglister",
		Short: "List the packages a Python project imports",
		Long: `pkglister scans Python sources, extracts their imports and resolves them
against the standard library and the installed distributions.

Commands:
  scan      Scan a directory and print packages or requirements
  imports   Print the top-level imports of individual files
  validate  Validate a JSON report against the report schema
  mcp       Start the MCP server for AI agent integration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globals.ConfigPath, "config", "", "config file (default is .pkglister.yaml in CWD or $HOME)")
	flags.BoolVarP(&globals.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&globals.Quiet, "quiet", "q", false, "only log errors")
	flags.BoolVar(&globals.LogJSON, "log-json", false, "emit logs as JSON")

	rootCmd.AddCommand(NewScanCommand(globals))
	rootCmd.AddCommand(NewImportsCommand())
	rootCmd.AddCommand(NewValidateCommand())
	rootCmd.AddCommand(NewMCPCommand(globals))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
