// Package cmd provides the CLI commands for TSBridge.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	tsberrors "github.com/tsbridge/tsbridge/internal/errors"
	"github.com/tsbridge/tsbridge/internal/logging"
	"github.com/tsbridge/tsbridge/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the tsbridge CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tsbridge",
		Short: "MCP server for Python to TypeScript migration planning",
		Long: `TSBridge is an MCP server that helps AI coding assistants plan
Python to TypeScript migrations: it maps type expressions, rates
migration complexity, looks up library equivalents, analyzes source
structure, and runs differential tests against both runtimes.

Running 'tsbridge' with no arguments serves MCP over stdio.`,
		Version: version.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}
			return runServe(cmd.Context(), serveFlags{})
		},
	}

	cmd.SetVersionTemplate("tsbridge version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.tsbridge/logs/")
	cmd.PersistentPreRunE = startDebugLogging
	cmd.PersistentPostRunE = stopDebugLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command. Structured errors print with their
// hint and code; cobra's own error echo is silenced to avoid printing
// them twice.
func Execute() error {
	root := NewRootCmd()
	root.SilenceErrors = true
	err := root.Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, tsberrors.FormatForCLI(err))
	}
	return err
}

func startDebugLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}
	logger, cleanup, err := logging.Setup(logging.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled",
		slog.String("log_file", logging.DefaultLogPath()),
		slog.String("version", version.Version))
	return nil
}

func stopDebugLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}
