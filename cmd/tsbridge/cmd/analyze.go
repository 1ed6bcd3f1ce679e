package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsbridge/tsbridge/internal/config"
	tsberrors "github.com/tsbridge/tsbridge/internal/errors"
	"github.com/tsbridge/tsbridge/internal/logging"
)

// newAnalyzeCmd creates the analyze command: one-shot type analysis
// without starting a server, JSON on stdout.
func newAnalyzeCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "analyze <type-expression>",
		Short: "Analyze a Python type expression and print the result as JSON",
		Example: `  tsbridge analyze 'dict[str, list[int]]'
  tsbridge analyze 'Optional[datetime.datetime]'
  tsbridge analyze 'str | int | None'`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], dataDir)
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory with knowledge table overrides")

	return cmd
}

func runAnalyze(cmd *cobra.Command, expression, dataDir string) error {
	logger := logging.SetupStderr("warn")

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine working directory: %w", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.Knowledge.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := buildCollaborators(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	result, err := deps.analyzer.Analyze(expression)
	if err != nil {
		// Malformed input is an answer, not a crash: emit the
		// structured failure shape and exit zero.
		if tsberrors.IsRecoverable(err) || tsberrors.GetCode(err) == tsberrors.ErrCodeInputTooLong {
			return enc.Encode(map[string]string{
				"error":  err.Error(),
				"status": "failed",
			})
		}
		return err
	}
	return enc.Encode(result)
}
