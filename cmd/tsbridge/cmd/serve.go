package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsbridge/tsbridge/internal/astmetrics"
	"github.com/tsbridge/tsbridge/internal/config"
	"github.com/tsbridge/tsbridge/internal/difftest"
	"github.com/tsbridge/tsbridge/internal/knowledge"
	"github.com/tsbridge/tsbridge/internal/logging"
	"github.com/tsbridge/tsbridge/internal/mcp"
	"github.com/tsbridge/tsbridge/internal/typemap"
)

type serveFlags struct {
	dataDir  string
	logLevel string
}

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdio",
		Long: `Start the TSBridge MCP server on stdio. stdout carries the protocol,
so all logging goes to a rotating file under ~/.tsbridge/logs/ and to
stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.dataDir, "data-dir", "", "Directory with knowledge table overrides (hot reloaded)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	return cmd
}

func runServe(ctx context.Context, flags serveFlags) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine working directory: %w", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return err
	}
	if flags.dataDir != "" {
		cfg.Knowledge.DataDir = flags.dataDir
		cfg.Knowledge.WatchReload = true
	}
	if flags.logLevel != "" {
		cfg.Server.LogLevel = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Server.LogLevel
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()
	slog.SetDefault(logger)

	deps, err := buildCollaborators(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close()

	server, err := mcp.NewServer(deps.store, deps.analyzer, deps.metrics, deps.diff, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Knowledge.WatchReload && cfg.Knowledge.DataDir != "" {
		go func() {
			if err := deps.store.Watch(ctx); err != nil {
				logger.Error("knowledge watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	return server.Serve(ctx, cfg.Server.Transport)
}

// collaborators bundles the long-lived components behind the server.
type collaborators struct {
	store    *knowledge.Store
	analyzer *typemap.Analyzer
	metrics  *astmetrics.Analyzer
	diff     *difftest.Runner
}

func (c *collaborators) close() {
	if c.metrics != nil {
		c.metrics.Close()
	}
	if c.store != nil {
		_ = c.store.Close()
	}
}

func buildCollaborators(cfg *config.Config, logger *slog.Logger) (*collaborators, error) {
	store, err := knowledge.New(cfg.Knowledge.DataDir, logger)
	if err != nil {
		return nil, err
	}

	analyzer := typemap.New(store, typemap.Options{
		MaxExpressionLength: cfg.Analyzer.MaxExpressionLength,
		Classifier: typemap.ClassifierOptions{
			UnionModerateThreshold: cfg.Analyzer.UnionModerateThreshold,
			EscapeHatchTypes:       cfg.Analyzer.EscapeHatchTypes,
		},
	})

	metrics, err := astmetrics.New(astmetrics.Options{
		CacheSize:      cfg.Metrics.CacheSize,
		MaxSourceBytes: cfg.Metrics.MaxSourceBytes,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	diff := difftest.New(difftest.Options{
		PythonBin: cfg.DiffTest.PythonBin,
		NodeBin:   cfg.DiffTest.NodeBin,
		Timeout:   cfg.DiffTest.Timeout,
		MaxCases:  cfg.DiffTest.MaxCases,
		Logger:    logger,
	})

	return &collaborators{
		store:    store,
		analyzer: analyzer,
		metrics:  metrics,
		diff:     diff,
	}, nil
}
