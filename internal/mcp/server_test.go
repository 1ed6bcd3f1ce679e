package mcp

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsbridge/tsbridge/internal/astmetrics"
	"github.com/tsbridge/tsbridge/internal/config"
	"github.com/tsbridge/tsbridge/internal/difftest"
	"github.com/tsbridge/tsbridge/internal/knowledge"
	"github.com/tsbridge/tsbridge/internal/typemap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := knowledge.New("", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.NewConfig()
	analyzer := typemap.New(store, typemap.Options{
		MaxExpressionLength: cfg.Analyzer.MaxExpressionLength,
		Classifier: typemap.ClassifierOptions{
			UnionModerateThreshold: cfg.Analyzer.UnionModerateThreshold,
			EscapeHatchTypes:       cfg.Analyzer.EscapeHatchTypes,
		},
	})

	metrics, err := astmetrics.New(astmetrics.Options{})
	require.NoError(t, err)
	t.Cleanup(metrics.Close)

	diff := difftest.New(difftest.Options{Logger: logger})

	s, err := NewServer(store, analyzer, metrics, diff, cfg, logger)
	require.NoError(t, err)
	return s
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	_, err := NewServer(nil, nil, nil, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "knowledge store")
}

func TestListTools(t *testing.T) {
	s := newTestServer(t)

	tools := s.ListTools()
	require.Len(t, tools, 6)

	names := make(map[string]bool)
	for _, tool := range tools {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description)
	}
	for _, want := range []string{
		"analyze_type", "lookup_library", "search_knowledge",
		"analyze_code_structure", "run_differential_test", "suggest_testing_strategy",
	} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestInfo(t *testing.T) {
	s := newTestServer(t)
	name, _ := s.Info()
	assert.Equal(t, "TSBridge", name)
}

func TestServe_RejectsUnknownTransport(t *testing.T) {
	s := newTestServer(t)
	err := s.Serve(context.Background(), "sse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}
