package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 3, cfg.Analyzer.UnionModerateThreshold)
	assert.Equal(t, []string{"Any", "object"}, cfg.Analyzer.EscapeHatchTypes)
	assert.Equal(t, "python3", cfg.DiffTest.PythonBin)
	assert.Equal(t, "node", cfg.DiffTest.NodeBin)
	assert.Equal(t, 10*time.Second, cfg.DiffTest.Timeout)
}

func TestLoad_NoFilesReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := Load(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, "stdio", cfg.Server.Transport)
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte("server:\n  log_level: debug\nanalyzer:\n  union_moderate_threshold: 5\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ProjectConfigName), content, 0o644))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 5, cfg.Analyzer.UnionModerateThreshold)
	// Untouched fields keep defaults
	assert.Equal(t, "stdio", cfg.Server.Transport)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ProjectConfigName), []byte("server: [not a map"), 0o644))

	_, err := Load(tmpDir)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesHaveHighestPriority(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte("server:\n  log_level: warn\n")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ProjectConfigName), content, 0o644))

	t.Setenv("TSBRIDGE_LOG_LEVEL", "error")
	t.Setenv("TSBRIDGE_DIFFTEST_TIMEOUT", "30s")
	t.Setenv("TSBRIDGE_UNION_MODERATE_THRESHOLD", "7")

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Server.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.DiffTest.Timeout)
	assert.Equal(t, 7, cfg.Analyzer.UnionModerateThreshold)
}

func TestValidate_RejectsUnknownTransport(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.Transport = "sse"

	err := cfg.Validate()
	assert.ErrorContains(t, err, "unknown transport")
}

func TestValidate_RejectsMissingDataDir(t *testing.T) {
	cfg := NewConfig()
	cfg.Knowledge.DataDir = filepath.Join(t.TempDir(), "does-not-exist")

	err := cfg.Validate()
	assert.ErrorContains(t, err, "data_dir")
}

func TestValidate_ClampsOutOfRangeKnobs(t *testing.T) {
	cfg := NewConfig()
	cfg.Knowledge.SearchLimit = 500
	cfg.Analyzer.UnionModerateThreshold = -1
	cfg.DiffTest.Timeout = -time.Second

	require.NoError(t, cfg.Validate())

	assert.Equal(t, 50, cfg.Knowledge.SearchLimit)
	assert.Equal(t, 1, cfg.Analyzer.UnionModerateThreshold)
	assert.Equal(t, 10*time.Second, cfg.DiffTest.Timeout)
}

func TestValidate_ZeroValuesGetDefaults(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Transport: "stdio"}}

	require.NoError(t, cfg.Validate())

	assert.Equal(t, 10, cfg.Knowledge.SearchLimit)
	assert.Equal(t, 3, cfg.Analyzer.UnionModerateThreshold)
	assert.Equal(t, []string{"Any", "object"}, cfg.Analyzer.EscapeHatchTypes)
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := NewConfig()
	cfg.Server.LogLevel = "debug"
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, "debug", loaded.Server.LogLevel)
}
