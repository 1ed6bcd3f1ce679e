// Package config loads and validates TSBridge configuration.
//
// Configuration sources, highest priority last:
//  1. Built-in defaults
//  2. User config (~/.config/tsbridge/config.yaml)
//  3. Project config (.tsbridge.yaml in the working directory)
//  4. Environment variables (TSBRIDGE_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfigName is the per-project configuration file name.
const ProjectConfigName = ".tsbridge.yaml"

// Config represents the complete TSBridge configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Knowledge KnowledgeConfig `yaml:"knowledge" json:"knowledge"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer" json:"analyzer"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	DiffTest  DiffTestConfig  `yaml:"difftest" json:"difftest"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// KnowledgeConfig configures the knowledge-base store.
type KnowledgeConfig struct {
	// DataDir is an optional directory of JSON tables that override the
	// embedded defaults. Empty means embedded tables only.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// WatchReload enables fsnotify-based hot reload of DataDir.
	WatchReload bool `yaml:"watch_reload" json:"watch_reload"`

	// SearchLimit is the default result cap for knowledge search.
	SearchLimit int `yaml:"search_limit" json:"search_limit"`
}

// AnalyzerConfig configures the type-expression analyzer heuristics.
// The thresholds are advisory tuning knobs, not invariants.
type AnalyzerConfig struct {
	// UnionModerateThreshold: a union with more alternatives than this
	// classifies as moderate. Default 3.
	UnionModerateThreshold int `yaml:"union_moderate_threshold" json:"union_moderate_threshold"`

	// EscapeHatchTypes are the dynamic source types that always classify
	// as complex (default: Any, object).
	EscapeHatchTypes []string `yaml:"escape_hatch_types" json:"escape_hatch_types"`

	// MaxExpressionLength caps the accepted type-expression length.
	MaxExpressionLength int `yaml:"max_expression_length" json:"max_expression_length"`
}

// MetricsConfig configures the Python code-structure analyzer.
type MetricsConfig struct {
	// CacheSize is the LRU entry cap for per-source metric results.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// MaxSourceBytes caps the accepted source size for AST analysis.
	MaxSourceBytes int `yaml:"max_source_bytes" json:"max_source_bytes"`
}

// DiffTestConfig configures the differential test runner.
type DiffTestConfig struct {
	PythonBin string        `yaml:"python_bin" json:"python_bin"`
	NodeBin   string        `yaml:"node_bin" json:"node_bin"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	MaxCases  int           `yaml:"max_cases" json:"max_cases"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
		Knowledge: KnowledgeConfig{
			DataDir:     "",
			WatchReload: false,
			SearchLimit: 10,
		},
		Analyzer: AnalyzerConfig{
			UnionModerateThreshold: 3,
			EscapeHatchTypes:       []string{"Any", "object"},
			MaxExpressionLength:    2048,
		},
		Metrics: MetricsConfig{
			CacheSize:      256,
			MaxSourceBytes: 512 * 1024,
		},
		DiffTest: DiffTestConfig{
			PythonBin: "python3",
			NodeBin:   "node",
			Timeout:   10 * time.Second,
			MaxCases:  50,
		},
	}
}

// GetUserConfigDir returns the user configuration directory.
func GetUserConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tsbridge")
	}
	return filepath.Join(home, ".config", "tsbridge")
}

// GetUserConfigPath returns the user configuration file path.
func GetUserConfigPath() string {
	return filepath.Join(GetUserConfigDir(), "config.yaml")
}

// Load builds the effective configuration for the given project directory.
// Missing files are not errors; malformed files are.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadYAML(path); err != nil {
			return nil, fmt.Errorf("user config: %w", err)
		}
	}

	if dir != "" {
		path := filepath.Join(dir, ProjectConfigName)
		if fileExists(path) {
			if err := cfg.loadYAML(path); err != nil {
				return nil, fmt.Errorf("project config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML merges the file at path into the receiver. Fields absent from
// the file keep their current values.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies TSBRIDGE_* environment variables.
// Env vars have the highest priority.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("TSBRIDGE_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("TSBRIDGE_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
	if v := os.Getenv("TSBRIDGE_DATA_DIR"); v != "" {
		c.Knowledge.DataDir = v
	}
	if v := os.Getenv("TSBRIDGE_WATCH_RELOAD"); v != "" {
		c.Knowledge.WatchReload = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("TSBRIDGE_PYTHON_BIN"); v != "" {
		c.DiffTest.PythonBin = v
	}
	if v := os.Getenv("TSBRIDGE_NODE_BIN"); v != "" {
		c.DiffTest.NodeBin = v
	}
	if v := os.Getenv("TSBRIDGE_DIFFTEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DiffTest.Timeout = d
		}
	}
	if v := os.Getenv("TSBRIDGE_UNION_MODERATE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analyzer.UnionModerateThreshold = n
		}
	}
	if v := os.Getenv("TSBRIDGE_METRICS_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Metrics.CacheSize = n
		}
	}
}

// Validate checks configuration values and clamps out-of-range tuning
// knobs to sane bounds rather than failing.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case "stdio":
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", c.Server.Transport)
	}

	if c.Knowledge.DataDir != "" && !dirExists(c.Knowledge.DataDir) {
		return fmt.Errorf("knowledge data_dir does not exist: %s", c.Knowledge.DataDir)
	}

	c.Knowledge.SearchLimit = clampInt(c.Knowledge.SearchLimit, 10, 1, 50)
	c.Analyzer.UnionModerateThreshold = clampInt(c.Analyzer.UnionModerateThreshold, 3, 1, 20)
	c.Analyzer.MaxExpressionLength = clampInt(c.Analyzer.MaxExpressionLength, 2048, 64, 1<<20)
	c.Metrics.CacheSize = clampInt(c.Metrics.CacheSize, 256, 1, 1<<16)
	c.Metrics.MaxSourceBytes = clampInt(c.Metrics.MaxSourceBytes, 512*1024, 1024, 16<<20)
	c.DiffTest.MaxCases = clampInt(c.DiffTest.MaxCases, 50, 1, 1000)

	if c.DiffTest.Timeout <= 0 {
		c.DiffTest.Timeout = 10 * time.Second
	}
	if len(c.Analyzer.EscapeHatchTypes) == 0 {
		c.Analyzer.EscapeHatchTypes = []string{"Any", "object"}
	}
	return nil
}

// WriteYAML writes the configuration to the given path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// clampInt returns v clamped to [min, max], or def when v is zero.
func clampInt(v, def, min, max int) int {
	if v == 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
