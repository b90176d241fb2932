package config

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickchristie/vigil"
	"github.com/rickchristie/vigil/probe"
)

// testPrefix keeps tests independent of the developer's VIGIL_ variables.
const testPrefix = "VIGILTEST_"

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vigil.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", testPrefix)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Spam.WindowSize)
	assert.Equal(t, vigil.DefaultCostRates(), cfg.Usage.Rates())
	assert.Equal(t, 30*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, probe.DefaultGeminiModel, cfg.Probe.Gemini.Model)
	assert.Equal(t, probe.GeminiBaseURL, cfg.Probe.Gemini.BaseURL)
	assert.Empty(t, cfg.Probe.Gemini.APIKey)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
spam:
  window_size: 5
usage:
  input_cost_per_token: 0.000001
probe:
  timeout: 5s
  gemini:
    api_key: from-file
log:
  format: json
`)

	cfg, err := load(path, testPrefix)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Spam.WindowSize)
	assert.Equal(t, 0.000001, cfg.Usage.InputCostPerToken)
	assert.Equal(t, vigil.DefaultOutputCostPerToken, cfg.Usage.OutputCostPerToken)
	assert.Equal(t, 5*time.Second, cfg.Probe.Timeout)
	assert.Equal(t, "from-file", cfg.Probe.Gemini.APIKey)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "spam:\n  window_size: 5\n")
	t.Setenv(testPrefix+"SPAM__WINDOW_SIZE", "7")
	t.Setenv(testPrefix+"PROBE__GEMINI__API_KEY", "from-env")
	t.Setenv(testPrefix+"PROBE__TIMEOUT", "250ms")

	cfg, err := load(path, testPrefix)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Spam.WindowSize)
	assert.Equal(t, "from-env", cfg.Probe.Gemini.APIKey)
	assert.Equal(t, 250*time.Millisecond, cfg.Probe.Timeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"), testPrefix)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "zero window", mutate: func(c *Config) { c.Spam.WindowSize = 0 }},
		{name: "negative input rate", mutate: func(c *Config) { c.Usage.InputCostPerToken = -1 }},
		{name: "negative output rate", mutate: func(c *Config) { c.Usage.OutputCostPerToken = -1 }},
		{name: "zero timeout", mutate: func(c *Config) { c.Probe.Timeout = 0 }},
		{name: "unknown log format", mutate: func(c *Config) { c.Log.Format = "xml" }},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.Validate())

			tc.mutate(cfg)

			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestProbeTable_RegistersGemini(t *testing.T) {
	table := Default().ProbeTable(slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, []string{probe.GeminiModelName}, table.Models())
	assert.False(t, table.Supports("unknown"))
}

func TestLogConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		cfg      LogConfig
		contains []string
		excludes []string
	}{
		{
			name:     "text at info drops debug",
			cfg:      LogConfig{Level: "info", Format: "text"},
			contains: []string{"level=INFO", "msg=shown"},
			excludes: []string{"hidden"},
		},
		{
			name:     "json at debug",
			cfg:      LogConfig{Level: "debug", Format: "json"},
			contains: []string{`"msg":"shown"`, `"msg":"hidden"`},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := tc.cfg.NewLogger(&buf)

			logger.Debug("hidden")
			logger.Info("shown")

			for _, s := range tc.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tc.excludes {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}
