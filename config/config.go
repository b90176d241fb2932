// Package config loads vigil's settings from defaults, an optional YAML
// file, and VIGIL_-prefixed environment variables (in that order of
// precedence, lowest first).
//
// Environment keys use a double underscore as the path separator:
//
//	VIGIL_SPAM__WINDOW_SIZE=5
//	VIGIL_PROBE__TIMEOUT=10s
//	VIGIL_PROBE__GEMINI__API_KEY=...
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/rickchristie/vigil"
	"github.com/rickchristie/vigil/probe"
	"github.com/rickchristie/vigil/validators"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "VIGIL_"

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Spam  SpamConfig  `koanf:"spam"`
	Usage UsageConfig `koanf:"usage"`
	Probe ProbeConfig `koanf:"probe"`
	Log   LogConfig   `koanf:"log"`
}

type SpamConfig struct {
	WindowSize int `koanf:"window_size"`
}

type UsageConfig struct {
	InputCostPerToken  float64 `koanf:"input_cost_per_token"`
	OutputCostPerToken float64 `koanf:"output_cost_per_token"`
}

// Rates returns the configured prices as vigil.CostRates.
func (u UsageConfig) Rates() vigil.CostRates {
	return vigil.CostRates{
		InputPerToken:  u.InputCostPerToken,
		OutputPerToken: u.OutputCostPerToken,
	}
}

type ProbeConfig struct {
	Timeout time.Duration `koanf:"timeout"`
	Gemini  GeminiConfig  `koanf:"gemini"`
}

type GeminiConfig struct {
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
	BaseURL string `koanf:"base_url"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text or json
}

var defaults = map[string]any{
	"spam.window_size":            validators.DefaultSpamWindowSize,
	"usage.input_cost_per_token":  vigil.DefaultInputCostPerToken,
	"usage.output_cost_per_token": vigil.DefaultOutputCostPerToken,
	"probe.timeout":               validators.DefaultProbeTimeout,
	"probe.gemini.model":          probe.DefaultGeminiModel,
	"probe.gemini.base_url":       probe.GeminiBaseURL,
	"log.level":                   "info",
	"log.format":                  "text",
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults alone never fail to unmarshal or validate.
		panic(err)
	}
	return cfg
}

// Load builds the configuration. path may be empty to skip the file layer.
func Load(path string) (*Config, error) {
	return load(path, EnvPrefix)
}

func load(path, envPrefix string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".",
		)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Spam.WindowSize < 1 {
		return fmt.Errorf("%w: spam.window_size must be >= 1, got %d",
			ErrInvalidConfig, c.Spam.WindowSize)
	}
	if c.Usage.InputCostPerToken < 0 || c.Usage.OutputCostPerToken < 0 {
		return fmt.Errorf("%w: usage cost rates must not be negative", ErrInvalidConfig)
	}
	if c.Probe.Timeout <= 0 {
		return fmt.Errorf("%w: probe.timeout must be positive, got %s",
			ErrInvalidConfig, c.Probe.Timeout)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q",
			ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

// ProbeTable builds the model probe table from the configuration. Gemini is
// always registered; without an API key its probe fails at construction,
// which the thinker treats as a failed probe. logger receives prober release
// failures.
func (c *Config) ProbeTable(logger *slog.Logger) *probe.Table {
	return probe.NewTable().Register(
		probe.GeminiModelName,
		probe.FromFactory(probe.NewGeminiFactory(probe.GeminiConfig{
			APIKey:  c.Probe.Gemini.APIKey,
			Model:   c.Probe.Gemini.Model,
			BaseURL: c.Probe.Gemini.BaseURL,
		})).WithLogger(logger),
	)
}
