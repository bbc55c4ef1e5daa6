// Package config loads agentlog configuration: defaults, then an optional
// YAML file, then .env/environment overrides for the secrets that should
// not live in a checked-in file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Gytisw/agentlog/internal/logsink"
	"github.com/Gytisw/agentlog/internal/netwatch"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "agentlog.yaml"

// LLMConfig configures the model backend.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	// RequestTimeout bounds one model call, in seconds.
	RequestTimeout int `yaml:"request_timeout"`
}

// BrowserConfig configures the browser launch.
type BrowserConfig struct {
	Headless    bool   `yaml:"headless"`
	UserDataDir string `yaml:"user_data_dir"`
}

// AgentConfig configures the orchestration loop.
type AgentConfig struct {
	MaxSteps int `yaml:"max_steps"`
}

// MetricsConfig configures the prometheus listener. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Config is the full application configuration.
type Config struct {
	LLM     LLMConfig       `yaml:"llm"`
	Browser BrowserConfig   `yaml:"browser"`
	Agent   AgentConfig     `yaml:"agent"`
	Log     logsink.Config  `yaml:"log"`
	Network netwatch.Config `yaml:"network"`
	Metrics MetricsConfig   `yaml:"metrics"`
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Model:          "gpt-3.5-turbo",
			BaseURL:        "https://api.groq.com/openai/v1",
			RequestTimeout: 60,
		},
		Browser: BrowserConfig{
			Headless:    false,
			UserDataDir: "user_data",
		},
		Agent: AgentConfig{MaxSteps: 30},
		Log: logsink.Config{
			Console: true,
			Level:   "info",
			File: logsink.FileConfig{
				Path:       "logs/actions.log",
				MaxSize:    10, // MB
				MaxBackups: 5,
				MaxAge:     14, // days
			},
		},
		Network: netwatch.Config{Capture: true},
	}
}

// Load builds the configuration: defaults, YAML file if present, then env
// overrides (API_KEY, MODEL, URL — loaded from .env too when one exists).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No file is fine, defaults plus env are enough.
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	// .env is optional; a missing one is the normal case in production.
	_ = godotenv.Load()

	if v := os.Getenv("API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("URL"); v != "" {
		cfg.LLM.BaseURL = v
	}

	return &cfg, nil
}

// Validate checks everything the agent run needs up front.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return fmt.Errorf("config: API_KEY is required but not set in config, environment or .env file")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("config: llm.model must not be empty")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log.level %q", c.Log.Level)
	}
	if err := c.Network.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
