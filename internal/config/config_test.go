package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gytisw/agentlog/internal/netwatch"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gpt-3.5-turbo", cfg.LLM.Model)
	assert.Equal(t, 60, cfg.LLM.RequestTimeout)
	assert.True(t, cfg.Log.Console)
	assert.Equal(t, "logs/actions.log", cfg.Log.File.Path)
	assert.True(t, cfg.Network.Capture)
	assert.Equal(t, 30, cfg.Agent.MaxSteps)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  model: qwen-2.5-72b
  base_url: http://localhost:11434/v1
browser:
  headless: true
log:
  level: debug
  file:
    path: /tmp/agent/actions.log
    max_size: 50
network:
  log_control: true
  rules:
    - name: drop-images
      when: ResourceType == "Image"
      action: drop
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "qwen-2.5-72b", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.BaseURL)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/agent/actions.log", cfg.Log.File.Path)
	assert.Equal(t, 50, cfg.Log.File.MaxSize)
	assert.True(t, cfg.Network.LogControl)
	require.Len(t, cfg.Network.Rules, 1)
	assert.Equal(t, "drop-images", cfg.Network.Rules[0].Name)

	// Untouched sections keep defaults.
	assert.Equal(t, 30, cfg.Agent.MaxSteps)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("API_KEY", "sk-test-123")
	t.Setenv("MODEL", "llama-3.1-70b")
	t.Setenv("URL", "https://openrouter.ai/api/v1")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sk-test-123", cfg.LLM.APIKey)
	assert.Equal(t, "llama-3.1-70b", cfg.LLM.Model)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.LLM.BaseURL)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err, "missing API key must fail validation")

	cfg.LLM.APIKey = "sk-test"
	require.NoError(t, cfg.Validate())

	cfg.Log.Level = "loud"
	require.Error(t, cfg.Validate())
	cfg.Log.Level = "info"

	cfg.Network.Rules = append(cfg.Network.Rules, netwatch.RuleConfig{Name: "bad", When: "Status ==", Action: "drop"})
	require.Error(t, cfg.Validate())
}
