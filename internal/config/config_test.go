package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FileLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
provider: openai
ledger: /tmp/costs.log
budget:
  max_calls: 10
  max_cost_usd: 0.50
  calls_per_minute: 5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "/tmp/costs.log", cfg.Ledger)
	assert.Equal(t, 10, cfg.Budget.MaxCalls)
	assert.Equal(t, 0.50, cfg.Budget.MaxCostUSD)
	assert.Equal(t, 5, cfg.Budget.CallsPerMinute)
	// Unset keys keep their defaults.
	assert.Equal(t, 3, cfg.Pipeline.MaxAttempts)
}

func TestLoad_MissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("QUIZFORGE_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "fabricator", cfg.Provider)
	assert.Equal(t, 25, cfg.Budget.MaxCalls)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "provider: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	path := writeConfig(t, `
provider: openai
pipeline:
  max_attempts: 0
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty provider", func(c *Config) { c.Provider = "" }, true},
		{"negative calls", func(c *Config) { c.Budget.MaxCalls = -1 }, true},
		{"negative cost", func(c *Config) { c.Budget.MaxCostUSD = -0.5 }, true},
		{"zero attempts", func(c *Config) { c.Pipeline.MaxAttempts = 0 }, true},
		{"zero budget is allowed", func(c *Config) { c.Budget.MaxCalls = 0; c.Budget.MaxCostUSD = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
