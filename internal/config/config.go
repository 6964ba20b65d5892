package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application-level configuration file. Provider API keys
// stay in environment variables; the file holds everything safe to
// commit: provider selection, ceilings, paths.
type Config struct {
	// Provider names the model backend: "anthropic", "openai", "gemini",
	// "openrouter", or "fabricator".
	Provider string `yaml:"provider"`

	// DB is the SQLite database path. Empty means the default XDG path.
	DB string `yaml:"db"`

	// TemplatesDir overrides the embedded prompt templates. Empty means
	// use the embedded defaults.
	TemplatesDir string `yaml:"templates_dir"`

	// Ledger is the cost ledger file path. Empty disables the file
	// ledger (the database cost table is always written).
	Ledger string `yaml:"ledger"`

	Budget   BudgetConfig   `yaml:"budget"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// BudgetConfig holds the session ceilings.
type BudgetConfig struct {
	MaxCalls       int     `yaml:"max_calls"`
	MaxCostUSD     float64 `yaml:"max_cost_usd"`
	CallsPerMinute int     `yaml:"calls_per_minute"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider: "fabricator",
		Budget: BudgetConfig{
			MaxCalls:       25,
			MaxCostUSD:     1.00,
			CallsPerMinute: 20,
		},
		Pipeline: PipelineConfig{
			MaxAttempts: 3,
		},
	}
}

// Load reads and parses the config file at path, layered over defaults.
// A missing file is not an error when path is the default location;
// defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = defaultPath()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations that cannot work.
func (c Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider must not be empty")
	}
	if c.Budget.MaxCalls < 0 {
		return fmt.Errorf("budget.max_calls must not be negative")
	}
	if c.Budget.MaxCostUSD < 0 {
		return fmt.Errorf("budget.max_cost_usd must not be negative")
	}
	if c.Pipeline.MaxAttempts < 1 {
		return fmt.Errorf("pipeline.max_attempts must be at least 1")
	}
	return nil
}

func defaultPath() string {
	if p := os.Getenv("QUIZFORGE_CONFIG"); p != "" {
		return p
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "quizforge.yaml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "quizforge", "config.yaml")
}
