package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all arbiter configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM advisor configuration
	LLM LLMConfig `yaml:"llm"`

	// Planner configuration
	Planner PlannerConfig `yaml:"planner"`

	// Fallback chain configuration
	Fallback FallbackConfig `yaml:"fallback"`

	// Director configuration
	Director DirectorConfig `yaml:"director"`

	// Telemetry store
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the remote advisor.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai, mock
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`

	// Worker pool serving advisor requests
	Workers    int `yaml:"workers"`
	QueueDepth int `yaml:"queue_depth"`
}

// PlannerConfig configures the synchronous strategies and the dispatcher.
type PlannerConfig struct {
	// Mode is the default planning mode for new agents.
	Mode   string `yaml:"mode"`
	Policy string `yaml:"policy"`

	// AdvisorCooldown is the minimum simulation seconds between advisor
	// requests for one agent.
	AdvisorCooldown float64 `yaml:"advisor_cooldown"`

	Goap     GoapConfig     `yaml:"goap"`
	Utility  UtilityConfig  `yaml:"utility"`
	Ensemble EnsembleConfig `yaml:"ensemble"`
}

// GoapConfig bounds the GOAP search.
type GoapConfig struct {
	MaxIterations int     `yaml:"max_iterations"`
	MaxDepth      int     `yaml:"max_depth"`
	RiskWeight    float64 `yaml:"risk_weight"`
}

// UtilityConfig overrides utility candidate scoring expressions by name.
type UtilityConfig struct {
	Scores map[string]string `yaml:"scores"`
}

// EnsembleConfig configures the concurrent strategy vote.
type EnsembleConfig struct {
	Deadline string `yaml:"deadline"`
}

// FallbackConfig configures the degradation chain.
type FallbackConfig struct {
	// StartTier: full, simplified
	StartTier          string `yaml:"start_tier"`
	FullDeadline       string `yaml:"full_deadline"`
	SimplifiedDeadline string `yaml:"simplified_deadline"`
}

// DirectorConfig configures the world-level director.
type DirectorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Intensity string `yaml:"intensity"` // calm, building, peak

	// Per-pool budget tuning; zero values take the built-in defaults.
	Budget map[string]BudgetPoolConfig `yaml:"budget"`
}

// BudgetPoolConfig tunes one director budget pool.
type BudgetPoolConfig struct {
	Cap              int     `yaml:"cap"`
	RefreshIncrement int     `yaml:"refresh_increment"`
	RefreshPeriod    float64 `yaml:"refresh_period"`
	Initial          int     `yaml:"initial"`
}

// TelemetryConfig configures the SQLite telemetry store.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	Dir   string `yaml:"dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "arbiter",
		Version: "0.4.0",

		LLM: LLMConfig{
			Provider:   "gemini",
			Model:      "gemini-2.0-flash",
			Timeout:    "30s",
			Workers:    2,
			QueueDepth: 16,
		},

		Planner: PlannerConfig{
			Mode:            "goap",
			Policy:          "default",
			AdvisorCooldown: 15.0,
			Goap: GoapConfig{
				MaxIterations: 10000,
				MaxDepth:      64,
				RiskWeight:    5.0,
			},
			Ensemble: EnsembleConfig{
				Deadline: "5ms",
			},
		},

		Fallback: FallbackConfig{
			StartTier:          "simplified",
			FullDeadline:       "10s",
			SimplifiedDeadline: "5s",
		},

		Director: DirectorConfig{
			Enabled:   false,
			Intensity: "building",
		},

		Telemetry: TelemetryConfig{
			Enabled:      false,
			DatabasePath: "data/arbiter.db",
		},

		Logging: LoggingConfig{
			Level: "info",
			Dir:   ".arbiter/logs",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "gemini"
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = "openai"
	}
	if key := os.Getenv("ARBITER_API_KEY"); key != "" {
		c.LLM.APIKey = key
	}
	if url := os.Getenv("ARBITER_LLM_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if model := os.Getenv("ARBITER_LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if mode := os.Getenv("ARBITER_MODE"); mode != "" {
		c.Planner.Mode = mode
	}
	if path := os.Getenv("ARBITER_DB"); path != "" {
		c.Telemetry.DatabasePath = path
		c.Telemetry.Enabled = true
	}
	if level := os.Getenv("ARBITER_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// LLMTimeout returns the advisor timeout as a duration.
func (c *Config) LLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, 30*time.Second)
}

// EnsembleDeadline returns the ensemble vote deadline as a duration.
func (c *Config) EnsembleDeadline() time.Duration {
	return parseDuration(c.Planner.Ensemble.Deadline, 5*time.Millisecond)
}

// FullDeadline returns the full-tier advisor deadline.
func (c *Config) FullDeadline() time.Duration {
	return parseDuration(c.Fallback.FullDeadline, 10*time.Second)
}

// SimplifiedDeadline returns the simplified-tier advisor deadline.
func (c *Config) SimplifiedDeadline() time.Duration {
	return parseDuration(c.Fallback.SimplifiedDeadline, 5*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
