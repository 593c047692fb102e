// Package config loads the agent's YAML configuration.
//
// ${VAR} references in the file are expanded from the environment before
// parsing. A handful of AGT_* variables then override individual settings,
// so the binary also runs with no config file at all.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Agent     AgentConfig     `yaml:"agent"`
	Threads   ThreadsConfig   `yaml:"threads"`
	Data      DataConfig      `yaml:"data"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ModelConfig struct {
	Name      string `yaml:"name"`
	MaxTokens int64  `yaml:"max_tokens"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`

	Timeout    time.Duration `yaml:"-"`
	TimeoutRaw string        `yaml:"timeout"`
}

type AgentConfig struct {
	MaxToolRounds          int    `yaml:"max_tool_rounds"`
	TokenBudget            int    `yaml:"token_budget"`
	HistoryTurnLimit       int    `yaml:"history_turn_limit"`
	DeterministicSummaries bool   `yaml:"deterministic_summaries"`
	SystemPrompt           string `yaml:"system_prompt"`
}

type ThreadsConfig struct {
	CreateOnFirstUse bool `yaml:"create_on_first_use"`

	IdleTTL       time.Duration `yaml:"-"`
	SweepInterval time.Duration `yaml:"-"`

	IdleTTLRaw       string `yaml:"idle_ttl"`
	SweepIntervalRaw string `yaml:"sweep_interval"`
}

type DataConfig struct {
	Path string `yaml:"path"`
	Seed bool   `yaml:"seed"`
}

type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			MaxTokens:  1024,
			Timeout:    60 * time.Second,
			TimeoutRaw: "60s",
		},
		Agent: AgentConfig{
			MaxToolRounds: 4,
		},
		Threads: ThreadsConfig{
			CreateOnFirstUse: true,
			SweepInterval:    time.Minute,
			SweepIntervalRaw: "1m",
		},
		Data: DataConfig{
			Path: ".agent/data.db",
			Seed: true,
		},
		Server: ServerConfig{
			HTTPAddr: "127.0.0.1:8000",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Dir: ".agent",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with the value of VAR. Unset variables
// expand to the empty string.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envRef.FindStringSubmatch(match)[1])
	})
}

func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"model.timeout", cfg.Model.TimeoutRaw, &cfg.Model.Timeout},
		{"threads.idle_ttl", cfg.Threads.IdleTTLRaw, &cfg.Threads.IdleTTL},
		{"threads.sweep_interval", cfg.Threads.SweepIntervalRaw, &cfg.Threads.SweepInterval},
	}
	for _, f := range fields {
		if f.raw == "" {
			*f.dst = 0
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.Model.APIKey == "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("AGT_MODEL"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("AGT_HTTP_ADDR"); v != "" {
		cfg.Server.HTTPAddr = v
	}
	if v := os.Getenv("AGT_DATA_PATH"); v != "" {
		cfg.Data.Path = v
	}
	if os.Getenv("AGT_OBSERVE_JSON") == "1" {
		cfg.Telemetry.Enabled = true
	}

	ints := []struct {
		env string
		dst *int
	}{
		{"AGT_MAX_TOOL_ROUNDS", &cfg.Agent.MaxToolRounds},
		{"AGT_TOKEN_BUDGET", &cfg.Agent.TokenBudget},
	}
	for _, e := range ints {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", e.env, v, err)
		}
		*e.dst = n
	}
	return nil
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.Agent.MaxToolRounds < 1 {
		return fmt.Errorf("agent.max_tool_rounds must be at least 1, got %d", c.Agent.MaxToolRounds)
	}
	if c.Agent.TokenBudget < 0 {
		return fmt.Errorf("agent.token_budget must not be negative")
	}
	if c.Agent.HistoryTurnLimit < 0 {
		return fmt.Errorf("agent.history_turn_limit must not be negative")
	}
	if c.Threads.IdleTTL < 0 {
		return fmt.Errorf("threads.idle_ttl must not be negative")
	}
	if c.Threads.IdleTTL > 0 && c.Threads.SweepInterval <= 0 {
		return fmt.Errorf("threads.sweep_interval is required when threads.idle_ttl is set")
	}
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
