// Package config provides configuration loading and management for Orchestra.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Orchestra configuration
type Config struct {
	// Environment is the deployment environment ("development" or "production")
	Environment string `yaml:"environment"`
	// LogLevel is the minimum log level ("debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`

	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	Agents   AgentsConfig   `yaml:"agents"`
}

// APIConfig configures the HTTP surface
type APIConfig struct {
	// Host is the bind address
	Host string `yaml:"host"`
	// Port is the listen port
	Port int `yaml:"port"`
	// CORSOrigins lists allowed browser origins
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig configures persistence
type DatabaseConfig struct {
	// Path is the SQLite database file path
	Path string `yaml:"path"`
}

// AgentsConfig configures the agent subprocess layer
type AgentsConfig struct {
	// UseMock replaces real CLI tools with in-process mock agents
	UseMock bool `yaml:"use_mock"`
	// Timeout is the default per-call deadline for any role
	Timeout time.Duration `yaml:"timeout"`
	// PlanningTimeout overrides the deadline for planning calls
	PlanningTimeout time.Duration `yaml:"planning_timeout"`
	// ReviewTimeout overrides the deadline for review calls
	ReviewTimeout time.Duration `yaml:"review_timeout"`
	// SummaryTimeout overrides the deadline for summary calls
	SummaryTimeout time.Duration `yaml:"summary_timeout"`
	// ClaudeCLIPath is the claude executable (default: "claude" on PATH)
	ClaudeCLIPath string `yaml:"claude_cli_path"`
	// CodexCLIPath is the codex executable (default: "codex" on PATH)
	CodexCLIPath string `yaml:"codex_cli_path"`
	// GeminiCLIPath is the gemini executable (default: "gemini" on PATH)
	GeminiCLIPath string `yaml:"gemini_cli_path"`
	// WorkingDirectory is where agent subprocesses run (default: cwd)
	WorkingDirectory string `yaml:"working_directory"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Path: "orchestra.db",
		},
		Agents: AgentsConfig{
			UseMock: false,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("environment must be development or production, got %q", c.Environment)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port must be between 1 and 65535, got %d", c.API.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	for _, d := range []time.Duration{
		c.Agents.Timeout, c.Agents.PlanningTimeout,
		c.Agents.ReviewTimeout, c.Agents.SummaryTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("agent timeouts must not be negative")
		}
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Environment != "" {
		c.Environment = other.Environment
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}

	// API
	if other.API.Host != "" {
		c.API.Host = other.API.Host
	}
	if other.API.Port != 0 {
		c.API.Port = other.API.Port
	}
	if len(other.API.CORSOrigins) > 0 {
		c.API.CORSOrigins = other.API.CORSOrigins
	}

	// Database
	if other.Database.Path != "" {
		c.Database.Path = other.Database.Path
	}

	// Agents
	if other.Agents.UseMock {
		c.Agents.UseMock = true
	}
	if other.Agents.Timeout != 0 {
		c.Agents.Timeout = other.Agents.Timeout
	}
	if other.Agents.PlanningTimeout != 0 {
		c.Agents.PlanningTimeout = other.Agents.PlanningTimeout
	}
	if other.Agents.ReviewTimeout != 0 {
		c.Agents.ReviewTimeout = other.Agents.ReviewTimeout
	}
	if other.Agents.SummaryTimeout != 0 {
		c.Agents.SummaryTimeout = other.Agents.SummaryTimeout
	}
	if other.Agents.ClaudeCLIPath != "" {
		c.Agents.ClaudeCLIPath = other.Agents.ClaudeCLIPath
	}
	if other.Agents.CodexCLIPath != "" {
		c.Agents.CodexCLIPath = other.Agents.CodexCLIPath
	}
	if other.Agents.GeminiCLIPath != "" {
		c.Agents.GeminiCLIPath = other.Agents.GeminiCLIPath
	}
	if other.Agents.WorkingDirectory != "" {
		c.Agents.WorkingDirectory = other.Agents.WorkingDirectory
	}
}
