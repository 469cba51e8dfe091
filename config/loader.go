package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "orchestra.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/orchestra"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// EnvPrefix is the prefix of environment variable overrides
	EnvPrefix = "ORCHESTRA_"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/orchestra/config.yaml)
// 3. Project config (orchestra.yaml in current or parent directories)
// 4. .env file in the working directory
// 5. ORCHESTRA_* environment variables
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	userConfigPath := l.userConfigPath()
	if userConfig, err := LoadFromFile(userConfigPath); err == nil {
		l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		config.Merge(userConfig)
	} else if !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	// .env values become process env without clobbering existing variables.
	if err := godotenv.Load(); err == nil {
		l.logger.Debug("Loaded .env file")
	}
	l.applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	if _, err := os.Stat(userConfigPath); err == nil {
		return nil
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// applyEnv overlays ORCHESTRA_* environment variables onto the config.
func (l *Loader) applyEnv(config *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			// Bare numbers are seconds.
			secs, serr := strconv.Atoi(v)
			if serr != nil {
				l.logger.Warn("Ignoring invalid duration", slog.String("var", EnvPrefix+key), slog.String("value", v))
				return
			}
			d = time.Duration(secs) * time.Second
		}
		*dst = d
	}

	setString("ENVIRONMENT", &config.Environment)
	setString("LOG_LEVEL", &config.LogLevel)
	setString("API_HOST", &config.API.Host)
	if v, ok := os.LookupEnv(EnvPrefix + "API_PORT"); ok && v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.API.Port = port
		} else {
			l.logger.Warn("Ignoring invalid port", slog.String("value", v))
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CORS_ORIGINS"); ok && v != "" {
		config.API.CORSOrigins = strings.Split(v, ",")
	}
	setString("DATABASE_PATH", &config.Database.Path)
	if v, ok := os.LookupEnv(EnvPrefix + "USE_MOCK_AGENTS"); ok {
		config.Agents.UseMock = v == "1" || strings.EqualFold(v, "true")
	}
	setDuration("AGENT_TIMEOUT", &config.Agents.Timeout)
	setDuration("PLANNING_TIMEOUT", &config.Agents.PlanningTimeout)
	setDuration("REVIEW_TIMEOUT", &config.Agents.ReviewTimeout)
	setDuration("SUMMARY_TIMEOUT", &config.Agents.SummaryTimeout)
	setString("CLAUDE_CLI_PATH", &config.Agents.ClaudeCLIPath)
	setString("CODEX_CLI_PATH", &config.Agents.CodexCLIPath)
	setString("GEMINI_CLI_PATH", &config.Agents.GeminiCLIPath)
	setString("WORKING_DIRECTORY", &config.Agents.WorkingDirectory)
}

// ProjectConfigPath returns the project config file in effect, or "" when no
// orchestra.yaml exists in the current or any parent directory.
func (l *Loader) ProjectConfigPath() string {
	return l.findProjectConfig()
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for orchestra.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
