package main

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/c360studio/orchestra/agent"
	"github.com/c360studio/orchestra/config"
	"github.com/c360studio/orchestra/orchestrator"
	"github.com/c360studio/orchestra/storage"
	"github.com/prometheus/client_golang/prometheus"
)

// runtime bundles the wired service with its owned resources.
type runtime struct {
	cfg        *config.Config
	configFile string
	store      *storage.Store
	agents     *agent.Registry
	service    *orchestrator.Service
	logger     *slog.Logger
}

// newRuntime loads config and wires storage, agents, and the orchestrator.
func newRuntime(configPath, logLevel string) (*runtime, error) {
	var cfg *config.Config
	var err error
	configFile := configPath
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
		if err == nil {
			err = cfg.Validate()
		}
	} else {
		loader := config.NewLoader(nil)
		cfg, err = loader.Load()
		configFile = loader.ProjectConfigPath()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel, logLevel)

	store, err := storage.Open(cfg.Database.Path, storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	registry := agent.NewRegistry(agentSettings(cfg), agent.WithLogger(logger))

	service := orchestrator.NewService(store, registry,
		orchestrator.WithServiceLogger(logger),
		orchestrator.WithRegisterer(prometheus.DefaultRegisterer))

	return &runtime{
		cfg:        cfg,
		configFile: configFile,
		store:      store,
		agents:     registry,
		service:    service,
		logger:     logger,
	}, nil
}

// agentSettings maps the config's agent section onto registry settings.
func agentSettings(cfg *config.Config) agent.Settings {
	return agent.Settings{
		UseMock:          cfg.Agents.UseMock,
		ClaudeCLIPath:    cfg.Agents.ClaudeCLIPath,
		CodexCLIPath:     cfg.Agents.CodexCLIPath,
		GeminiCLIPath:    cfg.Agents.GeminiCLIPath,
		WorkingDirectory: cfg.Agents.WorkingDirectory,
		DefaultTimeout:   cfg.Agents.Timeout,
		PlanningTimeout:  cfg.Agents.PlanningTimeout,
		ReviewTimeout:    cfg.Agents.ReviewTimeout,
		SummaryTimeout:   cfg.Agents.SummaryTimeout,
	}
}

// watchConfig hot-reloads agent settings while a long-running command is up.
// Without a config file there is nothing to watch.
func (r *runtime) watchConfig(ctx context.Context) {
	if r.configFile == "" {
		return
	}
	w, err := config.NewWatcher(r.configFile, func(cfg *config.Config) {
		r.agents.Reconfigure(agentSettings(cfg))
	}, r.logger)
	if err != nil {
		r.logger.Warn("Config watch unavailable", "path", r.configFile, "error", err)
		return
	}
	go func() { _ = w.Run(ctx) }()
}

// close releases the runtime's resources after background runs settle.
func (r *runtime) close() {
	r.service.Close()
	if err := r.store.Close(); err != nil {
		r.logger.Warn("Failed to close database", "error", err)
	}
}
