package agent

import (
	"log/slog"
	"sync"
	"time"
)

// Settings carries the deployment-level agent options the Registry needs.
// The zero value is usable: built-in CLI names and role timeouts apply.
type Settings struct {
	UseMock          bool
	ClaudeCLIPath    string
	CodexCLIPath     string
	GeminiCLIPath    string
	WorkingDirectory string
	DefaultTimeout   time.Duration
	PlanningTimeout  time.Duration
	ReviewTimeout    time.Duration
	SummaryTimeout   time.Duration
}

// timeoutFor resolves the effective timeout for a role: the role-specific
// setting, then the general setting, then the built-in role default.
func (s Settings) timeoutFor(role Role) time.Duration {
	switch role {
	case RolePlanning:
		if s.PlanningTimeout > 0 {
			return s.PlanningTimeout
		}
	case RoleReview:
		if s.ReviewTimeout > 0 {
			return s.ReviewTimeout
		}
	case RoleSummary:
		if s.SummaryTimeout > 0 {
			return s.SummaryTimeout
		}
	}
	if s.DefaultTimeout > 0 {
		return s.DefaultTimeout
	}
	return TimeoutForRole(role)
}

// cliPathFor resolves the executable path for a tool family.
func (s Settings) cliPathFor(agentType string) string {
	switch agentType {
	case "claude":
		if s.ClaudeCLIPath != "" {
			return s.ClaudeCLIPath
		}
		return "claude"
	case "codex":
		if s.CodexCLIPath != "" {
			return s.CodexCLIPath
		}
		return "codex"
	case "gemini":
		if s.GeminiCLIPath != "" {
			return s.GeminiCLIPath
		}
		return "gemini"
	}
	return ""
}

// reviewerSlots is the fixed ordered reviewer triple.
var reviewerSlots = []struct {
	name        string
	displayName string
}{
	{"claude_reviewer", "Claude Reviewer"},
	{"codex_reviewer", "Codex Reviewer"},
	{"gemini_reviewer", "Gemini Reviewer"},
}

// Registry caches configured agents by (role, name) and owns their
// construction.
type Registry struct {
	settings Settings
	runner   *Runner
	logger   *slog.Logger

	mu     sync.RWMutex
	agents map[string]Agent
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger for the registry and its runner.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithRunner overrides the subprocess runner.
func WithRunner(runner *Runner) RegistryOption {
	return func(r *Registry) {
		r.runner = runner
	}
}

// NewRegistry creates an agent registry with the given settings.
func NewRegistry(settings Settings, opts ...RegistryOption) *Registry {
	r := &Registry{
		settings: settings,
		logger:   slog.Default(),
		agents:   make(map[string]Agent),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.runner == nil {
		r.runner = NewRunner(r.logger)
	}
	return r
}

// Get returns the cached agent for (role, name), creating it on first use.
func (r *Registry) Get(role Role, name string) Agent {
	return r.get(role, name, "")
}

// ReviewAgents returns the reviewer triple in stable order.
func (r *Registry) ReviewAgents() []Agent {
	agents := make([]Agent, 0, len(reviewerSlots))
	for _, slot := range reviewerSlots {
		agents = append(agents, r.get(RoleReview, slot.name, slot.displayName))
	}
	return agents
}

// Reconfigure replaces the registry settings and drops cached agents, so the
// next Get builds against the new paths and timeouts. In-flight calls keep the
// agent they started with.
func (r *Registry) Reconfigure(settings Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := len(r.agents)
	r.settings = settings
	r.agents = make(map[string]Agent)
	r.logger.Info("Agent settings reloaded", "dropped", dropped)
}

// StopAll drains the agent cache. In-flight calls own their subprocesses and
// finish (or time out) independently.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Info("Stopping all agents", "count", len(r.agents))
	r.agents = make(map[string]Agent)
}

func (r *Registry) get(role Role, name, displayName string) Agent {
	key := string(role) + "_" + name

	r.mu.RLock()
	existing, ok := r.agents[key]
	r.mu.RUnlock()
	if ok {
		return existing
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.agents[key]; ok {
		return existing
	}

	created := r.build(role, name, displayName)
	r.agents[key] = created
	return created
}

func (r *Registry) build(role Role, name, displayName string) Agent {
	if displayName == "" {
		displayName = name
	}

	adapter := AdapterFor(name)
	if r.settings.UseMock || adapter == nil {
		r.logger.Debug("Using mock agent", "name", name, "role", role)
		return NewMockAgent(name, displayName, role)
	}

	cfg := Config{
		Name:          name,
		DisplayName:   displayName,
		Type:          adapter.Name(),
		Role:          role,
		CLIPath:       r.settings.cliPathFor(adapter.Name()),
		WorkspacePath: r.settings.WorkingDirectory,
		Timeout:       r.settings.timeoutFor(role),
		UseStdin:      adapter.UseStdin(),
		SuggestMode:   role == RoleReview,
	}

	r.logger.Info("Configured agent",
		"name", name,
		"type", cfg.Type,
		"role", role,
		"timeout", cfg.Timeout)

	return NewCLIAgent(cfg, adapter, r.runner)
}
