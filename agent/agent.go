// Package agent runs external LLM CLI tools as subprocesses. It owns the
// per-tool adapters, the subprocess runner with its temp-file capture and
// timeout handling, the protocol-aware output parser, and the registry that
// caches configured agents per (role, name).
package agent

import (
	"context"
	"time"
)

// Agent is a configured assistant that answers one prompt per call.
type Agent interface {
	// Name returns the unique agent name (e.g. "claude_planner").
	Name() string

	// DisplayName returns the human-facing label used in checkpoint payloads.
	DisplayName() string

	// Type returns the tool family ("claude", "codex", "gemini", "mock").
	Type() string

	// Role returns what the agent is used for.
	Role() Role

	// Timeout returns the effective per-call deadline.
	Timeout() time.Duration

	// Send delivers a prompt and returns the agent's text response. The
	// context bounds the call; cancellation kills any subprocess.
	Send(ctx context.Context, prompt string) (string, error)
}

// CLIAgent invokes an external CLI tool through the Runner.
type CLIAgent struct {
	cfg     Config
	adapter Adapter
	runner  *Runner
}

// NewCLIAgent pairs a configuration with its tool adapter.
func NewCLIAgent(cfg Config, adapter Adapter, runner *Runner) *CLIAgent {
	return &CLIAgent{cfg: cfg, adapter: adapter, runner: runner}
}

// Name returns the unique agent name.
func (a *CLIAgent) Name() string { return a.cfg.Name }

// DisplayName returns the human-facing label, falling back to the name.
func (a *CLIAgent) DisplayName() string {
	if a.cfg.DisplayName != "" {
		return a.cfg.DisplayName
	}
	return a.cfg.Name
}

// Type returns the tool family.
func (a *CLIAgent) Type() string { return a.cfg.Type }

// Role returns what the agent is used for.
func (a *CLIAgent) Role() Role { return a.cfg.Role }

// Timeout returns the effective per-call deadline.
func (a *CLIAgent) Timeout() time.Duration {
	if a.cfg.Timeout > 0 {
		return a.cfg.Timeout
	}
	return TimeoutForRole(a.cfg.Role)
}

// Config returns the agent's configuration.
func (a *CLIAgent) Config() Config { return a.cfg }

// Send invokes the CLI tool with the given prompt.
func (a *CLIAgent) Send(ctx context.Context, prompt string) (string, error) {
	return a.runner.Send(ctx, a.cfg, a.adapter, prompt)
}
