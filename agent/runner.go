package agent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// stderrExcerptLimit bounds how much stderr is carried in errors and logs.
const stderrExcerptLimit = 500

// Runner launches agent CLI processes, captures their stdout through a temp
// file, and enforces per-call timeouts. A single Runner is shared by all
// agents; every call owns its own subprocess and temp file.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a Runner. A nil logger falls back to slog.Default.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// Send invokes one agent subprocess with the given prompt and returns the
// extracted response text. Failures are typed: TimeoutError, ExitError,
// EmptyOutputError, ParseError, SpawnError, or CancelledError. No subprocess,
// temp file, or file descriptor outlives the call.
func (r *Runner) Send(ctx context.Context, cfg Config, adapter Adapter, prompt string) (string, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = TimeoutForRole(cfg.Role)
	}
	if d, ok := callTimeout(ctx); ok {
		timeout = d
	}

	argv := adapter.BuildArgv(cfg, prompt)
	if len(argv) == 0 || argv[0] == "" {
		return "", &SpawnError{Agent: cfg.Name, Err: errors.New("no CLI path configured")}
	}

	r.logger.Info("Sending prompt to agent",
		"agent", cfg.Name,
		"type", adapter.Name(),
		"prompt_chars", len(prompt),
		"stdin", adapter.UseStdin(),
		"timeout", timeout)

	// Stdout goes straight to a temp file, never through a pipe: these tools
	// have been observed truncating large JSON payloads written to a pipe.
	stdoutFile, err := os.CreateTemp("", "agent-stdout-*.json")
	if err != nil {
		return "", &SpawnError{Agent: cfg.Name, Err: fmt.Errorf("create temp file: %w", err)}
	}
	stdoutPath := stdoutFile.Name()
	defer os.Remove(stdoutPath)
	defer stdoutFile.Close()

	var stderr bytes.Buffer

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = cfg.WorkspacePath
	cmd.Stdout = stdoutFile
	cmd.Stderr = &stderr
	// New session: parallel agents must not share a controlling terminal,
	// and the whole process group has to die together on timeout.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if adapter.UseStdin() {
		cmd.Stdin = strings.NewReader(prompt)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return "", &SpawnError{Agent: cfg.Name, Err: err}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-runCtx.Done():
		r.killGroup(cfg.Name, cmd.Process.Pid)
		<-done
		if errors.Is(ctx.Err(), context.Canceled) {
			r.logger.Warn("Agent call cancelled",
				"agent", cfg.Name,
				"elapsed", time.Since(start).Round(time.Millisecond))
			return "", &CancelledError{Agent: cfg.Name}
		}
		r.logger.Warn("Agent timed out", "agent", cfg.Name, "timeout", timeout)
		return "", &TimeoutError{Agent: cfg.Name, Timeout: timeout}
	}

	if waitErr != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			code = exitErr.ExitCode()
		}
		excerpt := clip(stderr.String(), stderrExcerptLimit)
		r.logger.Error("Agent process failed",
			"agent", cfg.Name,
			"exit_code", code,
			"stderr", excerpt)
		return "", &ExitError{Agent: cfg.Name, Code: code, Stderr: excerpt}
	}

	raw, err := os.ReadFile(stdoutPath)
	if err != nil {
		return "", fmt.Errorf("read agent output: %w", err)
	}

	if s := strings.TrimSpace(stderr.String()); s != "" {
		r.logger.Warn("Agent wrote to stderr", "agent", cfg.Name, "stderr", clip(s, stderrExcerptLimit))
	}

	output := string(raw)
	if strings.TrimSpace(output) == "" {
		return "", &EmptyOutputError{Agent: cfg.Name}
	}

	text, err := adapter.ExtractText(output)
	if err != nil {
		return "", fmt.Errorf("agent %s: %w", cfg.Name, err)
	}

	r.logger.Info("Agent responded",
		"agent", cfg.Name,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"response_chars", len(text))

	return text, nil
}

// killGroup kills the subprocess and everything it spawned. Setsid put the
// child in its own process group, so the negative pid reaches all of it.
func (r *Runner) killGroup(name string, pid int) {
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil {
		r.logger.Warn("Failed to kill agent process group",
			"agent", name,
			"pid", pid,
			"error", err)
	}
}

// clip bounds s to limit characters for error messages and logs.
func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
