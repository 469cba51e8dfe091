package agent

import "strings"

// CodexAdapter drives the Codex CLI through its non-interactive exec
// subcommand. The prompt goes via stdin and the tool prints plain text, not
// JSON.
type CodexAdapter struct{}

// Name returns the tool family identifier.
func (c *CodexAdapter) Name() string { return "codex" }

// BuildArgv builds: codex exec --suggest|--full-auto. Review agents run in
// suggest mode so they never edit files.
func (c *CodexAdapter) BuildArgv(cfg Config, _ string) []string {
	argv := []string{cfg.CLIPath, "exec"}
	if cfg.SuggestMode {
		argv = append(argv, "--suggest")
	} else {
		argv = append(argv, "--full-auto")
	}
	return argv
}

// UseStdin reports prompt delivery; codex reads the prompt from stdin.
func (c *CodexAdapter) UseStdin() bool { return true }

// ExtractText returns the trimmed output as-is.
func (c *CodexAdapter) ExtractText(stdout string) (string, error) {
	return strings.TrimSpace(stdout), nil
}
