package agent

// ClaudeAdapter drives the Claude Code CLI. The tool takes the prompt as an
// argument and emits JSON: a single object under --json, or a
// newline-delimited stream of system/assistant/result records depending on
// version and mode. The shared parser handles both.
type ClaudeAdapter struct{}

// Name returns the tool family identifier.
func (c *ClaudeAdapter) Name() string { return "claude" }

// BuildArgv builds: claude --json -p <prompt>.
func (c *ClaudeAdapter) BuildArgv(cfg Config, prompt string) []string {
	return []string{cfg.CLIPath, "--json", "-p", prompt}
}

// UseStdin reports prompt delivery; claude takes the prompt as an argument.
func (c *ClaudeAdapter) UseStdin() bool { return false }

// ExtractText parses the JSON output into the response text.
func (c *ClaudeAdapter) ExtractText(stdout string) (string, error) {
	return ParseOutput(stdout)
}
