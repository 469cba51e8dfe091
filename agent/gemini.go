package agent

// GeminiAdapter drives the Gemini CLI. The prompt goes via stdin so the tool
// works with file-based stdout redirection; --yolo auto-approves tool actions
// so runs never block on a confirmation prompt.
type GeminiAdapter struct{}

// Name returns the tool family identifier.
func (g *GeminiAdapter) Name() string { return "gemini" }

// BuildArgv builds: gemini --output-format json --yolo.
func (g *GeminiAdapter) BuildArgv(cfg Config, _ string) []string {
	return []string{cfg.CLIPath, "--output-format", "json", "--yolo"}
}

// UseStdin reports prompt delivery; gemini reads the prompt from stdin.
func (g *GeminiAdapter) UseStdin() bool { return true }

// ExtractText parses the JSON output into the response text.
func (g *GeminiAdapter) ExtractText(stdout string) (string, error) {
	return ParseOutput(stdout)
}
