package agent

import "strings"

// Adapter supplies the tool-specific pieces of an invocation: argv
// construction, prompt delivery, and the output shape. Adapters never touch
// the subprocess itself, and only the codex adapter (plain-text output)
// bypasses the shared JSON parser.
type Adapter interface {
	// Name returns the tool family identifier.
	Name() string

	// BuildArgv constructs the command line for one invocation. The prompt
	// is included only when the tool takes it as an argument.
	BuildArgv(cfg Config, prompt string) []string

	// UseStdin reports whether the prompt is delivered via stdin.
	UseStdin() bool

	// ExtractText converts raw stdout into the response text.
	ExtractText(stdout string) (string, error)
}

// AdapterFor maps an agent name prefix to its tool adapter. Unknown prefixes
// return nil; the registry falls back to the in-process mock so development
// setups work without any CLI installed.
func AdapterFor(name string) Adapter {
	switch {
	case strings.HasPrefix(name, "claude"):
		return &ClaudeAdapter{}
	case strings.HasPrefix(name, "codex"):
		return &CodexAdapter{}
	case strings.HasPrefix(name, "gemini"):
		return &GeminiAdapter{}
	default:
		return nil
	}
}
