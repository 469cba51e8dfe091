package agent

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Pre-compiled patterns for cleaning and salvaging agent CLI output.
var (
	// ansiEscapePattern matches ANSI escape sequences (CSI plus two-byte
	// escapes). The CLIs in scope emit color codes even in JSON output modes.
	ansiEscapePattern = regexp.MustCompile("\x1B(?:[@-Z\\\\-_]|\\[[0-?]*[ -/]*[@-~])")

	// salvagePatterns extract a string field value from truncated JSON, in
	// priority order. The capture accepts escape pairs and non-quote bytes
	// only, so it ends at the first unescaped quote or at the end of the
	// buffer when the closing quote was cut off.
	salvagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`"result"\s*:\s*"((?:[^"\\]|\\.)*)`),
		regexp.MustCompile(`"content"\s*:\s*"((?:[^"\\]|\\.)*)`),
		regexp.MustCompile(`"message"\s*:\s*"((?:[^"\\]|\\.)*)`),
	}
)

// ParseOutput extracts the text of the most recent result-bearing JSON record
// from raw agent stdout. It strips ANSI sequences, selects the right record
// from newline-delimited streams, walks out the last top-level object when
// the output is a single noisy line, and falls back to regex salvage when the
// payload was truncated mid-string.
func ParseOutput(stdout string) (string, error) {
	cleaned := ansiEscapePattern.ReplaceAllString(stdout, "")
	record := extractJSONRecord(cleaned)

	var data any
	if err := json.Unmarshal([]byte(record), &data); err != nil {
		if text, ok := salvageContent(record); ok && text != "" {
			return text, nil
		}
		return "", &ParseError{Reason: "agent output is not valid JSON", Err: err}
	}

	switch v := data.(type) {
	case string:
		return v, nil
	case map[string]any:
		if t, _ := v["type"].(string); t == "system" {
			return "", &ParseError{Reason: `agent emitted only a "system" record`}
		}
		if text, ok := extractContent(v); ok {
			return text, nil
		}
		// No recognized payload key. Return the record itself so the caller
		// sees what the tool actually produced.
		pretty, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return record, nil
		}
		return string(pretty), nil
	default:
		return "", &ParseError{Reason: "agent output is not a JSON object"}
	}
}

// extractJSONRecord narrows raw (ANSI-stripped) output down to the one JSON
// record worth decoding. Multi-line output is treated as newline-delimited
// JSON first; whatever survives goes through the structural brace scan.
func extractJSONRecord(cleaned string) string {
	trimmed := strings.TrimSpace(cleaned)

	if lines := strings.Split(trimmed, "\n"); len(lines) > 1 {
		if selected, ok := selectStreamRecord(lines); ok {
			trimmed = selected
		}
	}

	if obj := lastTopLevelObject(trimmed); obj != "" {
		return obj
	}
	return trimmed
}

// selectStreamRecord picks the best line from newline-delimited JSON output.
// Streaming tools interleave system/thinking records with the real response;
// the last record typed "result" or "assistant" wins. When no line carries
// either type, the last structurally valid object is used instead.
func selectStreamRecord(lines []string) (string, bool) {
	var lastValid, lastResult string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		lastValid = line
		if t, _ := obj["type"].(string); t == "result" || t == "assistant" {
			lastResult = line
		}
	}

	if lastResult != "" {
		return lastResult, true
	}
	if lastValid != "" {
		return lastValid, true
	}
	return "", false
}

// lastTopLevelObject scans s for the last complete top-level {…} group. Only
// structural braces count: the walk tracks string boundaries and backslash
// escapes so braces inside string values are ignored.
func lastTopLevelObject(s string) string {
	depth := 0
	start := -1
	last := ""
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start != -1 {
				last = s[start : i+1]
				start = -1
			}
		}
	}
	return last
}

// extractContent locates the text payload of a parsed record, trying the key
// shapes of every tool in scope in a fixed priority order.
func extractContent(obj map[string]any) (string, bool) {
	if v, ok := obj["result"]; ok {
		switch r := v.(type) {
		case string:
			return r, true
		case map[string]any:
			if s, ok := r["content"].(string); ok {
				return s, true
			}
		}
	}

	if v, ok := obj["content"]; ok {
		if text, ok := contentText(v); ok {
			return text, true
		}
	}

	if v, ok := obj["message"]; ok {
		switch m := v.(type) {
		case string:
			return m, true
		case map[string]any:
			if inner, ok := m["content"]; ok {
				if text, ok := contentText(inner); ok {
					return text, true
				}
			}
		}
	}

	if resp, ok := obj["response"].(map[string]any); ok {
		if s, ok := resp["content"].(string); ok {
			return s, true
		}
		if s, ok := resp["text"].(string); ok {
			return s, true
		}
	}

	if s, ok := obj["text"].(string); ok {
		return s, true
	}
	if s, ok := obj["output"].(string); ok {
		return s, true
	}

	if cands, ok := obj["candidates"].([]any); ok && len(cands) > 0 {
		if cand, ok := cands[0].(map[string]any); ok {
			if content, ok := cand["content"].(map[string]any); ok {
				if parts, ok := content["parts"].([]any); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]any); ok {
						if s, ok := part["text"].(string); ok {
							return s, true
						}
					}
				}
			}
			if s, ok := cand["output"].(string); ok {
				return s, true
			}
		}
	}

	return "", false
}

// contentText resolves a content value that is either a plain string or a
// list of typed blocks. Only "text" blocks contribute; a turn holding nothing
// but tool_use/tool_result blocks yields the empty string, which is a valid
// intermediate response rather than an error.
func contentText(v any) (string, bool) {
	switch c := v.(type) {
	case string:
		return c, true
	case []any:
		var parts []string
		for _, block := range c {
			b, ok := block.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := b["type"].(string); t != "text" {
				continue
			}
			if s, ok := b["text"].(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n"), true
	}
	return "", false
}

// salvageContent attempts regex recovery of a payload field from JSON that
// failed strict parsing, typically because the tool truncated its output at
// a fixed byte offset. The first matching field wins.
func salvageContent(buf string) (string, bool) {
	for _, pattern := range salvagePatterns {
		match := pattern.FindStringSubmatch(buf)
		if match == nil {
			continue
		}
		return decodeEscapes(match[1]), true
	}
	return "", false
}

// decodeEscapes decodes the standard JSON escapes in salvaged content.
func decodeEscapes(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\t`, "\t")
	s = strings.ReplaceAll(s, `\r`, "\r")
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}
