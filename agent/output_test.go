package agent

import (
	"testing"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "result object",
			input: `{"type":"result","result":"hello"}`,
			want:  "hello",
		},
		{
			name: "ansi wrapped ndjson stream",
			input: "\x1b[32m{\"type\":\"system\",\"subtype\":\"init\"}\n" +
				"{\"type\":\"assistant\",\"message\":{\"content\":[{\"type\":\"tool_use\"}]}}\n" +
				"{\"type\":\"result\",\"result\":\"hello\"}\x1b[0m",
			want: "hello",
		},
		{
			name:  "truncated json salvage",
			input: `{"type":"result","result":"Line1\nLine2`,
			want:  "Line1\nLine2",
		},
		{
			name:    "system record only",
			input:   `{"type":"system","subtype":"init"}`,
			wantErr: true,
		},
		{
			name:  "assistant turn with only tool_use blocks",
			input: `{"type":"assistant","message":{"content":[{"type":"tool_use","id":"t1"}]}}`,
			want:  "",
		},
		{
			name:  "content blocks keep text and skip tools",
			input: `{"content":[{"type":"text","text":"Part one."},{"type":"tool_use","id":"t1"},{"type":"text","text":"Part two."}]}`,
			want:  "Part one.\nPart two.",
		},
		{
			name:  "content string",
			input: `{"content":"direct content"}`,
			want:  "direct content",
		},
		{
			name:  "message string",
			input: `{"message":"direct message"}`,
			want:  "direct message",
		},
		{
			name:  "result object with nested content",
			input: `{"result":{"content":"nested"}}`,
			want:  "nested",
		},
		{
			name:  "response content",
			input: `{"response":{"content":"gemini says"}}`,
			want:  "gemini says",
		},
		{
			name:  "response text",
			input: `{"response":{"text":"gemini text"}}`,
			want:  "gemini text",
		},
		{
			name:  "text field",
			input: `{"text":"plain text field"}`,
			want:  "plain text field",
		},
		{
			name:  "output field",
			input: `{"output":"output field"}`,
			want:  "output field",
		},
		{
			name:  "candidates with parts",
			input: `{"candidates":[{"content":{"parts":[{"text":"from candidates"}]}}]}`,
			want:  "from candidates",
		},
		{
			name:  "json surrounded by noise",
			input: `Loading tools...{"type":"result","result":"ok"}done`,
			want:  "ok",
		},
		{
			name:  "multiple objects on one line takes the last",
			input: `{"type":"assistant","content":"first"}{"type":"result","result":"last"}`,
			want:  "last",
		},
		{
			name:  "braces inside string values are not structural",
			input: `{"type":"result","result":"has { and } inside"}`,
			want:  "has { and } inside",
		},
		{
			name:  "ndjson with no result-bearing record falls back to last valid",
			input: "{\"type\":\"thinking\",\"step\":1}\n{\"type\":\"other\",\"text\":\"fallback\"}",
			want:  "fallback",
		},
		{
			name:  "bare json string",
			input: `"hello"`,
			want:  "hello",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "plain text without json",
			input:   "This is just text with no JSON.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutput(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseOutput(%q) = %q, want error", tt.input, got)
				}
				if !IsParseFailure(err) {
					t.Errorf("ParseOutput(%q) error = %v, want ParseError", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOutput(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseOutput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseOutputUnrecognizedKeys(t *testing.T) {
	got, err := ParseOutput(`{"foo":"bar"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "{\n  \"foo\": \"bar\"\n}"
	if got != want {
		t.Errorf("ParseOutput = %q, want formatted record %q", got, want)
	}
}

func TestSalvageContent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{
			name:  "result has priority over content",
			input: `{"content":"c-value","result":"r-value`,
			want:  "r-value",
			ok:    true,
		},
		{
			name:  "escaped quotes survive",
			input: `{"result":"say \"hi\" now`,
			want:  `say "hi" now`,
			ok:    true,
		},
		{
			name:  "escape sequences decoded",
			input: `{"message":"a\tb\r\nc`,
			want:  "a\tb\r\nc",
			ok:    true,
		},
		{
			name:  "terminated value stops at closing quote",
			input: `{"result":"first","other":"second"}`,
			want:  "first",
			ok:    true,
		},
		{
			name:  "no recognized field",
			input: `{"verdict":"yes`,
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := salvageContent(tt.input)
			if ok != tt.ok {
				t.Fatalf("salvageContent(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("salvageContent(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLastTopLevelObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "single object",
			input: `{"a":1}`,
			want:  `{"a":1}`,
		},
		{
			name:  "last of several",
			input: `{"a":1} and {"b":2}`,
			want:  `{"b":2}`,
		},
		{
			name:  "nested stays whole",
			input: `x{"a":{"b":{"c":3}}}y`,
			want:  `{"a":{"b":{"c":3}}}`,
		},
		{
			name:  "braces in strings ignored",
			input: `{"a":"}{"}`,
			want:  `{"a":"}{"}`,
		},
		{
			name:  "stray closing brace before object",
			input: `}{"a":1}`,
			want:  "",
		},
		{
			name:  "unterminated object",
			input: `{"a":1`,
			want:  "",
		},
		{
			name:  "no object",
			input: "nothing here",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lastTopLevelObject(tt.input)
			if got != tt.want {
				t.Errorf("lastTopLevelObject(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
