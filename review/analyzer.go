// Package review classifies reviewer output as approval or feedback.
//
// Classification is heuristic: two regex pattern sets (approval signals and
// concern signals) are counted against the lowercased review text. When a
// summary agent emits an explicit verdicts block, ParseVerdicts supersedes
// the heuristic.
package review

import (
	"regexp"
	"strings"
)

// Status classifies a single reviewer's output.
type Status string

const (
	// StatusApproved means the review explicitly approves, or raises only
	// minor optional suggestions.
	StatusApproved Status = "approved"
	// StatusHasFeedback means the review raises concerns or required changes.
	StatusHasFeedback Status = "has_feedback"
	// StatusUnclear means the review could not be classified.
	StatusUnclear Status = "unclear"
)

// IsValid checks if a status string is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusApproved, StatusHasFeedback, StatusUnclear:
		return true
	default:
		return false
	}
}

// Approval and concern signals, matched against lowercased review text.
var (
	approvalPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bapproved?\b`),
		regexp.MustCompile(`\blooks?\s+good\b`),
		regexp.MustCompile(`\bready\s+to\s+(proceed|implement|continue)\b`),
		regexp.MustCompile(`\bno\s+(concerns?|issues?|problems?)\b`),
		regexp.MustCompile(`\bexcellent\s+plan\b`),
		regexp.MustCompile(`\bwell[-\s]structured\b`),
		regexp.MustCompile(`\bcomprehensive\s+plan\b`),
		regexp.MustCompile(`\bno\s+major\s+(concerns?|issues?)\b`),
		regexp.MustCompile(`\ball\s+good\b`),
		regexp.MustCompile(`\bproceed\s+with\s+implementation\b`),
	}

	concernPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(critical|major|serious)\s+(issue|concern|problem)\b`),
		regexp.MustCompile(`\bmust\s+(address|fix|change|add|update)\b`),
		regexp.MustCompile(`\brequired?\s+(change|update|fix)\b`),
		regexp.MustCompile(`\bmissing\s+(critical|important|essential)\b`),
		regexp.MustCompile(`\bshould\s+(add|include|consider|address)\b.*\bbefore\s+implementation\b`),
		regexp.MustCompile(`\bsignificant\s+(concern|issue|problem)\b`),
		regexp.MustCompile(`\bnot\s+ready\b`),
		regexp.MustCompile(`\bneeds?\s+(revision|more\s+work|improvement)\b`),
		regexp.MustCompile(`\breject\b`),
	}

	shouldPattern = regexp.MustCompile(`\bshould\b`)
)

// Analyze classifies review text as approved, has_feedback, or unclear.
// A single concern signal outweighs any number of approval signals.
func Analyze(content string) Status {
	lower := strings.ToLower(content)

	approvals := matchCount(approvalPatterns, lower)
	concerns := matchCount(concernPatterns, lower)

	if approvals > 0 && concerns == 0 {
		return StatusApproved
	}
	if concerns > 0 {
		return StatusHasFeedback
	}

	// Repeated "should" statements read as suggestions even when no
	// explicit concern signal matched.
	if len(shouldPattern.FindAllStringIndex(lower, -1)) >= 3 {
		return StatusHasFeedback
	}

	// A substantial review that matched nothing usually still carries
	// feedback; only short unmatched text is truly unclear.
	if len(lower) > 200 {
		return StatusHasFeedback
	}
	return StatusUnclear
}

// matchCount counts how many patterns match the content at least once.
func matchCount(patterns []*regexp.Regexp, content string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(content) {
			n++
		}
	}
	return n
}
