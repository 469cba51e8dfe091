package review

import (
	"regexp"
	"strconv"
)

// Verdict is an explicit reviewer verdict emitted inside a fenced
// verdicts block.
type Verdict string

const (
	// VerdictApproved signals the plan can proceed as written.
	VerdictApproved Verdict = "APPROVED"
	// VerdictApprovedWithSuggestions signals approval with optional suggestions.
	VerdictApprovedWithSuggestions Verdict = "APPROVED_WITH_SUGGESTIONS"
	// VerdictNeedsRevision signals the plan needs another revision pass.
	VerdictNeedsRevision Verdict = "NEEDS_REVISION"
)

// IsValid checks if a verdict string is valid.
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictApproved, VerdictApprovedWithSuggestions, VerdictNeedsRevision:
		return true
	default:
		return false
	}
}

// Status maps an explicit verdict onto the heuristic classification scale.
// Optional suggestions do not block approval.
func (v Verdict) Status() Status {
	switch v {
	case VerdictApproved, VerdictApprovedWithSuggestions:
		return StatusApproved
	case VerdictNeedsRevision:
		return StatusHasFeedback
	default:
		return StatusUnclear
	}
}

// Verdict block patterns. A summary agent emits one fenced block with one
// line per reviewer:
//
//	```verdicts
//	REVIEW AGENT 1: APPROVED
//	REVIEW AGENT 2: NEEDS_REVISION
//	```
var (
	verdictBlockPattern = regexp.MustCompile("```verdicts\\s*\\n?([\\s\\S]*?)\\n?```")
	verdictLinePattern  = regexp.MustCompile(`(?m)^\s*REVIEW\s+AGENT\s+(\d+)\s*:\s*(APPROVED_WITH_SUGGESTIONS|APPROVED|NEEDS_REVISION)\s*$`)
)

// ParseVerdicts extracts explicit verdicts from a fenced verdicts block,
// keyed by reviewer number. Returns nil when no block is present; a block
// with no recognizable verdict lines yields an empty map.
func ParseVerdicts(content string) map[int]Verdict {
	block := verdictBlockPattern.FindStringSubmatch(content)
	if block == nil {
		return nil
	}

	verdicts := make(map[int]Verdict)
	for _, line := range verdictLinePattern.FindAllStringSubmatch(block[1], -1) {
		n, err := strconv.Atoi(line[1])
		if err != nil {
			continue
		}
		verdicts[n] = Verdict(line[2])
	}
	return verdicts
}
