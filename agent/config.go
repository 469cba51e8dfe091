package agent

import "time"

// Role identifies what an agent is used for; it selects the default timeout.
type Role string

const (
	// RolePlanning produces design documents. Long deadline.
	RolePlanning Role = "planning"

	// RoleReview critiques a plan.
	RoleReview Role = "review"

	// RoleSummary condenses reviewer feedback. Short deadline.
	RoleSummary Role = "summary"

	// RoleGeneral is the default for everything else.
	RoleGeneral Role = "general"
)

// Built-in per-role timeouts, used when the deployment configures nothing.
const (
	DefaultTimeout         = 300 * time.Second
	DefaultPlanningTimeout = 600 * time.Second
	DefaultReviewTimeout   = 300 * time.Second
	DefaultSummaryTimeout  = 120 * time.Second
)

// TimeoutForRole returns the built-in default timeout for a role.
func TimeoutForRole(role Role) time.Duration {
	switch role {
	case RolePlanning:
		return DefaultPlanningTimeout
	case RoleReview:
		return DefaultReviewTimeout
	case RoleSummary:
		return DefaultSummaryTimeout
	default:
		return DefaultTimeout
	}
}

// Config describes a single invocable agent. Configs are built by the
// Registry and never persisted.
type Config struct {
	Name          string
	DisplayName   string
	Type          string
	Role          Role
	CLIPath       string
	WorkspacePath string
	Timeout       time.Duration

	// UseStdin delivers the prompt on stdin instead of argv. Long prompts
	// exceed platform argument-length limits.
	UseStdin bool

	// SuggestMode restricts tools that can edit files to suggestions only.
	SuggestMode bool
}
