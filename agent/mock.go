package agent

import (
	"context"
	"fmt"
	"time"
)

// MockAgent answers prompts in-process with canned responses. It stands in
// for real CLI tools in development mode and in tests.
type MockAgent struct {
	name        string
	displayName string
	role        Role
}

// NewMockAgent creates a mock agent. An empty displayName falls back to name.
func NewMockAgent(name, displayName string, role Role) *MockAgent {
	if displayName == "" {
		displayName = name
	}
	return &MockAgent{name: name, displayName: displayName, role: role}
}

// Name returns the unique agent name.
func (m *MockAgent) Name() string { return m.name }

// DisplayName returns the human-facing label.
func (m *MockAgent) DisplayName() string { return m.displayName }

// Type returns the tool family.
func (m *MockAgent) Type() string { return "mock" }

// Role returns what the agent is used for.
func (m *MockAgent) Role() Role { return m.role }

// Timeout returns the built-in default deadline for the agent's role.
func (m *MockAgent) Timeout() time.Duration { return TimeoutForRole(m.role) }

// Send returns a canned response matching the agent's role.
func (m *MockAgent) Send(ctx context.Context, prompt string) (string, error) {
	if ctx.Err() != nil {
		return "", &CancelledError{Agent: m.name}
	}

	switch m.role {
	case RolePlanning:
		return mockPlanResponse, nil
	case RoleReview:
		return mockReviewResponse, nil
	default:
		preview := prompt
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		return fmt.Sprintf("Mock response from %s for: %s", m.name, preview), nil
	}
}

const mockPlanResponse = `# Development Plan

## Overview
A phased implementation plan for the requested system.

## Architecture
- Backend: REST API service
- Frontend: single-page web client
- Database: SQLite for development, PostgreSQL for production

## Implementation Steps

### Phase 1: Core Setup
1. Initialize project structure
2. Set up database schema
3. Create basic API endpoints

### Phase 2: Feature Development
1. Implement core business logic
2. Build user interface components
3. Add real-time updates

### Phase 3: Testing & Deployment
1. Write unit and integration tests
2. Set up CI pipeline
3. Deploy to staging, then production

## Risks & Mitigation
1. Risk: third-party API downtime. Mitigation: retry logic with fallbacks.
2. Risk: database scaling. Mitigation: plan the PostgreSQL migration early.
`

const mockReviewResponse = `# Review Feedback

## Overall Assessment
The plan is well-structured and covers the main phases of delivery.

## Strengths
- Clear separation of backend and frontend concerns
- Realistic phasing with an explicit testing stage
- Risks are identified with concrete mitigations

## Concerns & Recommendations

### 1. Database Strategy
The SQLite-to-PostgreSQL migration is risky late in development. You should
use PostgreSQL from the start to keep development and production aligned.

### 2. Testing Timing
Testing is concentrated at the end. Tests must be written alongside features,
not after them.

### 3. Authentication Details
"Basic API endpoints" needs to specify the authentication model before
implementation starts.

## Priority Action Items
1. CRITICAL: decide on the production database up front
2. HIGH: move testing earlier in the timeline
3. MEDIUM: document the authentication flow

## Conclusion
Recommendation: Revise and resubmit after addressing the critical items.
`
