// Package thread models conversation threads scoped to a tenant, workflow
// and participant.
package thread

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a thread.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Thread is a conversation thread. Exactly one thread exists per
// (tenant, workflow, participant) triple; storage enforces the uniqueness.
type Thread struct {
	ID            uint
	PublicID      string
	TenantID      string
	WorkflowID    string
	ParticipantID string
	WorkflowType  string
	AgentName     string
	Status        Status
	CreatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Key identifies a thread by its unique triple.
type Key struct {
	TenantID      string
	WorkflowID    string
	ParticipantID string
}

// Validate checks that every component of the key is present.
func (k Key) Validate() error {
	if strings.TrimSpace(k.TenantID) == "" {
		return fmt.Errorf("tenant id is required")
	}
	if strings.TrimSpace(k.WorkflowID) == "" {
		return fmt.Errorf("workflow id is required")
	}
	if strings.TrimSpace(k.ParticipantID) == "" {
		return fmt.Errorf("participant id is required")
	}
	return nil
}

// ParseAgentName extracts the agent name from a workflow type of the form
// "<agentName>:<workflowKind>". Values without both parts are rejected.
func ParseAgentName(workflowType string) (string, error) {
	name, kind, found := strings.Cut(workflowType, ":")
	if !found || strings.TrimSpace(name) == "" || strings.TrimSpace(kind) == "" {
		return "", fmt.Errorf("workflow type %q is not of the form agent:type", workflowType)
	}
	return strings.TrimSpace(name), nil
}
