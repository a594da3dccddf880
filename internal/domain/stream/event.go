// Package stream provides the in-process fan-out path for committed
// messages: routing keys, the subscriber bus and the per-client session.
package stream

import (
	"strings"

	"github.com/agentmesh/conversation-api/internal/domain/message"
)

// Event is a committed message decorated with its routing keys.
type Event struct {
	// GroupID routes to the participant's own thread:
	// workflow + participant + tenant.
	GroupID string
	// TenantGroupID routes to every participant of the workflow within the
	// tenant: workflow + tenant.
	TenantGroupID string
	TenantID      string
	Scope         string
	Message       *message.Message
}

// GroupID derives the thread routing key.
func GroupID(workflowID, participantID, tenantID string) string {
	return strings.Join([]string{workflowID, participantID, tenantID}, "/")
}

// TenantGroupID derives the workflow-wide routing key.
func TenantGroupID(workflowID, tenantID string) string {
	return strings.Join([]string{workflowID, tenantID}, "/")
}

// NewEvent builds the event for a committed message.
func NewEvent(msg *message.Message) Event {
	return Event{
		GroupID:       GroupID(msg.WorkflowID, msg.ParticipantID, msg.TenantID),
		TenantGroupID: TenantGroupID(msg.WorkflowID, msg.TenantID),
		TenantID:      msg.TenantID,
		Scope:         msg.Scope,
		Message:       msg,
	}
}
