// Package message models messages exchanged between workflows and
// participants.
package message

import (
	"fmt"
	"strings"
	"time"
)

// Direction indicates who produced the message relative to the workflow.
type Direction string

const (
	// DirectionIncoming is a message sent by a participant to the workflow.
	DirectionIncoming Direction = "incoming"
	// DirectionOutgoing is a message sent by the workflow to participants.
	DirectionOutgoing Direction = "outgoing"
)

// Valid reports whether the direction is one of the known values.
func (d Direction) Valid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

// Message is a single conversational message inside a thread.
//
// ID is the storage sequence used by the change feed cursor; PublicID is the
// identifier exposed over the API and in stream events.
type Message struct {
	ID             uint
	PublicID       string
	ThreadID       uint
	ThreadPublicID string
	TenantID       string
	WorkflowID     string
	ParticipantID  string
	Direction      Direction
	Type           string
	Text           string
	Payload        any
	Hint           string
	Scope          string
	RequestID      string
	CreatedBy      string
	CreatedAt      time.Time
}

// SaveParams carries the inputs for Save. The thread is resolved lazily from
// the (tenant, workflow, participant) triple.
type SaveParams struct {
	TenantID      string
	WorkflowID    string
	WorkflowType  string
	ParticipantID string
	Direction     Direction
	Type          string
	Text          string
	Payload       any
	Hint          string
	Scope         string
	RequestID     string
	CreatedBy     string
}

// Validate checks the save parameters.
func (p SaveParams) Validate() error {
	if strings.TrimSpace(p.TenantID) == "" {
		return fmt.Errorf("tenant id is required")
	}
	if strings.TrimSpace(p.WorkflowID) == "" {
		return fmt.Errorf("workflow id is required")
	}
	if strings.TrimSpace(p.ParticipantID) == "" {
		return fmt.Errorf("participant id is required")
	}
	if !p.Direction.Valid() {
		return fmt.Errorf("direction %q is not valid", p.Direction)
	}
	if strings.TrimSpace(p.Type) == "" {
		return fmt.Errorf("message type is required")
	}
	return nil
}

// ListParams selects a page of messages for a thread group.
type ListParams struct {
	TenantID      string
	WorkflowID    string
	ParticipantID string
	Scope         string
	Page          int
	PageSize      int
}

// Page is a paginated message listing, newest first.
type Page struct {
	Messages []*Message
	Total    int64
	Page     int
	PageSize int
}
