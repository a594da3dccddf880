package entities

import (
	"time"

	"github.com/agentmesh/conversation-api/internal/domain/thread"
)

// Thread represents the database schema for conversation threads.
type Thread struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PublicID      string        `gorm:"type:varchar(50);uniqueIndex;not null"`
	TenantID      string        `gorm:"type:varchar(64);uniqueIndex:idx_thread_tenant_workflow_participant;not null"`
	WorkflowID    string        `gorm:"type:varchar(64);uniqueIndex:idx_thread_tenant_workflow_participant;not null"`
	ParticipantID string        `gorm:"type:varchar(64);uniqueIndex:idx_thread_tenant_workflow_participant;not null"`
	WorkflowType  string        `gorm:"type:varchar(128);not null"`
	AgentName     string        `gorm:"type:varchar(64);not null"`
	Status        thread.Status `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedBy     string        `gorm:"type:varchar(64)"`
}

// EtoD converts database entity to domain model
func (t *Thread) EtoD() *thread.Thread {
	return &thread.Thread{
		ID:            t.ID,
		PublicID:      t.PublicID,
		TenantID:      t.TenantID,
		WorkflowID:    t.WorkflowID,
		ParticipantID: t.ParticipantID,
		WorkflowType:  t.WorkflowType,
		AgentName:     t.AgentName,
		Status:        t.Status,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// NewSchemaThread creates a database entity from domain model
func NewSchemaThread(t *thread.Thread) *Thread {
	return &Thread{
		ID:            t.ID,
		PublicID:      t.PublicID,
		TenantID:      t.TenantID,
		WorkflowID:    t.WorkflowID,
		ParticipantID: t.ParticipantID,
		WorkflowType:  t.WorkflowType,
		AgentName:     t.AgentName,
		Status:        t.Status,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}
