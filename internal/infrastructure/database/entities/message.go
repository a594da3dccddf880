package entities

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/agentmesh/conversation-api/internal/domain/message"
)

// Message represents the database schema for messages.
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	PublicID       string            `gorm:"type:varchar(50);uniqueIndex;not null"`
	ThreadID       uint              `gorm:"not null"`
	ThreadPublicID string            `gorm:"type:varchar(50);not null"`
	TenantID       string            `gorm:"type:varchar(64);index:idx_message_group_created_at;not null"`
	WorkflowID     string            `gorm:"type:varchar(64);index:idx_message_group_created_at;not null"`
	ParticipantID  string            `gorm:"type:varchar(64);index:idx_message_group_created_at;not null"`
	Direction      message.Direction `gorm:"type:varchar(10);not null"`
	MessageType    string            `gorm:"type:varchar(64);not null"`
	Text           string            `gorm:"type:text"`
	Payload        datatypes.JSON    `gorm:"type:jsonb"`
	Hint           string            `gorm:"type:varchar(256)"`
	Scope          string            `gorm:"type:varchar(64)"`
	RequestID      string            `gorm:"type:varchar(64)"`
	CreatedBy      string            `gorm:"type:varchar(64)"`

	Thread Thread `gorm:"foreignKey:ThreadID"`
}

// EtoD converts database entity to domain model
func (m *Message) EtoD() *message.Message {
	return &message.Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ThreadID:       m.ThreadID,
		ThreadPublicID: m.ThreadPublicID,
		TenantID:       m.TenantID,
		WorkflowID:     m.WorkflowID,
		ParticipantID:  m.ParticipantID,
		Direction:      m.Direction,
		Type:           m.MessageType,
		Text:           m.Text,
		Payload:        DecodePayload(m.Payload),
		Hint:           m.Hint,
		Scope:          m.Scope,
		RequestID:      m.RequestID,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// NewSchemaMessage creates a database entity from domain model
func NewSchemaMessage(m *message.Message) *Message {
	return &Message{
		ID:             m.ID,
		PublicID:       m.PublicID,
		ThreadID:       m.ThreadID,
		ThreadPublicID: m.ThreadPublicID,
		TenantID:       m.TenantID,
		WorkflowID:     m.WorkflowID,
		ParticipantID:  m.ParticipantID,
		Direction:      m.Direction,
		MessageType:    m.Type,
		Text:           m.Text,
		Payload:        EncodePayload(m.Payload),
		Hint:           m.Hint,
		Scope:          m.Scope,
		RequestID:      m.RequestID,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// EncodePayload serializes a structured payload for JSONB storage. A value
// that cannot be serialized degrades to a raw string representation; a
// payload never fails the write.
func EncodePayload(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		fallback, _ := json.Marshal(map[string]string{"raw": fmt.Sprint(v)})
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(data)
}

// DecodePayload rehydrates a stored payload. Undecodable content comes back
// as the raw string so history reads never fail.
func DecodePayload(data datatypes.JSON) any {
	if len(data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	return v
}
