// Package requests holds the bind/validation DTOs for the HTTP API.
package requests

// SendMessageRequest is the body of POST /v1/messages.
type SendMessageRequest struct {
	WorkflowID   string `json:"workflow_id" binding:"required"`
	WorkflowType string `json:"workflow_type" binding:"required"`
	Direction    string `json:"direction" binding:"required"`
	Type         string `json:"type" binding:"required"`
	Text         string `json:"text"`
	Payload      any    `json:"payload"`
	Hint         string `json:"hint"`
	Scope        string `json:"scope"`
	RequestID    string `json:"request_id"`
}

// ListMessagesQuery selects a history page via GET /v1/messages.
type ListMessagesQuery struct {
	WorkflowID string `form:"workflow_id" binding:"required"`
	Scope      string `form:"scope"`
	Page       int    `form:"page,default=1"`
	PageSize   int    `form:"page_size,default=50"`
}

// ThreadInfoQuery identifies the caller's thread via GET /v1/threads/info.
type ThreadInfoQuery struct {
	WorkflowID string `form:"workflow_id" binding:"required"`
}

// ListThreadsQuery pages tenant threads via GET /v1/threads.
type ListThreadsQuery struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=50"`
}

// StreamQuery opens a live session via GET /v1/messages/stream.
type StreamQuery struct {
	WorkflowID       string `form:"workflow_id" binding:"required"`
	Scope            string `form:"scope"`
	HeartbeatSeconds int    `form:"heartbeat_seconds"`
}
