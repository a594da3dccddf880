package responses

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentmesh/conversation-api/internal/domain/message"
	"github.com/agentmesh/conversation-api/internal/domain/thread"
	"github.com/agentmesh/conversation-api/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code          string `json:"code"` // UUID from PlatformError
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError handles domain errors and returns appropriate HTTP responses
func HandleError(reqCtx *gin.Context, err error, message string) {
	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())

		errResp := ErrorResponse{
			Code:          domainErr.UUID,
			Error:         message,
			Message:       message,
			ErrorInstance: domainErr,
			RequestID:     domainErr.GetRequestID(),
		}

		reqCtx.AbortWithStatusJSON(statusCode, errResp)
		return
	}
	// Non-platform errors
	errResp := ErrorResponse{
		Error:         message,
		Message:       message,
		ErrorInstance: err,
	}
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, errResp)
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	ctx := reqCtx.Request.Context()
	err := platformerrors.NewError(ctx, platformerrors.LayerRoute, errorType, message, nil, uuid)

	statusCode := platformerrors.ErrorTypeToHTTPStatus(err.GetErrorType())

	errResp := ErrorResponse{
		Code:          err.UUID,
		Error:         message,
		Message:       message,
		ErrorInstance: err,
		RequestID:     err.GetRequestID(),
	}

	reqCtx.AbortWithStatusJSON(statusCode, errResp)
}

// MessagePayload is returned to clients.
type MessagePayload struct {
	ID            string    `json:"id"`
	ThreadID      string    `json:"thread_id"`
	WorkflowID    string    `json:"workflow_id"`
	ParticipantID string    `json:"participant_id"`
	Direction     string    `json:"direction"`
	Type          string    `json:"type"`
	Text          string    `json:"text,omitempty"`
	Payload       any       `json:"payload,omitempty"`
	Hint          string    `json:"hint,omitempty"`
	Scope         string    `json:"scope,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// MessageFromDomain maps the domain message to DTO.
func MessageFromDomain(m *message.Message) MessagePayload {
	return MessagePayload{
		ID:            m.PublicID,
		ThreadID:      m.ThreadPublicID,
		WorkflowID:    m.WorkflowID,
		ParticipantID: m.ParticipantID,
		Direction:     string(m.Direction),
		Type:          m.Type,
		Text:          m.Text,
		Payload:       m.Payload,
		Hint:          m.Hint,
		Scope:         m.Scope,
		RequestID:     m.RequestID,
		CreatedBy:     m.CreatedBy,
		CreatedAt:     m.CreatedAt,
	}
}

// MessageListResponse wraps a history page.
type MessageListResponse struct {
	Data     []MessagePayload `json:"data"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// MessageListFromDomain maps a domain page to DTO.
func MessageListFromDomain(p *message.Page) MessageListResponse {
	data := make([]MessagePayload, len(p.Messages))
	for i, m := range p.Messages {
		data[i] = MessageFromDomain(m)
	}
	return MessageListResponse{
		Data:     data,
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}
}

// ThreadPayload is returned to clients.
type ThreadPayload struct {
	ID            string    `json:"id"`
	WorkflowID    string    `json:"workflow_id"`
	ParticipantID string    `json:"participant_id"`
	WorkflowType  string    `json:"workflow_type"`
	AgentName     string    `json:"agent_name"`
	Status        string    `json:"status"`
	CreatedBy     string    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ThreadFromDomain maps the domain thread to DTO.
func ThreadFromDomain(t *thread.Thread) ThreadPayload {
	return ThreadPayload{
		ID:            t.PublicID,
		WorkflowID:    t.WorkflowID,
		ParticipantID: t.ParticipantID,
		WorkflowType:  t.WorkflowType,
		AgentName:     t.AgentName,
		Status:        string(t.Status),
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// ThreadListResponse wraps a thread page.
type ThreadListResponse struct {
	Data     []ThreadPayload `json:"data"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// ThreadListFromDomain maps a domain thread page to DTO.
func ThreadListFromDomain(p *thread.Page) ThreadListResponse {
	data := make([]ThreadPayload, len(p.Threads))
	for i, t := range p.Threads {
		data[i] = ThreadFromDomain(t)
	}
	return ThreadListResponse{
		Data:     data,
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}
}
