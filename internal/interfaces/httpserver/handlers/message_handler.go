package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agentmesh/conversation-api/internal/domain/message"
	"github.com/agentmesh/conversation-api/internal/infrastructure/observability"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/middlewares"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/requests"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/responses"
	"github.com/agentmesh/conversation-api/internal/utils/platformerrors"
)

// MessageHandler exposes HTTP entrypoints for messages.
type MessageHandler struct {
	service message.Service
	log     zerolog.Logger
}

// NewMessageHandler constructs the handler.
func NewMessageHandler(service message.Service, log zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		service: service,
		log:     log.With().Str("handler", "message").Logger(),
	}
}

// Send handles POST /v1/messages
// @Summary Send a message
// @Description Persists a message, creating the thread lazily, and fans it out to live subscribers.
// @Tags Messages
// @Accept json
// @Produce json
// @Param request body requests.SendMessageRequest true "Message"
// @Success 201 {object} responses.MessagePayload
// @Failure 400 {object} responses.ErrorResponse
// @Failure 409 {object} responses.ErrorResponse
// @Router /v1/messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	var req requests.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "")
		return
	}

	id, ok := middlewares.GetIdentity(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "caller identity missing", "")
		return
	}

	createdBy := id.UserID
	if createdBy == "" {
		createdBy = id.ParticipantID
	}

	ctx, span := observability.StartSaveSpan(c.Request.Context(), id.TenantID, req.WorkflowID, req.Direction, req.Type)
	defer span.End()

	msg, err := h.service.Save(ctx, message.SaveParams{
		TenantID:      id.TenantID,
		WorkflowID:    req.WorkflowID,
		WorkflowType:  req.WorkflowType,
		ParticipantID: id.ParticipantID,
		Direction:     message.Direction(req.Direction),
		Type:          req.Type,
		Text:          req.Text,
		Payload:       req.Payload,
		Hint:          req.Hint,
		Scope:         req.Scope,
		RequestID:     req.RequestID,
		CreatedBy:     createdBy,
	})
	if err != nil {
		observability.RecordError(span, err)
		responses.HandleError(c, err, "save message")
		return
	}

	span.SetAttributes(observability.MessageAttributes(msg.PublicID, msg.ThreadPublicID, string(msg.Direction), msg.Type)...)
	c.JSON(http.StatusCreated, responses.MessageFromDomain(msg))
}

// List handles GET /v1/messages
// @Summary List messages
// @Description Returns the caller's thread history, newest first.
// @Tags Messages
// @Produce json
// @Param workflow_id query string true "Workflow ID"
// @Param scope query string false "Scope filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} responses.MessageListResponse
// @Failure 400 {object} responses.ErrorResponse
// @Router /v1/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	var query requests.ListMessagesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "")
		return
	}

	id, ok := middlewares.GetIdentity(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "caller identity missing", "")
		return
	}

	page, err := h.service.List(c.Request.Context(), message.ListParams{
		TenantID:      id.TenantID,
		WorkflowID:    query.WorkflowID,
		ParticipantID: id.ParticipantID,
		Scope:         query.Scope,
		Page:          query.Page,
		PageSize:      query.PageSize,
	})
	if err != nil {
		responses.HandleError(c, err, "list messages")
		return
	}

	c.JSON(http.StatusOK, responses.MessageListFromDomain(page))
}
