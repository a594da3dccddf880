package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agentmesh/conversation-api/internal/domain/thread"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/middlewares"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/requests"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/responses"
	"github.com/agentmesh/conversation-api/internal/utils/platformerrors"
)

// ThreadHandler exposes HTTP entrypoints for threads.
type ThreadHandler struct {
	service thread.Service
	log     zerolog.Logger
}

// NewThreadHandler constructs the handler.
func NewThreadHandler(service thread.Service, log zerolog.Logger) *ThreadHandler {
	return &ThreadHandler{
		service: service,
		log:     log.With().Str("handler", "thread").Logger(),
	}
}

// Info handles GET /v1/threads/info
// @Summary Get the caller's thread for a workflow
// @Tags Threads
// @Produce json
// @Param workflow_id query string true "Workflow ID"
// @Success 200 {object} responses.ThreadPayload
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/threads/info [get]
func (h *ThreadHandler) Info(c *gin.Context) {
	var query requests.ThreadInfoQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "")
		return
	}

	id, ok := middlewares.GetIdentity(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "caller identity missing", "")
		return
	}

	info, err := h.service.GetInfo(c.Request.Context(), thread.Key{
		TenantID:      id.TenantID,
		WorkflowID:    query.WorkflowID,
		ParticipantID: id.ParticipantID,
	})
	if err != nil {
		responses.HandleError(c, err, "get thread")
		return
	}

	c.JSON(http.StatusOK, responses.ThreadFromDomain(info))
}

// List handles GET /v1/threads
// @Summary List tenant threads
// @Tags Threads
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} responses.ThreadListResponse
// @Router /v1/threads [get]
func (h *ThreadHandler) List(c *gin.Context) {
	var query requests.ListThreadsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "")
		return
	}

	id, ok := middlewares.GetIdentity(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "caller identity missing", "")
		return
	}

	page, err := h.service.List(c.Request.Context(), id.TenantID, query.Page, query.PageSize)
	if err != nil {
		responses.HandleError(c, err, "list threads")
		return
	}

	c.JSON(http.StatusOK, responses.ThreadListFromDomain(page))
}

// Close handles POST /v1/threads/:thread_id/close
// @Summary Close a thread
// @Description Closed threads stay readable but reject new messages.
// @Tags Threads
// @Produce json
// @Param thread_id path string true "Thread ID"
// @Success 200 {object} responses.ThreadPayload
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/threads/{thread_id}/close [post]
func (h *ThreadHandler) Close(c *gin.Context) {
	id, ok := middlewares.GetIdentity(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "caller identity missing", "")
		return
	}

	closed, err := h.service.Close(c.Request.Context(), id.TenantID, c.Param("thread_id"))
	if err != nil {
		responses.HandleError(c, err, "close thread")
		return
	}

	c.JSON(http.StatusOK, responses.ThreadFromDomain(closed))
}
