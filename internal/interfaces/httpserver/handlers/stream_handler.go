package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agentmesh/conversation-api/internal/config"
	"github.com/agentmesh/conversation-api/internal/domain/stream"
	"github.com/agentmesh/conversation-api/internal/infrastructure/metrics"
	"github.com/agentmesh/conversation-api/internal/infrastructure/observability"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/middlewares"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/requests"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/responses"
	"github.com/agentmesh/conversation-api/internal/utils/platformerrors"
)

// StreamHandler exposes the SSE streaming endpoint.
type StreamHandler struct {
	cfg *config.Config
	bus *stream.Bus
	log zerolog.Logger
}

// NewStreamHandler constructs the handler.
func NewStreamHandler(cfg *config.Config, bus *stream.Bus, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		cfg: cfg,
		bus: bus,
		log: log.With().Str("handler", "stream").Logger(),
	}
}

// Stream handles GET /v1/messages/stream
// @Summary Stream messages over SSE
// @Description Opens a server-sent-events session. Emits a connected event, then one event per matching message (named by message type) and periodic heartbeats.
// @Tags Messages
// @Produce text/event-stream
// @Param workflow_id query string true "Workflow ID"
// @Param scope query string false "Scope filter"
// @Param heartbeat_seconds query int false "Heartbeat interval in seconds (1-300, default 30)"
// @Success 200 {string} string "event stream"
// @Failure 400 {object} responses.ErrorResponse
// @Router /v1/messages/stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	var query requests.StreamQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "")
		return
	}

	id, ok := middlewares.GetIdentity(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "caller identity missing", "")
		return
	}

	flusher, ok := middlewares.PrepareSSE(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeInternal, "streaming not supported", "")
		return
	}

	heartbeat := h.cfg.StreamHeartbeat
	if query.HeartbeatSeconds > 0 {
		heartbeat = time.Duration(query.HeartbeatSeconds) * time.Second
	}

	session, err := stream.NewSession(stream.SessionConfig{
		TenantID:      id.TenantID,
		WorkflowID:    query.WorkflowID,
		ParticipantID: id.ParticipantID,
		Scope:         query.Scope,
		Heartbeat:     heartbeat,
		BufferSize:    h.cfg.StreamBufferSize,
	}, h.bus, newSSESink(c.Writer, flusher, h.log), h.log)
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "")
		return
	}

	ctx, span := observability.StartStreamSpan(c.Request.Context(), id.TenantID, query.WorkflowID, id.ParticipantID)
	defer span.End()

	metrics.ActiveStreamSessions.Inc()
	defer metrics.ActiveStreamSessions.Dec()

	if err := session.Run(ctx); err != nil {
		observability.RecordError(span, err)
		h.log.Debug().Err(err).Msg("stream session ended with write error")
	}
	if dropped := session.Dropped(); dropped > 0 {
		metrics.StreamEventsDroppedTotal.Add(float64(dropped))
	}
}

// sseSink writes server-sent events. Session guarantees a single writer;
// the mutex additionally guards against misuse.
type sseSink struct {
	writer  http.ResponseWriter
	flusher http.Flusher
	log     zerolog.Logger
	mu      sync.Mutex
}

func newSSESink(w http.ResponseWriter, flusher http.Flusher, log zerolog.Logger) *sseSink {
	return &sseSink{
		writer:  w,
		flusher: flusher,
		log:     log,
	}
}

func (o *sseSink) Send(name string, payload any) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		o.log.Error().Err(err).Msg("marshal SSE payload")
		return nil
	}

	if _, err := fmt.Fprintf(o.writer, "event: %s\n", name); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(o.writer, "data: %s\n\n", data); err != nil {
		return err
	}
	o.flusher.Flush()
	metrics.StreamEventSent(name)
	return nil
}
