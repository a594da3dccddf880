// Package dispatch notifies the workflow engine about saved messages.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/agentmesh/conversation-api/internal/domain/message"
	"github.com/agentmesh/conversation-api/internal/infrastructure/metrics"
)

// Client posts message notifications to the workflow engine over HTTP.
// It implements message.Dispatcher.
type Client struct {
	httpClient *resty.Client
	log        zerolog.Logger
}

// NewClient constructs the workflow engine client. Returns nil when no base
// URL is configured; a nil dispatcher disables notifications.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		return nil
	}
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond).
			SetHeader("Content-Type", "application/json"),
		log: log.With().Str("component", "workflow_dispatch").Logger(),
	}
}

type messageNotification struct {
	MessageID     string `json:"message_id"`
	ThreadID      string `json:"thread_id"`
	TenantID      string `json:"tenant_id"`
	WorkflowID    string `json:"workflow_id"`
	ParticipantID string `json:"participant_id"`
	MessageType   string `json:"message_type"`
	Text          string `json:"text,omitempty"`
	Payload       any    `json:"payload,omitempty"`
	Scope         string `json:"scope,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// NotifyMessage posts the saved message to the engine's event endpoint.
func (c *Client) NotifyMessage(ctx context.Context, msg *message.Message) error {
	payload := messageNotification{
		MessageID:     msg.PublicID,
		ThreadID:      msg.ThreadPublicID,
		TenantID:      msg.TenantID,
		WorkflowID:    msg.WorkflowID,
		ParticipantID: msg.ParticipantID,
		MessageType:   msg.Type,
		Text:          msg.Text,
		Payload:       msg.Payload,
		Scope:         msg.Scope,
		RequestID:     msg.RequestID,
		CreatedAt:     msg.CreatedAt.Format(time.RFC3339Nano),
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/v1/workflows/events/messages")
	if err != nil {
		metrics.RecordDispatch("error")
		return err
	}
	if resp.IsError() {
		metrics.RecordDispatch("error")
		return fmt.Errorf("workflow engine notification failed: %s", resp.Status())
	}

	metrics.RecordDispatch("ok")
	c.log.Debug().
		Str("message_id", msg.PublicID).
		Str("workflow_id", msg.WorkflowID).
		Msg("workflow engine notified")
	return nil
}
