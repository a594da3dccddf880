package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentmesh/conversation-api/internal/domain/message"
)

func sampleMessage() *message.Message {
	return &message.Message{
		PublicID:       "msg_1",
		ThreadPublicID: "thread_1",
		TenantID:       "tenant-a",
		WorkflowID:     "wf-1",
		ParticipantID:  "user-1",
		Direction:      message.DirectionIncoming,
		Type:           "text",
		Text:           "approve the order",
		CreatedAt:      time.Now().UTC(),
	}
}

func TestNewClientWithoutURL(t *testing.T) {
	assert.Nil(t, NewClient("", time.Second, zerolog.Nop()))
}

func TestNotifyMessage(t *testing.T) {
	var got messageNotification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/workflows/events/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zerolog.Nop())
	require.NotNil(t, client)

	err := client.NotifyMessage(context.Background(), sampleMessage())
	require.NoError(t, err)
	assert.Equal(t, "msg_1", got.MessageID)
	assert.Equal(t, "wf-1", got.WorkflowID)
	assert.Equal(t, "tenant-a", got.TenantID)
}

func TestNotifyMessageServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zerolog.Nop())
	err := client.NotifyMessage(context.Background(), sampleMessage())
	assert.Error(t, err)
}
