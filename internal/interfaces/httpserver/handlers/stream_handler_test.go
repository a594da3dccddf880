package handlers_test

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agentmesh/conversation-api/internal/config"
	"github.com/agentmesh/conversation-api/internal/domain/message"
	"github.com/agentmesh/conversation-api/internal/domain/stream"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/handlers"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/middlewares"
)

func setupStreamTestServer(t *testing.T, bus *stream.Bus) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		StreamHeartbeat:  30 * time.Second,
		StreamBufferSize: 8,
	}
	handler := handlers.NewStreamHandler(cfg, bus, zerolog.Nop())

	r := gin.New()
	r.Use(middlewares.Identity())
	r.GET("/v1/messages/stream", handler.Stream)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

// readSSEEvent reads one event/data pair from the stream.
func readSSEEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()

	var name, data string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("Failed to read SSE line: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if name != "" || data != "" {
				return name, data
			}
		}
	}
}

func waitForSubscriber(t *testing.T, bus *stream.Bus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for bus.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for stream subscription")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStreamHandler_Stream(t *testing.T) {
	bus := stream.NewBus(zerolog.Nop())
	server := setupStreamTestServer(t, bus)

	req, _ := http.NewRequest("GET", server.URL+"/v1/messages/stream?workflow_id=wf-1", nil)
	identityHeaders(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to open stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("Expected event-stream content type, got %q", ct)
	}
	if buf := resp.Header.Get("X-Accel-Buffering"); buf != "no" {
		t.Errorf("Expected proxy buffering disabled, got %q", buf)
	}

	reader := bufio.NewReader(resp.Body)

	name, _ := readSSEEvent(t, reader)
	if name != "connected" {
		t.Fatalf("Expected connected event first, got %q", name)
	}

	waitForSubscriber(t, bus)

	// A foreign tenant's message must not reach this session.
	bus.Publish(stream.NewEvent(&message.Message{
		PublicID:      "msg_other",
		TenantID:      "tenant-other",
		WorkflowID:    "wf-1",
		ParticipantID: "participant-1",
		Direction:     message.DirectionOutgoing,
		Type:          "text",
	}))
	bus.Publish(stream.NewEvent(&message.Message{
		PublicID:      "msg_mine",
		TenantID:      "tenant-1",
		WorkflowID:    "wf-1",
		ParticipantID: "participant-1",
		Direction:     message.DirectionOutgoing,
		Type:          "text",
	}))

	name, data := readSSEEvent(t, reader)
	if name != "text" {
		t.Fatalf("Expected event named by message type, got %q", name)
	}
	if !strings.Contains(data, "msg_mine") {
		t.Errorf("Expected own message in payload, got %q", data)
	}
	if strings.Contains(data, "msg_other") {
		t.Errorf("Foreign tenant message leaked into stream: %q", data)
	}
}

func TestStreamHandler_MissingWorkflowID(t *testing.T) {
	bus := stream.NewBus(zerolog.Nop())
	server := setupStreamTestServer(t, bus)

	req, _ := http.NewRequest("GET", server.URL+"/v1/messages/stream", nil)
	identityHeaders(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", resp.StatusCode)
	}
}

func TestStreamHandler_UnsubscribesOnDisconnect(t *testing.T) {
	bus := stream.NewBus(zerolog.Nop())
	server := setupStreamTestServer(t, bus)

	req, _ := http.NewRequest("GET", server.URL+"/v1/messages/stream?workflow_id=wf-1", nil)
	identityHeaders(req)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to open stream: %v", err)
	}

	reader := bufio.NewReader(resp.Body)
	if name, _ := readSSEEvent(t, reader); name != "connected" {
		t.Fatalf("Expected connected event first, got %q", name)
	}
	waitForSubscriber(t, bus)

	resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for bus.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Session did not unsubscribe after client disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
