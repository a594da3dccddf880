package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agentmesh/conversation-api/internal/domain/message"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/handlers"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/middlewares"
	"github.com/agentmesh/conversation-api/internal/utils/platformerrors"
)

// MockMessageService is a mock implementation of message.Service for testing.
type MockMessageService struct {
	SaveFunc func(ctx context.Context, params message.SaveParams) (*message.Message, error)
	ListFunc func(ctx context.Context, params message.ListParams) (*message.Page, error)
}

func (m *MockMessageService) Save(ctx context.Context, params message.SaveParams) (*message.Message, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, params)
	}
	return nil, nil
}

func (m *MockMessageService) List(ctx context.Context, params message.ListParams) (*message.Page, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, params)
	}
	return nil, nil
}

func setupMessageTestRouter(handler *handlers.MessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares.Identity())
	v1 := r.Group("/v1")
	{
		v1.POST("/messages", handler.Send)
		v1.GET("/messages", handler.List)
	}
	return r
}

func identityHeaders(req *http.Request) {
	req.Header.Set("X-Tenant-ID", "tenant-1")
	req.Header.Set("X-Participant-ID", "participant-1")
	req.Header.Set("X-User-ID", "user-1")
}

func TestMessageHandler_Send(t *testing.T) {
	var captured message.SaveParams
	mockService := &MockMessageService{
		SaveFunc: func(ctx context.Context, params message.SaveParams) (*message.Message, error) {
			captured = params
			return &message.Message{
				PublicID:       "msg_abc",
				ThreadPublicID: "thread_abc",
				TenantID:       params.TenantID,
				WorkflowID:     params.WorkflowID,
				ParticipantID:  params.ParticipantID,
				Direction:      params.Direction,
				Type:           params.Type,
				Text:           params.Text,
				CreatedAt:      time.Now(),
			}, nil
		},
	}

	handler := handlers.NewMessageHandler(mockService, zerolog.Nop())
	router := setupMessageTestRouter(handler)

	body, _ := json.Marshal(map[string]any{
		"workflow_id":   "wf-1",
		"workflow_type": "support:chat",
		"direction":     "incoming",
		"type":          "text",
		"text":          "hello",
	})
	req, _ := http.NewRequest("POST", "/v1/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	identityHeaders(req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	if captured.TenantID != "tenant-1" {
		t.Errorf("Expected tenant from identity, got %q", captured.TenantID)
	}
	if captured.ParticipantID != "participant-1" {
		t.Errorf("Expected participant from identity, got %q", captured.ParticipantID)
	}
	if captured.CreatedBy != "user-1" {
		t.Errorf("Expected created_by from identity user, got %q", captured.CreatedBy)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["id"] != "msg_abc" {
		t.Errorf("Expected message id 'msg_abc', got %v", response["id"])
	}
	if response["thread_id"] != "thread_abc" {
		t.Errorf("Expected thread id 'thread_abc', got %v", response["thread_id"])
	}
}

func TestMessageHandler_SendMissingFields(t *testing.T) {
	handler := handlers.NewMessageHandler(&MockMessageService{}, zerolog.Nop())
	router := setupMessageTestRouter(handler)

	body, _ := json.Marshal(map[string]any{
		"workflow_id": "wf-1",
	})
	req, _ := http.NewRequest("POST", "/v1/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	identityHeaders(req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestMessageHandler_SendWithoutIdentity(t *testing.T) {
	handler := handlers.NewMessageHandler(&MockMessageService{}, zerolog.Nop())
	router := setupMessageTestRouter(handler)

	body, _ := json.Marshal(map[string]any{
		"workflow_id":   "wf-1",
		"workflow_type": "support:chat",
		"direction":     "incoming",
		"type":          "text",
	})
	req, _ := http.NewRequest("POST", "/v1/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}
}

func TestMessageHandler_SendClosedThread(t *testing.T) {
	mockService := &MockMessageService{
		SaveFunc: func(ctx context.Context, params message.SaveParams) (*message.Message, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "thread is closed", nil, "")
		},
	}

	handler := handlers.NewMessageHandler(mockService, zerolog.Nop())
	router := setupMessageTestRouter(handler)

	body, _ := json.Marshal(map[string]any{
		"workflow_id":   "wf-1",
		"workflow_type": "support:chat",
		"direction":     "incoming",
		"type":          "text",
	})
	req, _ := http.NewRequest("POST", "/v1/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	identityHeaders(req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", w.Code)
	}
}

func TestMessageHandler_List(t *testing.T) {
	var captured message.ListParams
	mockService := &MockMessageService{
		ListFunc: func(ctx context.Context, params message.ListParams) (*message.Page, error) {
			captured = params
			return &message.Page{
				Messages: []*message.Message{
					{PublicID: "msg_2", Type: "text", CreatedAt: time.Now()},
					{PublicID: "msg_1", Type: "text", CreatedAt: time.Now().Add(-time.Minute)},
				},
				Total:    2,
				Page:     1,
				PageSize: 50,
			}, nil
		},
	}

	handler := handlers.NewMessageHandler(mockService, zerolog.Nop())
	router := setupMessageTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/messages?workflow_id=wf-1&scope=private", nil)
	identityHeaders(req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if captured.WorkflowID != "wf-1" {
		t.Errorf("Expected workflow_id 'wf-1', got %q", captured.WorkflowID)
	}
	if captured.Scope != "private" {
		t.Errorf("Expected scope 'private', got %q", captured.Scope)
	}
	if captured.TenantID != "tenant-1" {
		t.Errorf("Expected tenant from identity, got %q", captured.TenantID)
	}
	if captured.Page != 1 || captured.PageSize != 50 {
		t.Errorf("Expected default paging 1/50, got %d/%d", captured.Page, captured.PageSize)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	data, ok := response["data"].([]interface{})
	if !ok || len(data) != 2 {
		t.Fatalf("Expected 2 messages, got %v", response["data"])
	}
	first, _ := data[0].(map[string]interface{})
	if first["id"] != "msg_2" {
		t.Errorf("Expected newest message first, got %v", first["id"])
	}
}

func TestMessageHandler_ListMissingWorkflowID(t *testing.T) {
	handler := handlers.NewMessageHandler(&MockMessageService{}, zerolog.Nop())
	router := setupMessageTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/messages", nil)
	identityHeaders(req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
