package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/agentmesh/conversation-api/internal/domain/thread"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/handlers"
	"github.com/agentmesh/conversation-api/internal/interfaces/httpserver/middlewares"
	"github.com/agentmesh/conversation-api/internal/utils/platformerrors"
)

// MockThreadService is a mock implementation of thread.Service for testing.
type MockThreadService struct {
	CreateOrGetFunc func(ctx context.Context, params thread.CreateParams) (*thread.Thread, bool, error)
	GetInfoFunc     func(ctx context.Context, key thread.Key) (*thread.Thread, error)
	ListFunc        func(ctx context.Context, tenantID string, page, pageSize int) (*thread.Page, error)
	CloseFunc       func(ctx context.Context, tenantID, publicID string) (*thread.Thread, error)
}

func (m *MockThreadService) CreateOrGet(ctx context.Context, params thread.CreateParams) (*thread.Thread, bool, error) {
	if m.CreateOrGetFunc != nil {
		return m.CreateOrGetFunc(ctx, params)
	}
	return nil, false, nil
}

func (m *MockThreadService) GetInfo(ctx context.Context, key thread.Key) (*thread.Thread, error) {
	if m.GetInfoFunc != nil {
		return m.GetInfoFunc(ctx, key)
	}
	return nil, nil
}

func (m *MockThreadService) List(ctx context.Context, tenantID string, page, pageSize int) (*thread.Page, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, tenantID, page, pageSize)
	}
	return nil, nil
}

func (m *MockThreadService) Close(ctx context.Context, tenantID, publicID string) (*thread.Thread, error) {
	if m.CloseFunc != nil {
		return m.CloseFunc(ctx, tenantID, publicID)
	}
	return nil, nil
}

func setupThreadTestRouter(handler *handlers.ThreadHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares.Identity())
	v1 := r.Group("/v1")
	{
		v1.GET("/threads", handler.List)
		v1.GET("/threads/info", handler.Info)
		v1.POST("/threads/:thread_id/close", handler.Close)
	}
	return r
}

func TestThreadHandler_Info(t *testing.T) {
	var captured thread.Key
	mockService := &MockThreadService{
		GetInfoFunc: func(ctx context.Context, key thread.Key) (*thread.Thread, error) {
			captured = key
			return &thread.Thread{
				PublicID:      "thread_abc",
				TenantID:      key.TenantID,
				WorkflowID:    key.WorkflowID,
				ParticipantID: key.ParticipantID,
				Status:        thread.StatusActive,
				CreatedAt:     time.Now(),
				UpdatedAt:     time.Now(),
			}, nil
		},
	}

	handler := handlers.NewThreadHandler(mockService, zerolog.Nop())
	router := setupThreadTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/threads/info?workflow_id=wf-1", nil)
	identityHeaders(req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if captured.TenantID != "tenant-1" || captured.ParticipantID != "participant-1" {
		t.Errorf("Expected key from identity, got %+v", captured)
	}
	if captured.WorkflowID != "wf-1" {
		t.Errorf("Expected workflow_id 'wf-1', got %q", captured.WorkflowID)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["id"] != "thread_abc" {
		t.Errorf("Expected thread id 'thread_abc', got %v", response["id"])
	}
	if response["status"] != "active" {
		t.Errorf("Expected status 'active', got %v", response["status"])
	}
}

func TestThreadHandler_InfoNotFound(t *testing.T) {
	mockService := &MockThreadService{
		GetInfoFunc: func(ctx context.Context, key thread.Key) (*thread.Thread, error) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound, "thread not found", nil, "")
		},
	}

	handler := handlers.NewThreadHandler(mockService, zerolog.Nop())
	router := setupThreadTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/threads/info?workflow_id=wf-missing", nil)
	identityHeaders(req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestThreadHandler_List(t *testing.T) {
	mockService := &MockThreadService{
		ListFunc: func(ctx context.Context, tenantID string, page, pageSize int) (*thread.Page, error) {
			if tenantID != "tenant-1" {
				t.Errorf("Expected tenant from identity, got %q", tenantID)
			}
			return &thread.Page{
				Threads: []*thread.Thread{
					{PublicID: "thread_1", Status: thread.StatusActive},
				},
				Total:    1,
				Page:     page,
				PageSize: pageSize,
			}, nil
		},
	}

	handler := handlers.NewThreadHandler(mockService, zerolog.Nop())
	router := setupThreadTestRouter(handler)

	req, _ := http.NewRequest("GET", "/v1/threads", nil)
	identityHeaders(req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["total"] != 1.0 {
		t.Errorf("Expected total 1, got %v", response["total"])
	}
}

func TestThreadHandler_Close(t *testing.T) {
	closeCalled := false
	mockService := &MockThreadService{
		CloseFunc: func(ctx context.Context, tenantID, publicID string) (*thread.Thread, error) {
			closeCalled = true
			if publicID != "thread_abc" {
				t.Errorf("Expected thread_abc, got %q", publicID)
			}
			return &thread.Thread{
				PublicID: publicID,
				TenantID: tenantID,
				Status:   thread.StatusClosed,
			}, nil
		},
	}

	handler := handlers.NewThreadHandler(mockService, zerolog.Nop())
	router := setupThreadTestRouter(handler)

	req, _ := http.NewRequest("POST", "/v1/threads/thread_abc/close", nil)
	identityHeaders(req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !closeCalled {
		t.Error("Expected close to be called")
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["status"] != "closed" {
		t.Errorf("Expected status 'closed', got %v", response["status"])
	}
}
