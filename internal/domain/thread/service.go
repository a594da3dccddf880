package thread

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentmesh/conversation-api/internal/utils/idgen"
	"github.com/agentmesh/conversation-api/internal/utils/platformerrors"
)

// CreateParams carries the inputs for CreateOrGet.
type CreateParams struct {
	TenantID      string
	WorkflowID    string
	WorkflowType  string
	ParticipantID string
	CreatedBy     string
}

// Page is a paginated thread listing.
type Page struct {
	Threads  []*Thread
	Total    int64
	Page     int
	PageSize int
}

// Service exposes thread operations.
type Service interface {
	// CreateOrGet returns the thread for the triple, creating it when absent.
	// Concurrent creators race on the storage uniqueness constraint; the
	// loser reads back the winner and reports isNew=false.
	CreateOrGet(ctx context.Context, params CreateParams) (*Thread, bool, error)
	GetInfo(ctx context.Context, key Key) (*Thread, error)
	List(ctx context.Context, tenantID string, page, pageSize int) (*Page, error)
	Close(ctx context.Context, tenantID, publicID string) (*Thread, error)
}

type service struct {
	repo Repository
	log  zerolog.Logger
}

// NewService constructs the thread service.
func NewService(repo Repository, log zerolog.Logger) Service {
	return &service{
		repo: repo,
		log:  log.With().Str("component", "thread_service").Logger(),
	}
}

func (s *service) CreateOrGet(ctx context.Context, params CreateParams) (*Thread, bool, error) {
	key := Key{TenantID: params.TenantID, WorkflowID: params.WorkflowID, ParticipantID: params.ParticipantID}
	if err := key.Validate(); err != nil {
		return nil, false, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), nil, "")
	}

	agentName, err := ParseAgentName(params.WorkflowType)
	if err != nil {
		return nil, false, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), nil, "")
	}

	publicID, err := idgen.GenerateSecureID(idgen.ThreadPrefix, 24)
	if err != nil {
		return nil, false, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "generate thread id", err, "")
	}

	candidate := &Thread{
		PublicID:      publicID,
		TenantID:      params.TenantID,
		WorkflowID:    params.WorkflowID,
		ParticipantID: params.ParticipantID,
		WorkflowType:  params.WorkflowType,
		AgentName:     agentName,
		Status:        StatusActive,
		CreatedBy:     params.CreatedBy,
	}

	stored, isNew, err := s.repo.CreateOrGet(ctx, candidate)
	if err != nil {
		return nil, false, err
	}

	if isNew {
		s.log.Info().
			Str("thread_id", stored.PublicID).
			Str("tenant_id", stored.TenantID).
			Str("workflow_id", stored.WorkflowID).
			Str("agent", stored.AgentName).
			Msg("thread created")
	}

	return stored, isNew, nil
}

func (s *service) GetInfo(ctx context.Context, key Key) (*Thread, error) {
	if err := key.Validate(); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), nil, "")
	}
	return s.repo.GetByKey(ctx, key)
}

func (s *service) List(ctx context.Context, tenantID string, page, pageSize int) (*Page, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "tenant id is required", nil, "")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "page size must be positive", nil, "")
	}

	threads, total, err := s.repo.ListByTenant(ctx, tenantID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return &Page{Threads: threads, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *service) Close(ctx context.Context, tenantID, publicID string) (*Thread, error) {
	if strings.TrimSpace(tenantID) == "" || strings.TrimSpace(publicID) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "tenant id and thread id are required", nil, "")
	}

	stored, err := s.repo.GetByPublicID(ctx, tenantID, publicID)
	if err != nil {
		return nil, err
	}
	if stored.Status == StatusClosed {
		return stored, nil
	}

	if err := s.repo.UpdateStatus(ctx, stored.ID, StatusClosed); err != nil {
		return nil, err
	}
	stored.Status = StatusClosed

	s.log.Info().Str("thread_id", stored.PublicID).Str("tenant_id", tenantID).Msg("thread closed")
	return stored, nil
}
