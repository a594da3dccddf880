package message

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentmesh/conversation-api/internal/domain/retry"
	"github.com/agentmesh/conversation-api/internal/domain/thread"
	"github.com/agentmesh/conversation-api/internal/utils/idgen"
	"github.com/agentmesh/conversation-api/internal/utils/platformerrors"
)

// Dispatcher notifies the workflow engine about saved incoming messages.
type Dispatcher interface {
	NotifyMessage(ctx context.Context, msg *Message) error
}

// Service exposes message operations.
type Service interface {
	// Save persists a message, creating the thread lazily when it does not
	// exist yet. The insert and the thread timestamp bump commit together
	// and are retried as one unit on transient storage failure.
	Save(ctx context.Context, params SaveParams) (*Message, error)
	List(ctx context.Context, params ListParams) (*Page, error)
}

type service struct {
	repo       Repository
	threads    thread.Service
	dispatcher Dispatcher
	executor   *retry.Executor
	log        zerolog.Logger
}

// NewService constructs the message service. dispatcher may be nil when no
// workflow engine is configured.
func NewService(repo Repository, threads thread.Service, dispatcher Dispatcher, policy retry.Policy, log zerolog.Logger) Service {
	return &service{
		repo:       repo,
		threads:    threads,
		dispatcher: dispatcher,
		executor:   retry.NewExecutor(policy, isTransient),
		log:        log.With().Str("component", "message_service").Logger(),
	}
}

func (s *service) Save(ctx context.Context, params SaveParams) (*Message, error) {
	if err := params.Validate(); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), nil, "")
	}

	owner, _, err := s.threads.CreateOrGet(ctx, thread.CreateParams{
		TenantID:      params.TenantID,
		WorkflowID:    params.WorkflowID,
		WorkflowType:  params.WorkflowType,
		ParticipantID: params.ParticipantID,
		CreatedBy:     params.CreatedBy,
	})
	if err != nil {
		return nil, err
	}
	if owner.Status == thread.StatusClosed {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict, "thread is closed", nil, "")
	}

	publicID, err := idgen.GenerateSecureID(idgen.MessagePrefix, 24)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal, "generate message id", err, "")
	}

	msg := &Message{
		PublicID:       publicID,
		ThreadID:       owner.ID,
		ThreadPublicID: owner.PublicID,
		TenantID:       params.TenantID,
		WorkflowID:     params.WorkflowID,
		ParticipantID:  params.ParticipantID,
		Direction:      params.Direction,
		Type:           params.Type,
		Text:           params.Text,
		Payload:        params.Payload,
		Hint:           params.Hint,
		Scope:          params.Scope,
		RequestID:      params.RequestID,
		CreatedBy:      params.CreatedBy,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.executor.Execute(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 0 {
			s.log.Warn().
				Int("attempt", attempt).
				Str("message_id", msg.PublicID).
				Msg("retrying message save")
		}
		return s.repo.SaveWithThreadTouch(ctx, msg)
	}); err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("message_id", msg.PublicID).
		Str("thread_id", msg.ThreadPublicID).
		Str("direction", string(msg.Direction)).
		Str("message_type", msg.Type).
		Msg("message saved")

	if s.dispatcher != nil && msg.Direction == DirectionIncoming {
		s.notifyWorkflowEngine(msg)
	}

	return msg, nil
}

// notifyWorkflowEngine is fire-and-forget relative to the save; a dispatch
// failure never fails the request.
func (s *service) notifyWorkflowEngine(msg *Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.dispatcher.NotifyMessage(ctx, msg); err != nil {
			s.log.Warn().
				Err(err).
				Str("message_id", msg.PublicID).
				Str("workflow_id", msg.WorkflowID).
				Msg("workflow engine dispatch failed")
		}
	}()
}

func (s *service) List(ctx context.Context, params ListParams) (*Page, error) {
	key := thread.Key{TenantID: params.TenantID, WorkflowID: params.WorkflowID, ParticipantID: params.ParticipantID}
	if err := key.Validate(); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, err.Error(), nil, "")
	}
	if params.PageSize <= 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "page size must be positive", nil, "")
	}
	if params.Page < 1 {
		params.Page = 1
	}

	messages, total, err := s.repo.ListByGroup(ctx, params)
	if err != nil {
		return nil, err
	}

	return &Page{Messages: messages, Total: total, Page: params.Page, PageSize: params.PageSize}, nil
}

// isTransient reports whether a save failure is worth retrying. Validation,
// conflict and not-found outcomes are final; storage and unknown failures
// get another attempt.
func isTransient(err error) bool {
	switch {
	case platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation),
		platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict),
		platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound):
		return false
	default:
		return true
	}
}
