// Package message provides the PostgreSQL-backed message repository.
package message

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/agentmesh/conversation-api/internal/domain/message"
	"github.com/agentmesh/conversation-api/internal/infrastructure/database/entities"
	"github.com/agentmesh/conversation-api/internal/infrastructure/metrics"
	"github.com/agentmesh/conversation-api/internal/utils/platformerrors"
)

type postgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository constructs the message repository.
func NewPostgresRepository(db *gorm.DB) message.Repository {
	return &postgresRepository{db: db}
}

// SaveWithThreadTouch commits the message insert and the thread updated_at
// bump as one transaction. Readers either see both effects or neither.
func (r *postgresRepository) SaveWithThreadTouch(ctx context.Context, msg *message.Message) error {
	entity := entities.NewSchemaMessage(msg)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entity).Error; err != nil {
			return err
		}
		return tx.Model(&entities.Thread{}).
			Where("id = ?", msg.ThreadID).
			Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict, "duplicate message id", err, "")
		}
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "save message", err, "")
	}

	msg.ID = entity.ID
	metrics.MessagesSaved(string(msg.Direction), msg.Type)
	return nil
}

func (r *postgresRepository) ListByGroup(ctx context.Context, params message.ListParams) ([]*message.Message, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Message{}).
		Where("tenant_id = ? AND workflow_id = ? AND participant_id = ?", params.TenantID, params.WorkflowID, params.ParticipantID)
	if params.Scope != "" {
		query = query.Where("scope = ?", params.Scope)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "count messages", err, "")
	}

	offset := (params.Page - 1) * params.PageSize
	var rows []entities.Message
	if err := query.Order("created_at DESC, id DESC").Limit(params.PageSize).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "list messages", err, "")
	}

	messages := make([]*message.Message, len(rows))
	for i := range rows {
		messages[i] = rows[i].EtoD()
	}
	return messages, total, nil
}

// ListAfter feeds the change capture poller. Only rows with a smaller or
// equal ID than the current maximum are visible here once committed, so the
// ascending scan never skips a message permanently.
func (r *postgresRepository) ListAfter(ctx context.Context, afterID uint, limit int) ([]*message.Message, error) {
	var rows []entities.Message
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "list messages after cursor", err, "")
	}

	messages := make([]*message.Message, len(rows))
	for i := range rows {
		messages[i] = rows[i].EtoD()
	}
	return messages, nil
}

func (r *postgresRepository) LatestID(ctx context.Context) (uint, error) {
	var latest uint
	err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Select("COALESCE(MAX(id), 0)").
		Scan(&latest).Error
	if err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "read latest message id", err, "")
	}
	return latest, nil
}
