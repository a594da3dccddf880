// Package thread provides the PostgreSQL-backed thread repository.
package thread

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agentmesh/conversation-api/internal/domain/thread"
	"github.com/agentmesh/conversation-api/internal/infrastructure/database/entities"
	"github.com/agentmesh/conversation-api/internal/utils/platformerrors"
)

type postgresRepository struct {
	db *gorm.DB
}

// NewPostgresRepository constructs the thread repository.
func NewPostgresRepository(db *gorm.DB) thread.Repository {
	return &postgresRepository{db: db}
}

// CreateOrGet inserts the thread and resolves the create race on the unique
// (tenant, workflow, participant) index: the losing inserter sees the
// duplicate-key error and reads back the winner instead of failing.
func (r *postgresRepository) CreateOrGet(ctx context.Context, t *thread.Thread) (*thread.Thread, bool, error) {
	entity := entities.NewSchemaThread(t)
	err := r.db.WithContext(ctx).Create(entity).Error
	if err == nil {
		return entity.EtoD(), true, nil
	}

	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "create thread", err, "")
	}

	existing, err := r.GetByKey(ctx, thread.Key{
		TenantID:      t.TenantID,
		WorkflowID:    t.WorkflowID,
		ParticipantID: t.ParticipantID,
	})
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *postgresRepository) GetByKey(ctx context.Context, key thread.Key) (*thread.Thread, error) {
	var entity entities.Thread
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND workflow_id = ? AND participant_id = ?", key.TenantID, key.WorkflowID, key.ParticipantID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "thread not found", err, "")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "get thread by key", err, "")
	}
	return entity.EtoD(), nil
}

func (r *postgresRepository) GetByPublicID(ctx context.Context, tenantID, publicID string) (*thread.Thread, error) {
	var entity entities.Thread
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND public_id = ?", tenantID, publicID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "thread not found", err, "")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "get thread by public id", err, "")
	}
	return entity.EtoD(), nil
}

func (r *postgresRepository) ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*thread.Thread, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Thread{}).Where("tenant_id = ?", tenantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "count threads", err, "")
	}

	var rows []entities.Thread
	if err := query.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "list threads", err, "")
	}

	threads := make([]*thread.Thread, len(rows))
	for i := range rows {
		threads[i] = rows[i].EtoD()
	}
	return threads, total, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uint, status thread.Status) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Thread{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "update thread status", result.Error, "")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "thread not found", nil, "")
	}
	return nil
}
