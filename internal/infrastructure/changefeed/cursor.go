// Package changefeed turns committed message writes into bus events.
package changefeed

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/agentmesh/conversation-api/internal/infrastructure/database/entities"
	"github.com/agentmesh/conversation-api/internal/utils/platformerrors"
)

// CursorStore persists how far the feed has read.
type CursorStore interface {
	// Get returns the stored position; found is false when the consumer has
	// no cursor yet.
	Get(ctx context.Context, name string) (position uint, found bool, err error)
	Set(ctx context.Context, name string, position uint) error
}

type gormCursorStore struct {
	db *gorm.DB
}

// NewCursorStore constructs the PostgreSQL-backed cursor store.
func NewCursorStore(db *gorm.DB) CursorStore {
	return &gormCursorStore{db: db}
}

func (s *gormCursorStore) Get(ctx context.Context, name string) (uint, bool, error) {
	var cursor entities.StreamCursor
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&cursor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "read stream cursor", err, "")
	}
	return cursor.Position, true, nil
}

func (s *gormCursorStore) Set(ctx context.Context, name string, position uint) error {
	cursor := entities.StreamCursor{Name: name, Position: position}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"position", "updated_at"}),
		}).
		Create(&cursor).Error
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, "persist stream cursor", err, "")
	}
	return nil
}
