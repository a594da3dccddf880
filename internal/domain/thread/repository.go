package thread

import "context"

// Repository persists threads.
type Repository interface {
	// CreateOrGet inserts the thread or, when the unique
	// (tenant, workflow, participant) triple already exists, returns the
	// stored row. The boolean reports whether a new row was created.
	CreateOrGet(ctx context.Context, t *Thread) (*Thread, bool, error)
	GetByKey(ctx context.Context, key Key) (*Thread, error)
	GetByPublicID(ctx context.Context, tenantID, publicID string) (*Thread, error)
	ListByTenant(ctx context.Context, tenantID string, limit, offset int) ([]*Thread, int64, error)
	UpdateStatus(ctx context.Context, id uint, status Status) error
}
