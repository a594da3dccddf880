package message

import "context"

// Repository persists messages.
type Repository interface {
	// SaveWithThreadTouch inserts the message and bumps the owning thread's
	// updated_at inside one transaction.
	SaveWithThreadTouch(ctx context.Context, msg *Message) error
	// ListByGroup returns messages for the (tenant, workflow, participant)
	// triple, newest first with ties broken by descending id.
	ListByGroup(ctx context.Context, params ListParams) ([]*Message, int64, error)
	// ListAfter returns committed messages with ID greater than afterID in
	// ascending ID order, at most limit rows. Used by the change feed.
	ListAfter(ctx context.Context, afterID uint, limit int) ([]*Message, error)
	// LatestID returns the highest stored message ID, zero when empty.
	LatestID(ctx context.Context) (uint, error)
}
