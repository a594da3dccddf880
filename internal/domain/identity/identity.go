// Package identity carries the caller identity resolved by the HTTP layer.
package identity

import "context"

// Identity describes the authenticated caller of a request. The core domain
// never parses credentials; the transport layer resolves claims or trusted
// headers into this struct.
type Identity struct {
	TenantID      string
	ParticipantID string
	UserID        string
}

type contextKey struct{}

// WithIdentity returns a context carrying the identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext extracts the identity from the context.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
