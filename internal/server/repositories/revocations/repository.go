// Package revocations stores the ids of session tokens that were revoked
// before their expiry. Entries only need to live until the token itself
// would have expired.
package revocations

import (
	"context"
	"time"
)

// Repository is satisfied by both implementations and by auth.Revoker.
type Repository interface {
	// Revoke marks tokenID as revoked until the given instant.
	Revoke(ctx context.Context, tokenID string, until time.Time) error

	// IsRevoked reports whether tokenID is currently revoked.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
