package shared

import (
	"context"
	"time"
)

// IdempotencyStore records keys for operations that must not be applied twice,
// such as a checkout request or a document-number increment. A key is claimed
// once; a second claim within the TTL is refused.
type IdempotencyStore interface {
	// Claim marks the key as used with a TTL.
	// Returns true if the key was newly claimed, false if it was already used.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsClaimed checks whether a key has already been used
	IsClaimed(ctx context.Context, key string) (bool, error)

	// Release frees a key, allowing it to be claimed again.
	// Used when the guarded operation is known to have NOT been applied.
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}
