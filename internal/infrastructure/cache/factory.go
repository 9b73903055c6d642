package cache

import (
	"fmt"

	"github.com/pos/backend/internal/domain/shared"
)

// Store backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// NewIdempotencyStore creates an idempotency store for the configured
// backend. Memory is the default and fits a single-instance deployment;
// Redis is required once several instances serve the same tenant.
func NewIdempotencyStore(backend string, redisCfg RedisConfig) (shared.IdempotencyStore, error) {
	switch backend {
	case BackendMemory, "":
		return NewInMemoryIdempotencyStore(), nil
	case BackendRedis:
		return NewRedisIdempotencyStore(redisCfg)
	default:
		return nil, fmt.Errorf("unknown idempotency store backend %q", backend)
	}
}
