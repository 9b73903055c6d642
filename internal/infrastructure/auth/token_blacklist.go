package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist invalidates access tokens before their natural expiry,
// used when an operator signs out of a terminal or a supervisor revokes a
// lost device's session.
type TokenBlacklist interface {
	// Revoke adds a token's JTI to the blacklist. ttl should be the
	// remaining time until the token expires.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	// IsRevoked checks if a token's JTI has been revoked
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeOperator invalidates every token held by an operator. Tokens
	// issued before the revocation timestamp are rejected.
	RevokeOperator(ctx context.Context, operatorID string, ttl time.Duration) error

	// IsOperatorRevoked reports whether a token issued at tokenIssuedAt is
	// covered by an operator-wide revocation
	IsOperatorRevoked(ctx context.Context, operatorID string, tokenIssuedAt time.Time) (bool, error)
}

// RedisTokenBlacklist implements TokenBlacklist using Redis, shared across
// all server instances
type RedisTokenBlacklist struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisTokenBlacklist creates a token blacklist backed by an existing
// Redis client
func NewRedisTokenBlacklist(client *redis.Client) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{
		client:    client,
		keyPrefix: "pos:token:revoked:",
	}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) operatorKey(operatorID string) string {
	return b.keyPrefix + "operator:" + operatorID
}

// Revoke adds a token's JTI to the blacklist
func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked checks if a token's JTI has been revoked
func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	exists, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return exists > 0, nil
}

// RevokeOperator stores the current timestamp as the operator's revocation
// time. Any token issued before it is considered revoked.
func (b *RedisTokenBlacklist) RevokeOperator(ctx context.Context, operatorID string, ttl time.Duration) error {
	revokedAt := time.Now().Unix()
	if err := b.client.Set(ctx, b.operatorKey(operatorID), revokedAt, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke operator tokens: %w", err)
	}
	return nil
}

// IsOperatorRevoked checks if a token was issued before the operator's
// revocation timestamp
func (b *RedisTokenBlacklist) IsOperatorRevoked(ctx context.Context, operatorID string, tokenIssuedAt time.Time) (bool, error) {
	raw, err := b.client.Get(ctx, b.operatorKey(operatorID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check operator revocation: %w", err)
	}

	var revokedAt int64
	if _, err := fmt.Sscanf(raw, "%d", &revokedAt); err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}

	return tokenIssuedAt.Unix() <= revokedAt, nil
}

// Ensure RedisTokenBlacklist implements TokenBlacklist
var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist is a single-process blacklist for development and
// tests. Do not use it behind multiple server instances.
type InMemoryTokenBlacklist struct {
	mu         sync.RWMutex
	revokedJTI map[string]time.Time // JTI -> blacklist entry expiry
	revokedOps map[string]time.Time // operatorID -> revocation time
}

// NewInMemoryTokenBlacklist creates an in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		revokedJTI: make(map[string]time.Time),
		revokedOps: make(map[string]time.Time),
	}
}

// Revoke adds a token's JTI to the in-memory blacklist
func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revokedJTI[jti] = time.Now().Add(ttl)
	return nil
}

// IsRevoked checks if a token's JTI is revoked and the entry has not lapsed
func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiry, exists := b.revokedJTI[jti]
	if !exists {
		return false, nil
	}
	if time.Now().After(expiry) {
		delete(b.revokedJTI, jti)
		return false, nil
	}
	return true, nil
}

// RevokeOperator invalidates every token held by an operator
func (b *InMemoryTokenBlacklist) RevokeOperator(_ context.Context, operatorID string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revokedOps[operatorID] = time.Now()
	return nil
}

// IsOperatorRevoked checks if a token was issued before the operator's
// revocation timestamp
func (b *InMemoryTokenBlacklist) IsOperatorRevoked(_ context.Context, operatorID string, tokenIssuedAt time.Time) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	revokedAt, exists := b.revokedOps[operatorID]
	if !exists {
		return false, nil
	}
	// UnixNano keeps sub-second precision, which the tests rely on
	return tokenIssuedAt.UnixNano() <= revokedAt.UnixNano(), nil
}

// Ensure InMemoryTokenBlacklist implements TokenBlacklist
var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
