package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "session:revoked:"

// Revocations is a redis-backed denylist of logged-out session token ids.
// Entries expire together with the token they revoke.
type Revocations struct {
	client *redis.Client
	now    func() time.Time
}

// NewRevocations wraps an existing redis client.
func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client, now: time.Now}
}

// Revoke denylists the token described by claims until it expires.
// Already expired tokens need no entry.
func (r *Revocations) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}

	ttl := claims.ExpiresAt.Time.Sub(r.now())
	if ttl <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, revokedPrefix+claims.ID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoking session %s: %w", claims.ID, err)
	}
	return nil
}

// IsRevoked reports whether the token id has been denylisted.
func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.client.Get(ctx, revokedPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking session %s: %w", tokenID, err)
	}
	return true, nil
}
