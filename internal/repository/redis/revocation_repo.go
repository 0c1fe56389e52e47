package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationRepository tracks revoked access tokens in Redis. Entries expire
// together with the token so the blacklist never grows unbounded.
type RevocationRepository struct {
	client *redis.Client
}

// NewRevocationRepository creates a new revocation repository
func NewRevocationRepository(client *redis.Client) *RevocationRepository {
	return &RevocationRepository{client: client}
}

func revocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked:token:" + hex.EncodeToString(sum[:])
}

// Revoke blacklists a token until its natural expiry
func (r *RevocationRepository) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revocationKey(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a token has been blacklisted
func (r *RevocationRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	err := r.client.Get(ctx, revocationKey(token)).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return true, nil
}
