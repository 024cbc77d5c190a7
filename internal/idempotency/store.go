// Package idempotency guards order creation against client retries using
// Redis SETNX keys scoped per user.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "idem:orders:"
	// DefaultTTL is how long a claimed key blocks repeats.
	DefaultTTL = 24 * time.Hour
	// MaxKeyLength bounds client-supplied keys.
	MaxKeyLength = 128
)

var ErrInvalidKey = errors.New("invalid idempotency key")

type Store struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStore returns a Store backed by client. A non-positive ttl uses DefaultTTL.
func NewStore(client redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func redisKey(userID uuid.UUID, key string) string {
	return keyPrefix + userID.String() + ":" + key
}

// normalize trims surrounding whitespace and accepts 1..MaxKeyLength
// printable ASCII characters without inner spaces.
func normalize(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > MaxKeyLength {
		return "", fmt.Errorf("%w: length must be 1..%d", ErrInvalidKey, MaxKeyLength)
	}
	for i := 0; i < len(key); i++ {
		if c := key[i]; c <= ' ' || c > '~' {
			return "", fmt.Errorf("%w: must be printable ASCII", ErrInvalidKey)
		}
	}
	return key, nil
}

// Claim marks key as used by userID. It reports false when the key was
// already claimed within the TTL.
func (s *Store) Claim(ctx context.Context, userID uuid.UUID, key string) (bool, error) {
	key, err := normalize(key)
	if err != nil {
		return false, err
	}
	ok, err := s.client.SetNX(ctx, redisKey(userID, key), 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}
	return ok, nil
}

// Release frees a claimed key so the client may retry, e.g. after the
// request it guarded failed.
func (s *Store) Release(ctx context.Context, userID uuid.UUID, key string) error {
	key, err := normalize(key)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, redisKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
