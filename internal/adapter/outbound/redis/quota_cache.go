package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/domain/usage"
	"github.com/mockmate/server/internal/model"
	"github.com/redis/go-redis/v9"
)

const quotaStatusKeyPrefix = "quota:status:"

// ErrCacheMiss is returned when no cached status exists for the key.
var ErrCacheMiss = errors.New("cache miss")

// StatusCache caches the displayable quota position. It is read-through on
// the status endpoint only; the database counter stays authoritative and
// every counter mutation invalidates the cached entry.
type StatusCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewStatusCache creates a new quota status cache adapter.
func NewStatusCache(client redis.UniversalClient, ttl time.Duration) *StatusCache {
	return &StatusCache{client: client, ttl: ttl}
}

func statusKey(userID uuid.UUID, period string) string {
	return fmt.Sprintf("%s%s:%s", quotaStatusKeyPrefix, userID.String(), period)
}

// Get returns the cached status or ErrCacheMiss.
func (c *StatusCache) Get(ctx context.Context, userID uuid.UUID, period string) (*model.QuotaStatus, error) {
	raw, err := c.client.Get(ctx, statusKey(userID, period)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var status model.QuotaStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, fmt.Errorf("decode cached status: %w", err)
	}
	return &status, nil
}

// Set stores the status with the configured TTL.
func (c *StatusCache) Set(ctx context.Context, userID uuid.UUID, status *model.QuotaStatus) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	return c.client.Set(ctx, statusKey(userID, status.Period), raw, c.ttl).Err()
}

// Invalidate drops the cached entry after a counter mutation.
func (c *StatusCache) Invalidate(ctx context.Context, userID uuid.UUID, period string) error {
	return c.client.Del(ctx, statusKey(userID, period)).Err()
}

// Compile-time check
var _ usage.StatusCache = (*StatusCache)(nil)
