package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultListCacheTTL bounds how stale a cached list view may get even
// if an invalidation is lost.
const DefaultListCacheTTL = 5 * time.Minute

// CacheList stores a rendered list view for an owner
func (s *Store) CacheList(ctx context.Context, owner string, data []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, ListCacheKey(owner), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache list: %w", err)
	}
	return nil
}

// CachedList retrieves the cached list view for an owner.
// A cache miss returns (nil, nil).
func (s *Store) CachedList(ctx context.Context, owner string) ([]byte, error) {
	data, err := s.client.Get(ctx, ListCacheKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get cached list: %w", err)
	}
	return data, nil
}

// InvalidateList drops the cached list view for an owner so the next
// read rebuilds it from the records
func (s *Store) InvalidateList(ctx context.Context, owner string) error {
	if err := s.client.Del(ctx, ListCacheKey(owner)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate list cache: %w", err)
	}
	return nil
}
