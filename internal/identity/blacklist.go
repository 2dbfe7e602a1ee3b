// Package identity adapts the identity service's blacklist flag for the
// reservation core.
package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Blacklist answers whether a user may not reserve books.
type Blacklist interface {
	IsBlacklisted(ctx context.Context, userID string) (bool, error)
}

// StaticBlacklist is an in-memory Blacklist used by the memory store mode.
type StaticBlacklist struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewStaticBlacklist returns a blacklist containing ids.
func NewStaticBlacklist(ids ...string) *StaticBlacklist {
	s := &StaticBlacklist{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Set adds or removes a user.
func (s *StaticBlacklist) Set(userID string, blacklisted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if blacklisted {
		s.ids[userID] = struct{}{}
		return
	}
	delete(s.ids, userID)
}

func (s *StaticBlacklist) IsBlacklisted(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[userID]
	return ok, nil
}

// redisClient is the subset of *redis.Client the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedBlacklist is a read-through Redis cache in front of another
// Blacklist. Only positive answers are cached, so a user blacklisted by the
// identity service is refused on the next reservation; an unblacklisted user
// may stay refused for up to ttl. Redis failures degrade to the underlying
// lookup.
type CachedBlacklist struct {
	next   Blacklist
	rdb    redisClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedBlacklist wraps next with a Redis cache whose entries live for ttl.
func NewCachedBlacklist(next Blacklist, rdb redisClient, ttl time.Duration, logger *zap.Logger) *CachedBlacklist {
	return &CachedBlacklist{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func (c *CachedBlacklist) IsBlacklisted(ctx context.Context, userID string) (bool, error) {
	key := cacheKey(userID)

	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil && val == "1":
		return true, nil
	case err == nil, errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("blacklist cache read failed", zap.String("user_id", userID), zap.Error(err))
	}

	blacklisted, err := c.next.IsBlacklisted(ctx, userID)
	if err != nil || !blacklisted {
		return false, err
	}

	if err := c.rdb.Set(ctx, key, "1", c.ttl).Err(); err != nil {
		c.logger.Warn("blacklist cache write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return true, nil
}

func cacheKey(userID string) string {
	return "library:blacklist:" + userID
}
