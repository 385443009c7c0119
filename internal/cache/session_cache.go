// Package cache keeps resolved sessions in Redis so that authenticated
// requests do not hit the sessions table every time.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"plandera/internal/model"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "plandera:session:"

// SessionCache stores resolved sessions by token.
type SessionCache interface {
	// Get returns the cached session, or nil on a miss.
	Get(ctx context.Context, token string) (*model.Session, error)
	Set(ctx context.Context, sess *model.Session) error
	Delete(ctx context.Context, token string) error
}

// RedisClient is the subset of go-redis used by the cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionCache struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedisSessionCache caches sessions for at most ttl. Entries never outlive
// the session's own expiry.
func NewRedisSessionCache(client RedisClient, ttl time.Duration) SessionCache {
	return &redisSessionCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (c *redisSessionCache) Get(ctx context.Context, token string) (*model.Session, error) {
	raw, err := c.client.Get(ctx, keyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached session: %w", err)
	}
	var sess model.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode cached session: %w", err)
	}
	return &sess, nil
}

func (c *redisSessionCache) Set(ctx context.Context, sess *model.Session) error {
	ttl := c.ttl
	if left := time.Until(sess.ExpiresAt); left < ttl {
		ttl = left
	}
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+sess.Token, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache session: %w", err)
	}
	return nil
}

func (c *redisSessionCache) Delete(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("evict session: %w", err)
	}
	return nil
}
