// Package storage provides a Redis backed certificate cache that several
// inspector processes can share.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/certwatch-app/cw-inspector/internal/inspector"
)

// DefaultKeyPrefix namespaces cache keys
const DefaultKeyPrefix = "cwi:cert:"

// RedisCache implements inspector.Cache on top of Redis. Redis failures are
// logged and treated as cache misses so scans keep working without it.
type RedisCache struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	ttl       time.Duration
}

// Options configures a RedisCache
type Options struct {
	Addr      string
	KeyPrefix string
	TTL       time.Duration
	DB        int
}

// NewRedisCache connects to Redis
func NewRedisCache(opts Options, logger *zap.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr: opts.Addr,
		DB:   opts.DB,
	})
	return NewRedisCacheWithClient(client, opts.KeyPrefix, opts.TTL, logger)
}

// NewRedisCacheWithClient wraps an existing client
func NewRedisCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisCache{
		client:    client,
		logger:    logger,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Ping checks that Redis is reachable
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(domain inspector.DomainName) string {
	return c.keyPrefix + domain.String()
}

// Get returns the cached record for domain
func (c *RedisCache) Get(ctx context.Context, domain inspector.DomainName) (inspector.CertificateRecord, bool) {
	val, err := c.client.Get(ctx, c.key(domain)).Bytes()
	if errors.Is(err, redis.Nil) {
		return inspector.CertificateRecord{}, false
	}
	if err != nil {
		c.logger.Warn("redis cache read failed",
			zap.String("domain", domain.String()),
			zap.Error(err),
		)
		return inspector.CertificateRecord{}, false
	}

	var rec inspector.CertificateRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		c.logger.Warn("discarding corrupt cache entry",
			zap.String("domain", domain.String()),
			zap.Error(err),
		)
		return inspector.CertificateRecord{}, false
	}
	return rec, true
}

// Put stores rec with SETNX so the first writer across all processes wins.
// When another writer got there first its record is returned instead.
func (c *RedisCache) Put(ctx context.Context, domain inspector.DomainName, rec inspector.CertificateRecord) (inspector.CertificateRecord, bool) {
	data, err := json.Marshal(rec)
	if err != nil {
		c.logger.Error("failed to encode certificate record", zap.Error(err))
		return rec, false
	}

	inserted, err := c.client.SetNX(ctx, c.key(domain), data, c.ttl).Result()
	if err != nil {
		c.logger.Warn("redis cache write failed",
			zap.String("domain", domain.String()),
			zap.Error(err),
		)
		return rec, false
	}
	if inserted {
		return rec, true
	}

	if existing, ok := c.Get(ctx, domain); ok {
		return existing, false
	}
	// the winning entry expired or was invalidated between SETNX and GET
	return rec, false
}

// Invalidate deletes the entry for domain
func (c *RedisCache) Invalidate(ctx context.Context, domain inspector.DomainName) {
	if err := c.client.Del(ctx, c.key(domain)).Err(); err != nil {
		c.logger.Warn("redis cache invalidate failed",
			zap.String("domain", domain.String()),
			zap.Error(err),
		)
	}
}
