// Package cache provides the optional Redis read cache for list views.
// A nil *Cache (redis absent or unreachable) disables caching without
// touching call sites.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"carf-backend/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	customerListPrefix = "carf:customers:"
	listTTL            = 30 * time.Second
)

type Cache struct {
	client *redis.Client
}

// New connects to Redis at addr (host:port or redis:// URL). Returns nil when
// addr is empty or the server is unreachable; the application runs uncached.
func New(addr string) *Cache {
	if addr == "" {
		return nil
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			logger.L().Warn("invalid REDIS_URL, continuing without cache", zap.Error(err))
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.L().Warn("redis unreachable, continuing without cache", zap.Error(err))
		return nil
	}

	logger.L().Info("redis connected", zap.String("addr", opts.Addr))
	return &Cache{client: client}
}

// GetCustomerList returns the cached payload for a list key, if present.
func (c *Cache) GetCustomerList(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, customerListPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Warn("cache read failed", zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

// SetCustomerList stores a list payload under key with a short TTL.
func (c *Cache) SetCustomerList(ctx context.Context, key string, data []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, customerListPrefix+key, data, listTTL).Err(); err != nil {
		logger.L().Warn("cache write failed", zap.Error(err))
	}
}

// InvalidateCustomers drops every cached customer list. Called after any
// workflow write so no list view can resurface stale statuses.
func (c *Cache) InvalidateCustomers(ctx context.Context) {
	if c == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, customerListPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.L().Warn("cache scan failed", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			logger.L().Warn("cache invalidation failed", zap.Error(err))
		}
	}
}
