package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"skinvault/internal/skincache"
)

// readCache wraps an optional skincache.Cache. Cache faults are logged and treated as
// misses; they never fail a request.
type readCache struct {
	cache  *skincache.Cache
	logger logrus.FieldLogger
}

func (c readCache) get(ctx context.Context, key skincache.Key, dst any) bool {
	if c.cache == nil {
		return false
	}
	ok, err := c.cache.Get(ctx, key, dst)
	if err != nil {
		c.logger.WithField("resource", key.Resource).Warnf("cache get: %v", err)
		return false
	}
	return ok
}

func (c readCache) set(ctx context.Context, key skincache.Key, value any) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, key, value); err != nil {
		c.logger.WithField("resource", key.Resource).Warnf("cache set: %v", err)
	}
}

func (c readCache) invalidate(ctx context.Context, prefix skincache.Prefix) {
	if c.cache == nil {
		return
	}
	if _, err := c.cache.InvalidatePrefix(ctx, prefix); err != nil {
		c.logger.WithField("prefix", prefix.String()).Warnf("cache invalidate: %v", err)
	}
}
