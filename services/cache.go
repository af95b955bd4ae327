package services

import (
	"context"
	"time"

	"github.com/sahilchouksey/eduplatform-api/utils/logger"
)

// JSONCache is the slice of utils/cache.RedisCache the read models use
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// readModelPrefixes name the cached dashboards and analytics
var readModelPrefixes = []string{"dashboard:", "analytics:"}

// invalidateReadModels drops every cached dashboard and analytics entry after
// courses or submissions change. cache may be nil.
func invalidateReadModels(ctx context.Context, cache JSONCache, log *logger.Logger) {
	if cache == nil {
		return
	}
	for _, prefix := range readModelPrefixes {
		if err := cache.DeleteByPrefix(context.WithoutCancel(ctx), prefix); err != nil {
			log.Warn("failed to invalidate cached read models", "prefix", prefix, "error", err)
		}
	}
}
