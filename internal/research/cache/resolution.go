// Package cache keeps recently resolved identities in Redis so that repeated
// research of the same business skips search and disambiguation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"business-research/internal/common/logger"
	"business-research/internal/common/metrics"
	"business-research/internal/models"
	"business-research/internal/research/identifier"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "research:identity:"

// ResolutionCache never fails a resolution: Redis errors are logged and
// treated as a miss.
type ResolutionCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewResolutionCache(client redis.Cmdable, ttl time.Duration, log logger.Logger) *ResolutionCache {
	return &ResolutionCache{
		client: client,
		ttl:    ttl,
		logger: log.With(map[string]interface{}{"component": "resolution-cache"}),
	}
}

// Key is case and whitespace insensitive in both name and location.
func Key(q models.SearchQuery) string {
	name := strings.ToLower(strings.Join(strings.Fields(q.Name), " "))
	location := strings.ToLower(strings.Join(strings.Fields(q.Location), " "))
	return keyPrefix + name + "|" + location
}

func (c *ResolutionCache) Get(ctx context.Context, q models.SearchQuery) (*models.ResolvedIdentity, bool) {
	key := Key(q)
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		metrics.ResolutionCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.ResolutionCache.WithLabelValues("error").Inc()
		c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		return nil, false
	}

	var identity models.ResolvedIdentity
	if err := json.Unmarshal([]byte(val), &identity); err != nil || identity.TranslatedID == "" {
		metrics.ResolutionCache.WithLabelValues("error").Inc()
		c.logger.Warn("discarding unreadable cache entry", map[string]interface{}{"key": key})
		return nil, false
	}
	if !consistent(&identity) {
		metrics.ResolutionCache.WithLabelValues("error").Inc()
		c.logger.Warn("discarding inconsistent cache entry", map[string]interface{}{
			"key":          key,
			"opaqueId":     identity.OpaqueID,
			"translatedId": identity.TranslatedID,
		})
		return nil, false
	}

	metrics.ResolutionCache.WithLabelValues("hit").Inc()
	return &identity, true
}

// consistent reports whether the cached translated id still decodes to the
// cached opaque id.
func consistent(identity *models.ResolvedIdentity) bool {
	opaque, err := identifier.Reverse(identity.TranslatedID)
	return err == nil && opaque == identity.OpaqueID
}

func (c *ResolutionCache) Put(ctx context.Context, q models.SearchQuery, identity *models.ResolvedIdentity) {
	data, err := json.Marshal(identity)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, Key(q), data, c.ttl).Err(); err != nil {
		metrics.ResolutionCache.WithLabelValues("error").Inc()
		c.logger.Warn("cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
