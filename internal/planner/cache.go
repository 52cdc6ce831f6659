package planner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Bahjat/insight-router/internal/model"
	"github.com/Bahjat/insight-router/internal/platform/metrics"
)

const cacheKeyPrefix = "insight:plan:"

// CachedPlanner memoizes successful plans from next in Redis. Redis errors
// are treated as misses, and failed plans are never stored.
type CachedPlanner struct {
	next   Planner
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedPlanner wraps next with a Redis cache whose entries expire after ttl.
func NewCachedPlanner(next Planner, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedPlanner {
	return &CachedPlanner{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// Plan implements Planner.
func (c *CachedPlanner) Plan(ctx context.Context, query string) (model.QueryPlan, error) {
	key := cacheKey(query)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var plan model.QueryPlan
		if jsonErr := json.Unmarshal(data, &plan); jsonErr == nil {
			metrics.PlanCacheLookups.WithLabelValues("hit").Inc()
			return plan, nil
		}
		metrics.PlanCacheLookups.WithLabelValues("corrupt").Inc()
	case errors.Is(err, redis.Nil):
		metrics.PlanCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.PlanCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("plan cache read failed", "error", err)
	}

	plan, err := c.next.Plan(ctx, query)
	if err != nil {
		return model.QueryPlan{}, err
	}

	if encoded, err := json.Marshal(plan); err == nil {
		if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.Warn("plan cache write failed", "error", err)
		}
	}
	return plan, nil
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
