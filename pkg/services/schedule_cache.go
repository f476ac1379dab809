package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/craftline/aps-engine/pkg/models"
)

// scheduleCacheKey holds the serialized default current-schedule view.
const scheduleCacheKey = "aps:schedule:current"

// ScheduleCache caches the default current-schedule view in Redis. All
// operations are best-effort: a cache failure is logged and treated as a
// miss, never surfaced to the caller.
type ScheduleCache interface {
	// Get returns the cached view and whether it was present.
	Get(ctx context.Context) ([]*models.ScheduledJob, bool)

	// Set stores the view under the configured TTL.
	Set(ctx context.Context, jobs []*models.ScheduledJob)

	// Invalidate drops the cached view. Called after every plan generation.
	Invalidate(ctx context.Context)
}

type scheduleCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewScheduleCache creates a new ScheduleCache. A nil client disables
// caching; every Get misses and Set/Invalidate do nothing.
func NewScheduleCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) ScheduleCache {
	return &scheduleCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("schedule-cache"),
	}
}

var _ ScheduleCache = (*scheduleCache)(nil)

func (c *scheduleCache) Get(ctx context.Context) ([]*models.ScheduledJob, bool) {
	if c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, scheduleCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Failed to read schedule cache", zap.Error(err))
		}
		return nil, false
	}

	var jobs []*models.ScheduledJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		c.logger.Warn("Failed to decode schedule cache entry", zap.Error(err))
		return nil, false
	}

	return jobs, true
}

func (c *scheduleCache) Set(ctx context.Context, jobs []*models.ScheduledJob) {
	if c.client == nil {
		return
	}

	data, err := json.Marshal(jobs)
	if err != nil {
		c.logger.Warn("Failed to encode schedule cache entry", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, scheduleCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write schedule cache", zap.Error(err))
	}
}

func (c *scheduleCache) Invalidate(ctx context.Context) {
	if c.client == nil {
		return
	}

	if err := c.client.Del(ctx, scheduleCacheKey).Err(); err != nil {
		c.logger.Warn("Failed to invalidate schedule cache", zap.Error(err))
	}
}
