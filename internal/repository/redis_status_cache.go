package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storymagic/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisStatusCache implements StatusCache
var _ StatusCache = (*redisStatusCache)(nil)

type redisStatusCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStatusCache creates a new Redis-backed StatusCache.
func NewRedisStatusCache(client *redis.Client, logger *zap.Logger) StatusCache {
	return &redisStatusCache{
		client: client,
		logger: logger.Named("RedisStatusCache"),
	}
}

func statusKey(id string) string {
	return fmt.Sprintf("story_status:%s", id)
}

// Get returns the cached status response or (nil, nil) on a cache miss.
// Redis failures are returned to the caller so it can decide to fall
// through to the database.
func (c *redisStatusCache) Get(ctx context.Context, id string) (*models.StoryStatusResponse, error) {
	key := statusKey(id)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		c.logger.Error("Failed to get status from redis", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}

	resp := &models.StoryStatusResponse{}
	if err := json.Unmarshal(data, resp); err != nil {
		c.logger.Error("Corrupted status payload in redis, dropping key",
			zap.Error(err), zap.String("key", key))
		c.client.Del(ctx, key)
		return nil, nil
	}
	return resp, nil
}

func (c *redisStatusCache) Set(ctx context.Context, id string, resp *models.StoryStatusResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal status response: %w", err)
	}
	key := statusKey(id)
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Error("Failed to set status in redis", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to set status in redis: %w", err)
	}
	c.logger.Debug("Cached status response", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

// Invalidate drops the cached entry so the next poll sees the fresh row.
// Called after every accepted webhook delivery.
func (c *redisStatusCache) Invalidate(ctx context.Context, id string) error {
	key := statusKey(id)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Failed to invalidate status in redis", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to invalidate status in redis: %w", err)
	}
	return nil
}
