// Package cache keeps hot job state in Redis so the API can answer
// status queries without touching the database or the worker.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/videokit/bgremove/pkg/models"
)

// Cache provides caching functionality using Redis
type Cache struct {
	client *redis.Client
}

// NewCache creates a new cache instance
func NewCache(host string, port int, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// SetJobStatus caches a job's current pipeline state
func (c *Cache) SetJobStatus(ctx context.Context, jobID, status string, ttl time.Duration) error {
	key := fmt.Sprintf("job:status:%s", jobID)
	return c.client.Set(ctx, key, status, ttl).Err()
}

// GetJobStatus retrieves a job's pipeline state; empty string on miss
func (c *Cache) GetJobStatus(ctx context.Context, jobID string) (string, error) {
	key := fmt.Sprintf("job:status:%s", jobID)
	status, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // Cache miss
		}
		return "", fmt.Errorf("failed to get job status: %w", err)
	}
	return status, nil
}

// SetJobProgress caches how many frames of a job have been segmented
func (c *Cache) SetJobProgress(ctx context.Context, jobID string, done, total int, ttl time.Duration) error {
	key := fmt.Sprintf("job:progress:%s", jobID)
	return c.client.Set(ctx, key, fmt.Sprintf("%d/%d", done, total), ttl).Err()
}

// GetJobProgress retrieves job progress as a "done/total" string
func (c *Cache) GetJobProgress(ctx context.Context, jobID string) (string, error) {
	key := fmt.Sprintf("job:progress:%s", jobID)
	progress, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to get job progress: %w", err)
	}
	return progress, nil
}

// SetResult caches a finished job's result
func (c *Cache) SetResult(ctx context.Context, result *models.ProcessingResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	key := fmt.Sprintf("result:%s", result.JobID)
	return c.client.Set(ctx, key, data, ttl).Err()
}

// GetResult retrieves a finished job's result; nil on miss
func (c *Cache) GetResult(ctx context.Context, jobID string) (*models.ProcessingResult, error) {
	key := fmt.Sprintf("result:%s", jobID)
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, fmt.Errorf("failed to get result from cache: %w", err)
	}

	var result models.ProcessingResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// Health check
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
