package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quantumLottoServer/config"
	"quantumLottoServer/logger"
	"quantumLottoServer/lottery"
	"quantumLottoServer/quantum"

	"github.com/redis/go-redis/v9"
)

var (
	// RedisClient is the global Redis client instance
	RedisClient *redis.Client
)

// JobStatusRecord mirrors the runtime job state for polling clients
type JobStatusRecord struct {
	JobID     string    `json:"jobId"`
	Backend   string    `json:"backend"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InitRedis initializes the Redis client connection
func InitRedis(cfg config.Env) error {
	logger.Info("🔌 Connecting to Redis...")

	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort

	// Create Redis client
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Infof("✅ Redis connected successfully - Addr: %s", redisAddr)
	return nil
}

// CloseRedis closes the Redis connection
func CloseRedis() error {
	if RedisClient != nil {
		logger.Info("🔌 Closing Redis connection...")
		return RedisClient.Close()
	}
	return nil
}

/* =========================
   DRAW CACHE FUNCTIONS
   Redis Key: lottery:draw:{drawId} -> DrawRecord JSON
========================= */

// CacheDraw stores a completed draw and pushes it onto the recent-draws list
func CacheDraw(ctx context.Context, record *lottery.DrawRecord) error {
	key := fmt.Sprintf(config.RedisDrawKey, record.ID)

	// Serialize draw record to JSON
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal draw: %w", err)
	}

	// Store with TTL
	if err := RedisClient.Set(ctx, key, data, config.DrawRecordTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache draw: %w", err)
	}

	// Maintain the recent-draws list, newest first
	if err := RedisClient.LPush(ctx, config.RedisRecentDrawsKey, record.ID).Err(); err != nil {
		return fmt.Errorf("failed to push recent draw: %w", err)
	}
	RedisClient.LTrim(ctx, config.RedisRecentDrawsKey, 0, int64(config.MaxRecentDraws-1))

	logger.Infof("✅ Cached draw - ID: %s, Source: %s, Games: %d",
		record.ID, record.Source, len(record.Games))
	return nil
}

// GetCachedDraw retrieves a cached draw by ID
func GetCachedDraw(ctx context.Context, drawID string) (*lottery.DrawRecord, error) {
	key := fmt.Sprintf(config.RedisDrawKey, drawID)

	data, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil // Draw not cached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached draw: %w", err)
	}

	var record lottery.DrawRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draw: %w", err)
	}

	return &record, nil
}

// GetRecentDrawIDs returns the IDs of the most recently cached draws
func GetRecentDrawIDs(ctx context.Context, limit int) ([]string, error) {
	ids, err := RedisClient.LRange(ctx, config.RedisRecentDrawsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recent draw IDs: %w", err)
	}

	return ids, nil
}

/* =========================
   JOB STATUS FUNCTIONS
   Redis Key: lottery:job:{jobId} -> JobStatusRecord JSON
========================= */

// CacheJobStatus stores the latest known status of a runtime job
func CacheJobStatus(ctx context.Context, jobID, backend, status string) error {
	key := fmt.Sprintf(config.RedisJobKey, jobID)

	record := JobStatusRecord{
		JobID:     jobID,
		Backend:   backend,
		Status:    status,
		UpdatedAt: time.Now(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal job status: %w", err)
	}

	if err := RedisClient.Set(ctx, key, data, config.JobStatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache job status: %w", err)
	}

	return nil
}

// GetCachedJobStatus retrieves the cached status of a runtime job
func GetCachedJobStatus(ctx context.Context, jobID string) (*JobStatusRecord, error) {
	key := fmt.Sprintf(config.RedisJobKey, jobID)

	data, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil // Job not cached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job status: %w", err)
	}

	var record JobStatusRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job status: %w", err)
	}

	return &record, nil
}

/* =========================
   BACKEND LIST CACHE
========================= */

// CacheBackends caches the backend list to avoid hammering the runtime API
func CacheBackends(ctx context.Context, backends []quantum.Backend) error {
	data, err := json.Marshal(backends)
	if err != nil {
		return fmt.Errorf("failed to marshal backends: %w", err)
	}

	if err := RedisClient.Set(ctx, config.RedisBackendsKey, data, config.BackendListTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache backends: %w", err)
	}

	logger.Infof("✅ Cached %d backends, TTL: %s", len(backends), config.BackendListTTL)
	return nil
}

// GetCachedBackends retrieves the cached backend list
func GetCachedBackends(ctx context.Context) ([]quantum.Backend, error) {
	data, err := RedisClient.Get(ctx, config.RedisBackendsKey).Result()
	if err == redis.Nil {
		return nil, nil // Not cached
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached backends: %w", err)
	}

	var backends []quantum.Backend
	if err := json.Unmarshal([]byte(data), &backends); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backends: %w", err)
	}

	return backends, nil
}

/* =========================
   HEALTH CHECK
========================= */

// HealthCheck performs a Redis health check
func HealthCheck(ctx context.Context) error {
	if RedisClient == nil {
		return fmt.Errorf("redis client not initialized")
	}
	return RedisClient.Ping(ctx).Err()
}
