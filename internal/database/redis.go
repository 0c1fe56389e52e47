package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lifelink-backend/internal/config"
	"lifelink-backend/pkg/logger"

	"go.uber.org/zap"
)

// RedisDB wraps a Redis client
type RedisDB struct {
	Client *redis.Client
}

// NewRedisDB creates a new Redis client from config
func NewRedisDB(cfg *config.RedisConfig) (*RedisDB, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
		DialTimeout:  cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisDB{Client: client}, nil
}

// Close closes the Redis client connection
func (r *RedisDB) Close() {
	if r.Client != nil {
		r.Client.Close()
	}
}

// StartHealthCheck starts a background goroutine that periodically pings Redis
// until the context is cancelled
func (r *RedisDB) StartHealthCheck(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				if err := r.Client.Ping(pingCtx).Err(); err != nil {
					logger.Warn("Redis health check failed", zap.Error(err))
				}
				cancel()
			}
		}
	}()
}
