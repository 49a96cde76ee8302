package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storecatalog/internal/logger"
)

// ConnectRedis opens a Redis client and verifies it with a ping.
func ConnectRedis(ctx context.Context, addr, password string, db int, log *logger.Logger) (*redis.Client, error) {
	log = logger.OrNop(log)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info("connected to redis", "addr", addr, "db", db)
	return rdb, nil
}
