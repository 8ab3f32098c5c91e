package database

import (
	"context"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/ruralpay/ledger/internal/config"
)

// OpenRedis returns a connected client, or nil when Redis is disabled or
// unreachable. Callers fall back to in-process implementations on nil.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		log.Println("[DB] Redis disabled by configuration")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[DB] Redis connection failed, continuing without Redis: %v", err)
		rdb.Close()
		return nil
	}

	log.Println("[DB] Redis connection established")
	return rdb
}
