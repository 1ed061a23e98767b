package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alexander-kastil/talk-low-code-process/internal/config"
)

const (
	connectAttempts = 3
	connectBackoff  = 500 * time.Millisecond
	pingTimeout     = 2 * time.Second
)

// Options translates the process config into go-redis options.
func Options(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// Ping checks that rdb answers within pingTimeout.
func Ping(ctx context.Context, rdb *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return rdb.Ping(ctx).Err()
}

// Connect opens the Redis used for settings reloads, the task queue and the mock mailbox.
// A Redis that is still starting gets a few attempts with a growing pause in between.
func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(Options(cfg))

	var err error
retry:
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = Ping(ctx, rdb); err == nil {
			log.Printf("Connected to Redis at %s (db %d).", cfg.RedisAddr, cfg.RedisDB)
			return rdb, nil
		}
		if attempt == connectAttempts {
			break
		}
		log.Printf("Warning: Redis ping %d/%d at %s failed: %v", attempt, connectAttempts, cfg.RedisAddr, err)
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break retry
		case <-time.After(time.Duration(attempt) * connectBackoff):
		}
	}

	_ = rdb.Close()
	return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
}

// Close closes client; a nil client is ignored.
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("failed to close Redis connection: %w", err)
	}
	log.Println("Redis connection closed.")
	return nil
}
