package config

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

var (
	RC      *redis.Client
	redisMu sync.Mutex
)

// ConnectRedis initializes the shared pub/sub client (idempotent).
func ConnectRedis(env Env) *redis.Client {
	redisMu.Lock()
	defer redisMu.Unlock()

	if RC != nil {
		return RC
	}

	rc := redis.NewClient(&redis.Options{
		Addr:     env.RedisAddr,
		Password: env.RedisPassword,
		DB:       env.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rc.Ping(ctx).Err(); err != nil {
		// The event transport is an observability side-channel; the API can
		// still serve bookings while the broker is down.
		log.Warnf("redis unreachable at %s: %v", env.RedisAddr, err)
	} else {
		log.Info("connected to Redis")
	}

	RC = rc
	return RC
}

func CloseRedis() {
	redisMu.Lock()
	defer redisMu.Unlock()

	if RC != nil {
		_ = RC.Close()
		RC = nil
	}
}
