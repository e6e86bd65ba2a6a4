package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil when addr is empty or the server does not answer.
// Callers treat a nil client as "no distributed locking".
func ConnectRedis(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       0,
		PoolSize: 20,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logg.WithField("addr", addr).WithError(err).Warn("redis unreachable, continuing without bill locks")
		_ = rdb.Close()
		return nil
	}
	logg.WithField("addr", addr).Info("connected to redis")
	return rdb
}
