package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/viniciussvasques/crm-innexar/pkg/env"
)

type Config struct {
	RedisAddr     string
	RedisPassword string
	Concurrency   int
}

func NewConfig() Config {
	concurrency, err := strconv.Atoi(env.GetEnv("QUEUE_CONCURRENCY", "4"))
	if err != nil {
		concurrency = 4
	}
	return Config{
		RedisAddr:     env.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: env.GetEnv("REDIS_PASSWORD", ""),
		Concurrency:   concurrency,
	}
}

// Ping verifies the queue backend is reachable before workers start.
func (c Config) Ping(ctx context.Context) error {
	rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("err pinging redis at %s, %v", c.RedisAddr, err)
	}
	return nil
}
