package queue

import (
	"github.com/hibiken/asynq"
	"github.com/hugh/lead-hunter/pkg/config"
	"github.com/redis/go-redis/v9"
)

func redisOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
	}
}

func NewClient(cfg *config.RedisConfig) *asynq.Client {
	return asynq.NewClient(redisOpt(cfg))
}

func NewServer(cfg *config.RedisConfig, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 10
	}

	return asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)
}

func NewInspector(cfg *config.RedisConfig) *asynq.Inspector {
	return asynq.NewInspector(redisOpt(cfg))
}

// NewRedisClient returns the plain redis client used for health checks and
// rate limiting.
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
	})
}
