package database

import (
	"context"
	"log"
	"time"

	"github.com/awanllm/chat-gateway/internal/config"
	"github.com/go-redis/redis/v8"
)

// InitRedis initializes the Redis client. It returns nil when Redis is not
// configured or unreachable; callers treat a nil client as "no cache".
func InitRedis(config *config.Config) *redis.Client {
	if !config.RedisEnabled() {
		return nil
	}

	// Create a context with timeout for Redis operations
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	redisAddr := config.GetRedisAddr()

	log.Printf("Connecting to Redis at %s...", redisAddr)

	redisClient := redis.NewClient(&redis.Options{
		Addr:         redisAddr,
		Username:     config.RedisUsername,
		Password:     config.RedisPassword,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	// Try to ping Redis
	_, err := redisClient.Ping(ctx).Result()
	if err != nil {
		log.Printf("⚠️  Warning: Failed to connect to Redis: %v", err)
		log.Println("⚠️  Application will continue without Redis caching")
		_ = redisClient.Close()
		return nil
	}

	log.Println("✅ Successfully connected to Redis")
	return redisClient
}
