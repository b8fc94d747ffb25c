// Package cache is an optional Redis cache in front of device resolution.
// When no Redis URL is configured every operation is a no-op and lookups
// fall through to the repository.
package cache

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var (
	redisClient *redis.Client
	enabled     bool
)

// Initialize sets up the Redis connection if redisURL is provided.
func Initialize(redisURL string) {
	if redisURL == "" {
		log.Info().Msg("redis URL not provided, device cache disabled")
		enabled = false
		return
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("failed to parse redis URL, device cache disabled")
		enabled = false
		return
	}

	redisClient = redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to connect to redis, device cache disabled")
		enabled = false
		return
	}

	enabled = true
	log.Info().Msg("redis device cache initialized")
}

// Close closes the Redis connection.
func Close() {
	if redisClient != nil {
		redisClient.Close()
	}
}

// Set stores a value with expiration.
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !enabled {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return redisClient.Set(ctx, key, data, expiration).Err()
}

// Get retrieves a value into dest. Returns redis.Nil on miss (and always
// when the cache is disabled).
func Get(ctx context.Context, key string, dest interface{}) error {
	if !enabled {
		return redis.Nil
	}

	data, err := redisClient.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Delete removes a key.
func Delete(ctx context.Context, key string) error {
	if !enabled {
		return nil
	}

	return redisClient.Del(ctx, key).Err()
}

// IsMiss reports whether err is a cache miss rather than a real failure.
func IsMiss(err error) bool {
	return err == redis.Nil
}
