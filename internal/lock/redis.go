package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key used when none is configured.
const DefaultRedisKey = "jobatlas:sync:lock"

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// renewScript extends the expiry only if the key still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// Redis is a distributed lock for deployments with several workers sharing
// one source. Each acquisition stores a fresh token with expiry ttl, extended
// every ttl/3 while held.
type Redis struct {
	client     RedisClient
	key        string
	ttl        time.Duration
	renewEvery time.Duration
	logger     *slog.Logger
}

// NewRedis returns a Redis lock on key.
func NewRedis(client RedisClient, key string, ttl time.Duration, logger *slog.Logger) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key, ttl: ttl, renewEvery: renewInterval(ttl), logger: logger}
}

// RedisClient is the subset of *redis.Client used by Redis.
type RedisClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

func (r *Redis) TryLock(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	acquired, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis SET NX %s: %w", r.key, err)
	}
	if !acquired {
		return nil, false, nil
	}

	stopRenewal := startRenewal(r.renewEvery, func(ctx context.Context) (bool, error) {
		n, err := renewScript.Run(ctx, r.client, []string{r.key}, token, r.ttl.Milliseconds()).Int64()
		return n == 1, err
	}, r.logger, "key", r.key)

	release := func() {
		stopRenewal()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil {
			r.logger.Warn("failed to release redis lock", "key", r.key, "error", err)
		}
	}
	return release, true, nil
}
