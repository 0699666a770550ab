package locker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisOptions configure the distributed lock.
type RedisOptions struct {
	// Prefix is prepended to every key.
	Prefix string
	// TTL bounds how long a crashed holder can block a key.
	TTL time.Duration
	// RetryInterval is the pause between acquisition attempts.
	RetryInterval time.Duration
}

// Redis is a lock built on SET NX PX with token-checked release.
type Redis struct {
	client redis.Cmdable
	opts   RedisOptions
	logger *slog.Logger
}

// NewRedis creates a distributed locker on client.
func NewRedis(client redis.Cmdable, opts RedisOptions, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 25 * time.Millisecond
	}
	return &Redis{client: client, opts: opts, logger: logger.With("component", "redis_locker")}
}

// Lock retries until the key is acquired or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := r.opts.Prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.opts.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, fullKey, token, r.opts.TTL).Result()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// Release even if the caller's context is already cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, r.client, []string{fullKey}, token).Err(); err != nil {
			r.logger.Warn("Failed to release lock", "key", fullKey, "error", err)
		}
	}, nil
}

// NewRedisClient creates a Redis client and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}
