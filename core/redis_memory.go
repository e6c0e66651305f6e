package core

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisMemory is a Memory implementation backed by Redis, used for
// InterpretationCache when MemoryConfig.Provider is "redis" so cached
// interpretations survive server restarts and can be shared across
// replicas of the same capability set.
type RedisMemory struct {
	client    *redis.Client
	namespace string
	logger    Logger
}

// NewRedisMemory connects to redisURL with production connection settings
// (bounded pool, retry backoff, dial/read/write timeouts) and verifies
// connectivity with a bounded number of retries before returning.
func NewRedisMemory(redisURL, namespace string) (*RedisMemory, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, &FrameworkError{Op: "NewRedisMemory", Kind: "validation", Message: "invalid Redis URL", Err: ErrInvalidConfiguration}
	}

	opt.PoolSize = 10
	opt.MinIdleConns = 5
	opt.MaxRetries = 3
	opt.MinRetryBackoff = 100 * time.Millisecond
	opt.MaxRetryBackoff = time.Second
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 5 * time.Second
	opt.WriteTimeout = 5 * time.Second
	opt.PoolTimeout = 10 * time.Second

	client := redis.NewClient(opt)

	var pingErr error
	for attempt := 0; attempt < 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr = client.Ping(ctx).Err()
		cancel()
		if pingErr == nil {
			break
		}
		if attempt < 2 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}
	if pingErr != nil {
		return nil, &FrameworkError{Op: "NewRedisMemory", Kind: "transport", Message: "failed to connect to redis after retries", Err: pingErr}
	}

	if namespace == "" {
		namespace = "sinp"
	}

	return &RedisMemory{client: client, namespace: namespace, logger: &NoOpLogger{}}, nil
}

// SetLogger configures the logger for this memory store.
func (r *RedisMemory) SetLogger(logger Logger) {
	if logger == nil {
		r.logger = &NoOpLogger{}
		return
	}
	if cal, ok := logger.(ComponentAwareLogger); ok {
		r.logger = cal.WithComponent("framework/core")
	} else {
		r.logger = logger
	}
}

func (r *RedisMemory) key(k string) string {
	return fmt.Sprintf("%s:%s", r.namespace, k)
}

// Get returns the value stored at key, or ("", nil) if absent.
func (r *RedisMemory) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		r.logger.Error("redis get failed", map[string]interface{}{"key": key, "error": err.Error()})
		return "", &FrameworkError{Op: "RedisMemory.Get", Kind: "transport", ID: key, Err: err}
	}
	return val, nil
}

// Set stores value under key with the given TTL. A zero TTL never expires.
func (r *RedisMemory) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		r.logger.Error("redis set failed", map[string]interface{}{"key": key, "error": err.Error()})
		return &FrameworkError{Op: "RedisMemory.Set", Kind: "transport", ID: key, Err: err}
	}
	return nil
}

// Delete removes key.
func (r *RedisMemory) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return &FrameworkError{Op: "RedisMemory.Delete", Kind: "transport", ID: key, Err: err}
	}
	return nil
}

// Exists reports whether key is currently set.
func (r *RedisMemory) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, &FrameworkError{Op: "RedisMemory.Exists", Kind: "transport", ID: key, Err: err}
	}
	return n > 0, nil
}

// Close releases the underlying Redis connection pool.
func (r *RedisMemory) Close() error {
	return r.client.Close()
}

var _ Memory = (*RedisMemory)(nil)
