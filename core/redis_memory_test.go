package core

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireRedis skips the test unless a Redis instance is reachable at
// localhost:6379, mirroring the rest of this repo's integration-test gating.
func requireRedis(t *testing.T) *RedisMemory {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis test in short mode")
	}

	conn, err := net.DialTimeout("tcp", "localhost:6379", time.Second)
	if err != nil {
		t.Skip("redis not available at localhost:6379")
	}
	conn.Close()

	mem, err := NewRedisMemory("redis://localhost:6379", "sinp-test")
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return mem
}

func TestRedisMemorySetGet(t *testing.T) {
	mem := requireRedis(t)
	defer mem.Close()
	ctx := context.Background()

	key := "test-key-" + time.Now().Format("20060102-150405.000")
	require.NoError(t, mem.Set(ctx, key, "value", time.Minute))
	defer mem.Delete(ctx, key)

	val, err := mem.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "value", val)
}

func TestRedisMemoryMissingKey(t *testing.T) {
	mem := requireRedis(t)
	defer mem.Close()

	val, err := mem.Get(context.Background(), "definitely-not-set")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestRedisMemoryExists(t *testing.T) {
	mem := requireRedis(t)
	defer mem.Close()
	ctx := context.Background()

	key := "exists-key-" + time.Now().Format("20060102-150405.000")
	ok, err := mem.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mem.Set(ctx, key, "x", time.Minute))
	defer mem.Delete(ctx, key)

	ok, err = mem.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisMemoryImplementsMemory(t *testing.T) {
	var _ Memory = (*RedisMemory)(nil)
}

func TestNewRedisMemoryInvalidURL(t *testing.T) {
	_, err := NewRedisMemory("not-a-redis-url", "sinp-test")
	require.Error(t, err)
	assert.True(t, IsConfigurationError(err))
}
