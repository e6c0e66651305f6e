package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpretationCacheMiss(t *testing.T) {
	cache := NewInterpretationCache(NewMemoryStore(), time.Minute)
	_, found, err := cache.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInterpretationCachePutGet(t *testing.T) {
	cache := NewInterpretationCache(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	cap := weatherCapability()
	result := InterpretationResult{
		Interpretation: "Execute get_weather for: weather today",
		Capability:     &cap,
		RawConfidence:  0.8,
	}

	require.NoError(t, cache.Put(ctx, "hash123", result))

	got, found, err := cache.Get(ctx, "hash123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, result.Interpretation, got.Interpretation)
	assert.Equal(t, result.RawConfidence, got.RawConfidence)
	require.NotNil(t, got.Capability)
	assert.Equal(t, "get_weather", got.Capability.ID)
}

func TestInterpretationCacheInvalidate(t *testing.T) {
	cache := NewInterpretationCache(NewMemoryStore(), time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, "hash456", InterpretationResult{Interpretation: "x"}))
	require.NoError(t, cache.Invalidate(ctx, "hash456"))

	_, found, err := cache.Get(ctx, "hash456")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInterpretationCacheDefaultTTL(t *testing.T) {
	cache := NewInterpretationCache(NewMemoryStore(), 0)
	assert.Equal(t, DefaultInterpretationTTL, cache.ttl)
}

func TestNewInterpretationCacheFromConfigDefaultsToInMemory(t *testing.T) {
	cache, err := NewInterpretationCacheFromConfig(MemoryConfig{DefaultTTL: time.Minute}, nil)
	require.NoError(t, err)
	require.NotNil(t, cache)

	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "hash", InterpretationResult{Interpretation: "x"}))
	_, found, err := cache.Get(ctx, "hash")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestNewInterpretationCacheFromConfigRejectsUnknownProvider(t *testing.T) {
	_, err := NewInterpretationCacheFromConfig(MemoryConfig{Provider: "bogus"}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
