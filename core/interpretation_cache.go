package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultInterpretationTTL is how long a cached interpretation stays valid
// before the server re-runs the Interpreter.
const DefaultInterpretationTTL = 60 * time.Second

// InterpretationCache memoizes InterpretationResult by semantic hash. The
// hash deliberately excludes timestamp (see SemanticHash), so repeated
// requests carrying the same (intent, context) pair within the TTL window
// skip re-interpretation entirely.
type InterpretationCache struct {
	store Memory
	ttl   time.Duration
}

// NewInterpretationCache wraps store with the given TTL. A zero ttl falls
// back to DefaultInterpretationTTL.
func NewInterpretationCache(store Memory, ttl time.Duration) *InterpretationCache {
	if ttl <= 0 {
		ttl = DefaultInterpretationTTL
	}
	return &InterpretationCache{store: store, ttl: ttl}
}

// NewInterpretationCacheFromConfig builds the Memory backing store named by
// cfg.Provider ("inmemory", the default, or "redis") and wraps it in an
// InterpretationCache using cfg.DefaultTTL. logger is attached to the
// backing store when it is not nil.
func NewInterpretationCacheFromConfig(cfg MemoryConfig, logger Logger) (*InterpretationCache, error) {
	var store Memory

	switch cfg.Provider {
	case "", "inmemory":
		memStore := NewMemoryStore()
		if logger != nil {
			memStore.SetLogger(logger)
		}
		store = memStore
	case "redis":
		redisStore, err := NewRedisMemory(cfg.RedisURL, "sinp")
		if err != nil {
			return nil, err
		}
		if logger != nil {
			redisStore.SetLogger(logger)
		}
		store = redisStore
	default:
		return nil, &FrameworkError{Op: "NewInterpretationCacheFromConfig", Kind: "validation", Message: fmt.Sprintf("unknown memory provider: %s", cfg.Provider), Err: ErrInvalidConfiguration}
	}

	return NewInterpretationCache(store, cfg.DefaultTTL), nil
}

func cacheKey(semanticHash string) string {
	return "interpretation:" + semanticHash
}

// Get returns the cached result for semanticHash, if present and unexpired.
func (c *InterpretationCache) Get(ctx context.Context, semanticHash string) (InterpretationResult, bool, error) {
	raw, err := c.store.Get(ctx, cacheKey(semanticHash))
	if err != nil {
		return InterpretationResult{}, false, err
	}
	if raw == "" {
		return InterpretationResult{}, false, nil
	}

	var result InterpretationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return InterpretationResult{}, false, err
	}
	return result, true, nil
}

// Put stores result under semanticHash for the cache's configured TTL.
func (c *InterpretationCache) Put(ctx context.Context, semanticHash string, result InterpretationResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, cacheKey(semanticHash), string(data), c.ttl)
}

// Invalidate removes any cached entry for semanticHash.
func (c *InterpretationCache) Invalidate(ctx context.Context, semanticHash string) error {
	return c.store.Delete(ctx, cacheKey(semanticHash))
}
