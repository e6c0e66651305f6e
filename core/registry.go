package core

import (
	"context"
	"fmt"
	"sync"
)

// CapabilityHandler executes a registered capability against a Request and
// returns its result payload, ready to marshal into ActionMetadata.Result.
type CapabilityHandler func(request *Request) (interface{}, error)

type registeredCapability struct {
	capability  Capability
	handler     CapabilityHandler
	reliability float64
}

// CapabilityRegistry holds every capability a server advertises, along with
// its execution handler and reliability factor R(c) used in the confidence
// calculus. It also interprets incoming intent against the registered set.
type CapabilityRegistry struct {
	mu           sync.RWMutex
	capabilities map[string]*registeredCapability
	order        []string // insertion order, for stable tie-breaking in Interpret
	interpreter  Interpreter
	cache        *InterpretationCache
}

// NewCapabilityRegistry returns an empty registry using the default
// KeywordInterpreter.
func NewCapabilityRegistry() *CapabilityRegistry {
	return &CapabilityRegistry{
		capabilities: make(map[string]*registeredCapability),
		interpreter:  NewKeywordInterpreter(),
	}
}

// NewCapabilityRegistryWithInterpreter returns an empty registry using a
// caller-supplied Interpreter, e.g. an LLM-backed one.
func NewCapabilityRegistryWithInterpreter(interpreter Interpreter) *CapabilityRegistry {
	return &CapabilityRegistry{
		capabilities: make(map[string]*registeredCapability),
		interpreter:  interpreter,
	}
}

// Register adds capability to the registry with handler and a reliability
// score clamped to [0, 1]. Registering the same capability ID again replaces
// the previous handler without changing its position in insertion order.
func (r *CapabilityRegistry) Register(capability Capability, handler CapabilityHandler, reliability float64) {
	if reliability < 0 {
		reliability = 0
	}
	if reliability > 1 {
		reliability = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.capabilities[capability.ID]; !exists {
		r.order = append(r.order, capability.ID)
	}
	r.capabilities[capability.ID] = &registeredCapability{
		capability:  capability,
		handler:     handler,
		reliability: reliability,
	}
}

// CapabilityIDs returns the IDs of every registered capability, in
// registration order.
func (r *CapabilityRegistry) CapabilityIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Capabilities returns a snapshot of every registered Capability, in
// registration order, so callers like Interpret's sort.SliceStable keep a
// deterministic tie-break between equally-scored capabilities.
func (r *CapabilityRegistry) Capabilities() []Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps := make([]Capability, 0, len(r.order))
	for _, id := range r.order {
		caps = append(caps, r.capabilities[id].capability)
	}
	return caps
}

// GetReliability returns R(c) for id, or 0 if id is not registered.
func (r *CapabilityRegistry) GetReliability(id string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rc, ok := r.capabilities[id]
	if !ok {
		return 0
	}
	return rc.reliability
}

// CheckPolicy reports whether request is allowed to proceed under this
// server's policy. The registry applies no policy and always returns true;
// there is no hook for substituting another policy.
func (r *CapabilityRegistry) CheckPolicy(request *Request) bool {
	return true
}

// WithCache attaches an InterpretationCache keyed by Context.SemanticHash.
// A nil cache disables caching; this is the zero-value default.
func (r *CapabilityRegistry) WithCache(cache *InterpretationCache) *CapabilityRegistry {
	r.cache = cache
	return r
}

// Interpret runs the registry's Interpreter against intent and ctx using
// every currently registered capability. When a cache is attached (see
// WithCache) and ctx carries a non-empty SemanticHash, a hit skips
// re-interpretation entirely and a miss populates the cache for next time.
func (r *CapabilityRegistry) Interpret(intent string, ctx Context) InterpretationResult {
	if r.cache != nil && ctx.SemanticHash != "" {
		if cached, hit, err := r.cache.Get(context.Background(), ctx.SemanticHash); err == nil && hit {
			return cached
		}
	}

	result := r.interpreter.Interpret(intent, ctx, r.Capabilities())

	if r.cache != nil && ctx.SemanticHash != "" {
		_ = r.cache.Put(context.Background(), ctx.SemanticHash, result)
	}
	return result
}

// Execute invokes the handler registered under id. Returns
// ErrCapabilityNotFound if id is not registered. A handler panic is
// recovered and returned as an error.
func (r *CapabilityRegistry) Execute(id string, request *Request) (result interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = &FrameworkError{Op: "CapabilityRegistry.Execute", Kind: "protocol", ID: id, Message: fmt.Sprintf("capability handler panicked: %v", p)}
		}
	}()

	r.mu.RLock()
	rc, ok := r.capabilities[id]
	r.mu.RUnlock()

	if !ok {
		return nil, &FrameworkError{
			Op:      "CapabilityRegistry.Execute",
			Kind:    "not_found",
			ID:      id,
			Message: fmt.Sprintf("capability not found: %s", id),
			Err:     ErrCapabilityNotFound,
		}
	}
	return rc.handler(request)
}
