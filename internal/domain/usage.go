package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects backend consumption for a single request.
// The handler puts a pointer into the context; services record into it; the handler
// reads it back for response headers. A nil *Usage ignores all writes.
type Usage struct {
	mu              sync.Mutex
	embeddingTokens int
	generations     int
}

// NewContextWithUsage returns a context with an attached usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddTokens records consumed embedding tokens.
func (u *Usage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += n
	u.mu.Unlock()
}

// AddGeneration records one generation call.
func (u *Usage) AddGeneration() {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.generations++
	u.mu.Unlock()
}

// EmbeddingTokens returns the recorded embedding token total.
func (u *Usage) EmbeddingTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embeddingTokens
}

// Generations returns the number of recorded generation calls.
func (u *Usage) Generations() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.generations
}
