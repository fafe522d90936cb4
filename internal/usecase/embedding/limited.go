package embedding

import (
	"context"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/ratelimit"
)

// LimitedEmbedder routes every provider call through a rate limiter.
// A batch is one limiter task, so indexing N documents costs one slot.
type LimitedEmbedder struct {
	inner   domain.Embedder
	limiter *ratelimit.Limiter
}

// NewLimitedEmbedder wraps inner with limiter.
func NewLimitedEmbedder(inner domain.Embedder, limiter *ratelimit.Limiter) *LimitedEmbedder {
	return &LimitedEmbedder{inner: inner, limiter: limiter}
}

// Embed runs one embedding as one limiter task.
func (l *LimitedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return ratelimit.Do(ctx, l.limiter, func(ctx context.Context) (domain.EmbeddingResult, error) {
		return l.inner.Embed(ctx, text)
	})
}

// BatchEmbed runs a native batch as one limiter task. Providers without a batch
// call fall back to one task per text.
func (l *LimitedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	be, ok := l.inner.(domain.BatchEmbedder)
	if !ok {
		return domain.BatchFallback(ctx, l, texts)
	}
	return ratelimit.Do(ctx, l.limiter, func(ctx context.Context) (domain.BatchEmbeddingResult, error) {
		return be.BatchEmbed(ctx, texts)
	})
}

// HealthCheck delegates to the provider outside the limiter.
func (l *LimitedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := l.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
