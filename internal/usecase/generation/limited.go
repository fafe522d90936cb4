// Package generation routes generative backend calls through the shared rate limiter.
package generation

import (
	"context"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/metrics"
	"github.com/kailas-cloud/campusagent/internal/ratelimit"
)

// Request kinds used as metric labels.
const (
	kindText   = "text"
	kindTools  = "tools"
	kindStream = "stream"
)

// LimitedGenerator runs every generation as one limiter task.
// A streamed generation occupies its slot until the stream ends.
type LimitedGenerator struct {
	inner    domain.Generator
	limiter  *ratelimit.Limiter
	provider string
	model    string
	logger   *zap.Logger
}

// NewLimitedGenerator wraps inner. provider and model only label metrics and logs.
func NewLimitedGenerator(
	inner domain.Generator, limiter *ratelimit.Limiter,
	provider, model string, logger *zap.Logger,
) *LimitedGenerator {
	return &LimitedGenerator{inner: inner, limiter: limiter, provider: provider, model: model, logger: logger}
}

// Generate answers a conversation.
func (g *LimitedGenerator) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	start := time.Now()
	text, err := ratelimit.Do(ctx, g.limiter, func(ctx context.Context) (string, error) {
		return g.inner.Generate(ctx, messages)
	})
	g.observe(ctx, kindText, start, err)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return text, nil
}

// GenerateWithTools asks the backend to answer or pick one of the declared functions.
func (g *LimitedGenerator) GenerateWithTools(
	ctx context.Context, prompt string, tools []domain.FunctionDeclaration,
) (domain.GenerateResult, error) {
	start := time.Now()
	res, err := ratelimit.Do(ctx, g.limiter, func(ctx context.Context) (domain.GenerateResult, error) {
		return g.inner.GenerateWithTools(ctx, prompt, tools)
	})
	g.observe(ctx, kindTools, start, err)
	if err != nil {
		return domain.GenerateResult{}, fmt.Errorf("generate with tools: %w", err)
	}
	return res, nil
}

// GenerateStream streams the answer. Backends without streaming yield the full text once.
// Breaking out of the loop cancels the backend call.
func (g *LimitedGenerator) GenerateStream(ctx context.Context, messages []domain.Message) iter.Seq2[string, error] {
	sg, ok := g.inner.(domain.StreamGenerator)
	if !ok {
		return func(yield func(string, error) bool) {
			text, err := g.Generate(ctx, messages)
			if err != nil {
				yield("", err)
				return
			}
			yield(text, nil)
		}
	}

	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		start := time.Now()
		chunks := make(chan string)
		errc := make(chan error, 1)

		go func() {
			_, err := g.limiter.Submit(ctx, func(ctx context.Context) (any, error) {
				for chunk, err := range sg.GenerateStream(ctx, messages) {
					if err != nil {
						return nil, err
					}
					select {
					case chunks <- chunk:
					case <-ctx.Done():
						return nil, ctx.Err()
					}
				}
				return nil, nil
			})
			errc <- err
		}()

		for {
			select {
			case chunk := <-chunks:
				if !yield(chunk, nil) {
					g.observe(ctx, kindStream, start, context.Canceled)
					return
				}
			case err := <-errc:
				// Sends are unbuffered, so every chunk was received before Submit returned.
				g.observe(ctx, kindStream, start, err)
				if err != nil {
					yield("", fmt.Errorf("generate stream: %w", err))
				}
				return
			}
		}
	}
}

func (g *LimitedGenerator) observe(ctx context.Context, kind string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, kind, status).Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model, kind).Observe(time.Since(start).Seconds())
	domain.UsageFromContext(ctx).AddGeneration()

	if err != nil {
		g.logger.Warn("Generation request failed",
			zap.String("provider", g.provider),
			zap.String("model", g.model),
			zap.String("kind", kind),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
}
