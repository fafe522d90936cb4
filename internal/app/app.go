// Package app assembles the services from their backends. Both the HTTP server
// and the embeddable client are built here, so they share one wiring.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/db"
	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
	"github.com/kailas-cloud/campusagent/internal/metrics"
	"github.com/kailas-cloud/campusagent/internal/ratelimit"
	budgetrepo "github.com/kailas-cloud/campusagent/internal/repository/budget"
	docrepo "github.com/kailas-cloud/campusagent/internal/repository/document"
	"github.com/kailas-cloud/campusagent/internal/repository/embcache"
	syncrepo "github.com/kailas-cloud/campusagent/internal/repository/syncstate"
	"github.com/kailas-cloud/campusagent/internal/usecase/agent"
	"github.com/kailas-cloud/campusagent/internal/usecase/embedding"
	"github.com/kailas-cloud/campusagent/internal/usecase/generation"
	"github.com/kailas-cloud/campusagent/internal/usecase/health"
	"github.com/kailas-cloud/campusagent/internal/usecase/index"
	"github.com/kailas-cloud/campusagent/internal/usecase/mailsync"
	"github.com/kailas-cloud/campusagent/internal/usecase/search"
	"github.com/kailas-cloud/campusagent/internal/usecase/tools"
	"github.com/kailas-cloud/campusagent/internal/usecase/triage"
	"github.com/kailas-cloud/campusagent/internal/usecase/usage"
)

// Backends are the external collaborators. Store, Embedder and Generator are required.
type Backends struct {
	Store     db.Store
	Embedder  domain.Embedder
	Generator domain.Generator
	Executor  tool.Executor // nil disables external tools and mail sync
	Logger    *zap.Logger
}

// Settings tune the assembled services. Zero values fall back to package defaults.
type Settings struct {
	KeyPrefix string

	GenerationProvider string
	GenerationModel    string
	GenerationLimit    ratelimit.Config

	EmbeddingProvider string
	EmbeddingModel    string
	Dimensions        int
	EmbeddingLimit    ratelimit.Config
	Cache             bool
	CacheTTL          time.Duration
	Budget            embedding.BudgetConfig

	Agent agent.Config
	Sync  mailsync.Config
}

// App holds the assembled services.
type App struct {
	Embedder  domain.Embedder
	Generator *generation.LimitedGenerator
	Registry  *tools.Registry
	Router    *tools.Router
	Index     *index.Service
	Search    *search.Service
	Agent     *agent.Orchestrator
	Sync      *mailsync.Service // nil without an executor
	Triage    *triage.Analyzer
	Summary   *triage.Summarizer
	Health    *health.Service
	Usage     *usage.Service
	Budget    *embedding.BudgetTracker // nil without limits

	genLimiter *ratelimit.Limiter
	embLimiter *ratelimit.Limiter
	logger     *zap.Logger
}

// New wires every service. One limiter guards generation and one guards embedding;
// all callers of a backend share it.
func New(ctx context.Context, b Backends, s Settings) (*App, error) {
	if b.Store == nil || b.Embedder == nil || b.Generator == nil {
		return nil, errors.New("store, embedder and generator are required")
	}
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()

	genLimit := s.GenerationLimit
	if genLimit.Name == "" {
		genLimit.Name = "generation"
	}
	embLimit := s.EmbeddingLimit
	if embLimit.Name == "" {
		embLimit.Name = "embedding"
	}

	a := &App{
		genLimiter: ratelimit.New(genLimit, log),
		embLimiter: ratelimit.New(embLimit, log),
		logger:     log,
	}

	a.Budget = buildBudget(ctx, b.Store, s, log)
	a.Embedder = buildEmbedder(b.Embedder, b.Store, a.embLimiter, a.Budget, s, log)
	a.Generator = generation.NewLimitedGenerator(
		b.Generator, a.genLimiter, s.GenerationProvider, s.GenerationModel, log,
	)

	docs := docrepo.New(b.Store, s.KeyPrefix)
	a.Index = index.New(docs, a.Embedder, s.Dimensions)
	a.Search = search.New(docs, a.Embedder)

	a.Registry = tools.NewDefaultRegistry()
	a.Router = tools.NewRouter(a.Registry, b.Executor)
	if err := a.Router.Handle(tools.SemanticSearchTool, tools.SemanticSearchHandler(a.Search)); err != nil {
		return nil, fmt.Errorf("register semantic search: %w", err)
	}

	a.Agent = agent.New(a.Generator, a.Router, a.Registry, a.Search, s.Agent)
	a.Triage = triage.NewAnalyzer(a.Generator)
	a.Summary = triage.NewSummarizer(a.Generator)
	if b.Executor != nil {
		a.Sync = mailsync.New(b.Executor, a.Index, syncrepo.New(b.Store, s.KeyPrefix), s.Sync)
	}
	a.Usage = usage.New(usageReader(a.Budget))

	a.Health = health.New(b.Store)
	if hc, ok := b.Embedder.(domain.HealthChecker); ok {
		a.Health.With("embedding", hc)
	}
	if hc, ok := b.Generator.(domain.HealthChecker); ok {
		a.Health.With("generation", hc)
	}
	if hc, ok := b.Executor.(domain.HealthChecker); ok {
		a.Health.With("tools", hc)
	}

	return a, nil
}

// Close drains both limiters.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.genLimiter.Close(ctx), a.embLimiter.Close(ctx))
}

// buildBudget returns nil when no limit is configured.
func buildBudget(ctx context.Context, store db.Store, s Settings, log *zap.Logger) *embedding.BudgetTracker {
	cfg := s.Budget
	if cfg.DailyLimit <= 0 && cfg.MonthlyLimit <= 0 {
		return nil
	}
	if cfg.Provider == "" {
		cfg.Provider = s.EmbeddingProvider
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = s.KeyPrefix
	}
	if cfg.Action == "" {
		cfg.Action = embedding.BudgetActionWarn
	}
	return embedding.NewBudgetTracker(cfg, log).
		WithStore(ctx, budgetrepo.New(store, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
}

// buildEmbedder assembles the decorator chain: provider -> Limited -> Instrumented -> Cached.
// Cache hits never wait in the limiter queue and never consume budget.
func buildEmbedder(
	base domain.Embedder,
	store db.Store,
	limiter *ratelimit.Limiter,
	budget *embedding.BudgetTracker,
	s Settings,
	log *zap.Logger,
) domain.Embedder {
	var embedder domain.Embedder = embedding.NewLimitedEmbedder(base, limiter)

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var checker embedding.BudgetChecker
	if budget != nil {
		checker = budget
	}
	embedder = embedding.NewInstrumentedEmbedder(embedder, s.EmbeddingProvider, s.EmbeddingModel, checker, log)

	if s.Cache {
		embedder = embcache.New(embedder, store, embcache.Options{
			KeyPrefix: s.KeyPrefix,
			Model:     s.EmbeddingModel,
			TTL:       s.CacheTTL,
		}, metrics.EmbeddingCacheTotal, log)
	}
	return embedder
}

func usageReader(b *embedding.BudgetTracker) usage.BudgetReader {
	if b == nil {
		return nil
	}
	return b
}
