package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/app"
	"github.com/kailas-cloud/campusagent/internal/config"
	"github.com/kailas-cloud/campusagent/internal/db"
	"github.com/kailas-cloud/campusagent/internal/db/memory"
	dbRedis "github.com/kailas-cloud/campusagent/internal/db/redis"
	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
	logpkg "github.com/kailas-cloud/campusagent/internal/logger"
	"github.com/kailas-cloud/campusagent/internal/ratelimit"
	chiTransport "github.com/kailas-cloud/campusagent/internal/transport/chi"
	"github.com/kailas-cloud/campusagent/internal/transport/composio"
	"github.com/kailas-cloud/campusagent/internal/transport/gemini"
	openaiTransport "github.com/kailas-cloud/campusagent/internal/transport/openai"
	"github.com/kailas-cloud/campusagent/internal/usecase/agent"
	"github.com/kailas-cloud/campusagent/internal/usecase/embedding"
	"github.com/kailas-cloud/campusagent/internal/usecase/mailsync"
	"github.com/kailas-cloud/campusagent/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting campusagent API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("generation_provider", cfg.Generation.Provider),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer store.Close()
	logger.Info("Connected to database")

	generator, err := buildGenerator(ctx, cfg.Generation, logger)
	if err != nil {
		logger.Fatal("Failed to create generator", zap.Error(err))
	}
	embedder, err := buildEmbedder(ctx, cfg.Embedding, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}

	var executor tool.Executor
	var connections chiTransport.ConnectionLister
	if cfg.Tools.APIKey != "" {
		exec := composio.New(composio.Config{
			BaseURL: cfg.Tools.BaseURL,
			APIKey:  cfg.Tools.APIKey,
			Timeout: time.Duration(cfg.Tools.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		executor, connections = exec, exec
	} else {
		logger.Warn("No tool executor configured, external tools and mail sync are disabled")
	}

	a, err := app.New(ctx, app.Backends{
		Store:     store,
		Embedder:  embedder,
		Generator: generator,
		Executor:  executor,
		Logger:    logger,
	}, settingsFromConfig(cfg))
	if err != nil {
		logger.Fatal("Failed to assemble services", zap.Error(err))
	}

	svc := chiTransport.Services{
		Agent:       a.Agent,
		Tools:       a.Registry,
		Index:       a.Index,
		Search:      a.Search,
		Triage:      a.Triage,
		Summarize:   a.Summary,
		Connections: connections,
		Health:      a.Health,
		Usage:       a.Usage,
	}
	// Assign only when set: a nil *mailsync.Service in the interface would register the routes.
	if a.Sync != nil {
		svc.Sync = a.Sync
	}

	throttle := chiTransport.NewThrottle(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	go throttle.Run(ctx)

	server := chiTransport.NewServer(svc, logger)
	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr: addr,
		Handler: server.Handler(chiTransport.Options{
			APIKeys:  cfg.Auth.APIKeys,
			Throttle: throttle,
		}),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Error("Error draining rate limiters", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// openStore creates the database store for the configured driver and waits until it answers.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error) {
	var store db.Store
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverValkey, config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}
	return store, nil
}

func buildGenerator(ctx context.Context, cfg config.GenerationConfig, logger *zap.Logger) (domain.Generator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Logger:      logger,
		}), nil
	default:
		return gemini.NewGenerator(ctx, &gemini.GeneratorConfig{
			ClientConfig: gemini.ClientConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL},
			Model:        cfg.Model,
			Temperature:  cfg.Temperature,
			Logger:       logger,
		})
	}
}

func buildEmbedder(ctx context.Context, cfg config.EmbeddingConfig, logger *zap.Logger) (domain.Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		}), nil
	default:
		return gemini.NewEmbedder(ctx, &gemini.EmbedderConfig{
			ClientConfig: gemini.ClientConfig{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL},
			Model:        cfg.Model,
			Dimensions:   cfg.Dimensions,
			Provider:     cfg.Provider,
			Logger:       logger,
		})
	}
}

func settingsFromConfig(cfg config.Config) app.Settings {
	return app.Settings{
		KeyPrefix: cfg.Storage.KeyPrefix,

		GenerationProvider: cfg.Generation.Provider,
		GenerationModel:    cfg.Generation.Model,
		GenerationLimit:    limiterConfig("generation", cfg.Generation.LimiterConfig),

		EmbeddingProvider: cfg.Embedding.Provider,
		EmbeddingModel:    cfg.Embedding.Model,
		Dimensions:        cfg.Embedding.Dimensions,
		EmbeddingLimit:    limiterConfig("embedding", cfg.Embedding.LimiterConfig),
		Cache:             cfg.Embedding.Cache,
		CacheTTL:          time.Duration(cfg.Embedding.CacheTTL) * time.Second,
		Budget: embedding.BudgetConfig{
			DailyLimit:   cfg.Embedding.Budget.DailyTokenLimit,
			MonthlyLimit: cfg.Embedding.Budget.MonthlyTokenLimit,
			Action:       embedding.BudgetAction(cfg.Embedding.Budget.Action),
		},

		Agent: agent.Config{
			SystemPrompt:      cfg.Agent.SystemPrompt,
			RetrievalKeywords: cfg.Agent.RetrievalKeywords,
			RetrievalTopK:     cfg.Agent.RetrievalTopK,
		},
		Sync: mailsync.Config{
			MaxEmails:       cfg.Sync.MaxEmails,
			InitialLookback: time.Duration(cfg.Sync.InitialLookbackDays) * 24 * time.Hour,
		},
	}
}

func limiterConfig(name string, l config.LimiterConfig) ratelimit.Config {
	return ratelimit.Config{
		Name:              name,
		RequestsPerWindow: l.RequestsPerWindow,
		Window:            l.Window(),
		MaxQueue:          l.MaxQueue,
	}
}
