// Package campusagent embeds the student assistant in a Go program: a
// conversational agent over a user's indexed mail and course documents,
// with tool calling and rate-limited access to the model backends.
package campusagent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/campusagent/internal/app"
	"github.com/kailas-cloud/campusagent/internal/db"
	"github.com/kailas-cloud/campusagent/internal/db/memory"
	dbRedis "github.com/kailas-cloud/campusagent/internal/db/redis"
	"github.com/kailas-cloud/campusagent/internal/ratelimit"
	"github.com/kailas-cloud/campusagent/internal/usecase/agent"
	"github.com/kailas-cloud/campusagent/internal/usecase/mailsync"
	"github.com/kailas-cloud/campusagent/internal/usecase/triage"
)

const defaultReadinessTimeout = 10 * time.Second

// ErrSyncDisabled is returned by SyncMail when no ToolExecutor is configured.
var ErrSyncDisabled = errors.New("campusagent: mail sync requires a tool executor (use WithToolExecutor)")

type (
	// Analysis is the triage result for one email.
	Analysis = triage.Analysis
	// Summary is the digest of one email.
	Summary = triage.Summary
	// SyncReport summarizes one mailbox sync.
	SyncReport = mailsync.Report
)

// Client is the campusagent entry point.
type Client struct {
	store db.Store
	app   *app.App
}

// New creates a Client and connects to the database.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("campusagent: storage required (use WithValkey, WithRedis or WithMemoryStore)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("campusagent: embedder required (use WithEmbedder)")
	}
	if cfg.generator == nil {
		return nil, errors.New("campusagent: generator required (use WithGenerator)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("campusagent: database not ready: %w", err)
	}

	a, err := app.New(ctx, app.Backends{
		Store:     store,
		Embedder:  cfg.embedder,
		Generator: cfg.generator,
		Executor:  cfg.executor,
		Logger:    cfg.logger,
	}, settings(cfg))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("campusagent: %w", err)
	}

	return &Client{store: store, app: a}, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "memory":
		return memory.New(), nil
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("campusagent: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("campusagent: unknown driver %q", cfg.driver)
	}
}

func settings(cfg *clientConfig) app.Settings {
	limit := ratelimit.Config{
		RequestsPerWindow: cfg.requestsPerWindow,
		Window:            cfg.window,
	}
	gen, emb := limit, limit
	gen.Name, emb.Name = "generation", "embedding"

	return app.Settings{
		KeyPrefix:       cfg.keyPrefix,
		GenerationLimit: gen,
		EmbeddingLimit:  emb,
		Agent:           agent.Config{RetrievalTopK: cfg.retrievalTopK},
	}
}

// Close drains queued backend calls and releases the database connection.
func (c *Client) Close(ctx context.Context) error {
	err := c.app.Close(ctx)
	c.store.Close()
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// RunTurn answers the latest user message of conv. Failures are reported in
// the reply text, never as an error.
func (c *Client) RunTurn(ctx context.Context, userID string, conv []Message) Reply {
	return c.app.Agent.RunTurn(ctx, userID, conv)
}

// StreamTurn is RunTurn with the answer passed to emit chunk by chunk.
// A non-nil error from emit stops the stream.
func (c *Client) StreamTurn(ctx context.Context, userID string, conv []Message, emit func(chunk string) error) Reply {
	return c.app.Agent.StreamTurn(ctx, userID, conv, emit)
}

// IndexDocuments embeds and stores docs in the user's partition.
// Nothing is stored unless every document succeeds.
func (c *Client) IndexDocuments(ctx context.Context, userID string, docs []Document) (IndexReport, error) {
	report, err := c.app.Index.Index(ctx, userID, docs)
	if err != nil {
		return IndexReport{}, fmt.Errorf("index documents: %w", err)
	}
	return report, nil
}

// QueryIndex returns the topK documents most similar to text.
func (c *Client) QueryIndex(ctx context.Context, userID, text string, topK int) ([]Hit, error) {
	results, err := c.app.Search.Query(ctx, userID, text, topK)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	hits := make([]Hit, len(results))
	for i := range results {
		hits[i] = Hit{
			ID:         results[i].ID(),
			Similarity: results[i].Similarity(),
			Fields:     results[i].Fields(),
			Metadata:   results[i].Metadata(),
		}
	}
	return hits, nil
}

// Triage extracts deadlines and alerts from one email.
func (c *Client) Triage(ctx context.Context, subject, from, body string) Analysis {
	return c.app.Triage.Analyze(ctx, subject, from, body)
}

// Summarize digests one email into purpose, action items and key details.
func (c *Client) Summarize(ctx context.Context, subject, from, body string) (Summary, error) {
	s, err := c.app.Summary.Summarize(ctx, subject, from, body)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}
	return s, nil
}

// SyncMail pulls the user's new mail into the index.
func (c *Client) SyncMail(ctx context.Context, userID string) (SyncReport, error) {
	if c.app.Sync == nil {
		return SyncReport{}, ErrSyncDisabled
	}
	report, err := c.app.Sync.Sync(ctx, userID)
	if err != nil {
		return SyncReport{}, fmt.Errorf("sync mail: %w", err)
	}
	return report, nil
}

// Tools lists the registered tools.
func (c *Client) Tools() []Tool {
	return c.app.Registry.Definitions()
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
