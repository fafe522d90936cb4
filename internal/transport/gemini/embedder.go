package gemini

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/metrics"
)

// DefaultEmbeddingModel is used when the configuration names none.
const DefaultEmbeddingModel = "text-embedding-004"

// maxBatch is the API's limit of contents per batch request.
const maxBatch = 100

// EmbedderConfig holds the embedding settings.
type EmbedderConfig struct {
	ClientConfig
	Model      string
	Dimensions int
	Provider   string
	Logger     *zap.Logger
}

// Embedder is a Gemini embedding provider. The API reports no token usage.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
	provider   string
	logger     *zap.Logger
}

// NewEmbedder creates a Gemini embedder.
func NewEmbedder(ctx context.Context, cfg *EmbedderConfig) (*Embedder, error) {
	client, err := newClient(ctx, cfg.ClientConfig)
	if err != nil {
		return nil, err
	}
	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "gemini"
	}
	return &Embedder{client: client, model: model, dimensions: cfg.Dimensions, provider: provider, logger: orNop(cfg.Logger)}, nil
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	vecs, err := e.embed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: vecs[0]}, nil
}

// BatchEmbed implements domain.BatchEmbedder, splitting at the API batch limit.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}
	for start := 0; start < len(texts); start += maxBatch {
		end := min(start+maxBatch, len(texts))
		vecs, err := e.embed(ctx, texts[start:end])
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch [%d:%d]: %w", start, end, err)
		}
		out.Embeddings = append(out.Embeddings, vecs...)
	}
	return out, nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	config := &genai.EmbedContentConfig{}
	if e.dimensions > 0 {
		config.OutputDimensionality = genai.Ptr(int32(e.dimensions))
	}

	start := time.Now()
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, config)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, e.model, "api_error").Inc()
		return nil, wrapAPIError("embedding", err, domain.ErrEmbeddingProviderError)
	}
	if len(resp.Embeddings) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, e.model, "bad_response").Inc()
		return nil, fmt.Errorf("got %d embeddings for %d inputs: %w",
			len(resp.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, e.model).Observe(duration.Seconds())

	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("empty embedding [%d]: %w", i, domain.ErrEmbeddingProviderError)
		}
		out[i] = emb.Values
	}
	return out, nil
}

// HealthCheck lists one model to verify the key and endpoint.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1}); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
