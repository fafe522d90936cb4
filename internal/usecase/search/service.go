package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/search/result"
	"github.com/kailas-cloud/campusagent/internal/logger"
)

// DefaultTopK is used when a query does not ask for a specific result count.
const DefaultTopK = 5

// MaxTopK caps the number of results a single query may request.
const MaxTopK = 100

// Service answers semantic queries over a user's indexed documents.
// Every query scans the whole partition; there is no ANN index.
type Service struct {
	docs  DocumentScanner
	embed Embedder
}

// New creates a search service.
func New(docs DocumentScanner, embed Embedder) *Service {
	return &Service{docs: docs, embed: embed}
}

// Query embeds text and ranks the user's documents against it.
func (s *Service) Query(ctx context.Context, userID, text string, topK int) ([]result.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidQuery)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	embResult, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	docs, err := s.docs.ScanAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	results, err := Rank(embResult.Embedding, docs, topK)
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}

	logger.FromContext(ctx).Debug("Semantic query ranked",
		zap.String("user_id", userID),
		zap.Int("scanned", len(docs)),
		zap.Int("returned", len(results)),
	)
	return results, nil
}
