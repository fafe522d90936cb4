package search

import (
	"context"

	"github.com/kailas-cloud/campusagent/internal/domain"
	domdoc "github.com/kailas-cloud/campusagent/internal/domain/document"
)

// DocumentScanner reads a user's whole partition of the index.
type DocumentScanner interface {
	ScanAll(ctx context.Context, userID string) ([]domdoc.Document, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
