package index

import (
	"context"

	domdoc "github.com/kailas-cloud/campusagent/internal/domain/document"
)

// DocumentStore persists a user's documents.
type DocumentStore interface {
	PutMany(ctx context.Context, userID string, docs []domdoc.Document) error
	Count(ctx context.Context, userID string) (int, error)
}
