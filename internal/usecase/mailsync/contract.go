package mailsync

import (
	"context"

	domsync "github.com/kailas-cloud/campusagent/internal/domain/syncstate"
	"github.com/kailas-cloud/campusagent/internal/usecase/index"
)

// Indexer embeds and stores a batch of documents.
type Indexer interface {
	Index(ctx context.Context, userID string, inputs []index.Input) (index.Report, error)
}

// StateStore keeps the per-user sync checkpoint.
type StateStore interface {
	Get(ctx context.Context, userID string) (domsync.State, error)
	Put(ctx context.Context, userID string, st domsync.State) error
}
