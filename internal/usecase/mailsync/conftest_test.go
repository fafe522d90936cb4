package mailsync

import (
	"context"

	domsync "github.com/kailas-cloud/campusagent/internal/domain/syncstate"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
	"github.com/kailas-cloud/campusagent/internal/usecase/index"
)

// --- Executor mock ---

type executeCall struct {
	userID   string
	actionID string
	params   map[string]any
}

type mockExecutor struct {
	calls []executeCall
	res   tool.Result
	err   error
}

func (m *mockExecutor) Execute(_ context.Context, userID, actionID string, params map[string]any) (tool.Result, error) {
	m.calls = append(m.calls, executeCall{userID: userID, actionID: actionID, params: params})
	return m.res, m.err
}

// --- Indexer mock ---

type mockIndexer struct {
	batches [][]index.Input
	indexFn func(inputs []index.Input) (index.Report, error)
}

func (m *mockIndexer) Index(_ context.Context, _ string, inputs []index.Input) (index.Report, error) {
	m.batches = append(m.batches, inputs)
	if m.indexFn != nil {
		return m.indexFn(inputs)
	}
	return index.Report{Indexed: len(inputs)}, nil
}

// --- StateStore mock ---

type mockStateStore struct {
	getFn func(ctx context.Context, userID string) (domsync.State, error)
	putFn func(ctx context.Context, userID string, st domsync.State) error
}

func (m *mockStateStore) Get(ctx context.Context, userID string) (domsync.State, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return domsync.State{}, nil
}

func (m *mockStateStore) Put(ctx context.Context, userID string, st domsync.State) error {
	if m.putFn != nil {
		return m.putFn(ctx, userID, st)
	}
	return nil
}
