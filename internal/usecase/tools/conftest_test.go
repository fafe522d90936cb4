package tools

import (
	"context"

	"github.com/kailas-cloud/campusagent/internal/domain/search/result"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
)

type executeCall struct {
	userID   string
	actionID string
	params   map[string]any
}

// mockExecutor records calls and answers through executeFn.
type mockExecutor struct {
	calls     []executeCall
	executeFn func(ctx context.Context, userID, actionID string, params map[string]any) (tool.Result, error)
}

func (m *mockExecutor) Execute(ctx context.Context, userID, actionID string, params map[string]any) (tool.Result, error) {
	m.calls = append(m.calls, executeCall{userID: userID, actionID: actionID, params: params})
	if m.executeFn != nil {
		return m.executeFn(ctx, userID, actionID, params)
	}
	return tool.OK(map[string]any{"ok": true}), nil
}

type mockQuerier struct {
	queryFn func(ctx context.Context, userID, text string, topK int) ([]result.Result, error)
	gotTopK int
}

func (m *mockQuerier) Query(ctx context.Context, userID, text string, topK int) ([]result.Result, error) {
	m.gotTopK = topK
	if m.queryFn != nil {
		return m.queryFn(ctx, userID, text, topK)
	}
	return nil, nil
}
