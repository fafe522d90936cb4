package agent

import (
	"context"
	"iter"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/search/result"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
)

// --- Generator mock ---

type mockGenerator struct {
	withToolsFn func(ctx context.Context, prompt string, tools []domain.FunctionDeclaration) (domain.GenerateResult, error)
	generateFn  func(ctx context.Context, messages []domain.Message) (string, error)

	prompts   []string
	generated [][]domain.Message
}

func (m *mockGenerator) GenerateWithTools(
	ctx context.Context, prompt string, tools []domain.FunctionDeclaration,
) (domain.GenerateResult, error) {
	m.prompts = append(m.prompts, prompt)
	if m.withToolsFn != nil {
		return m.withToolsFn(ctx, prompt, tools)
	}
	return domain.GenerateResult{}, nil
}

func (m *mockGenerator) Generate(ctx context.Context, messages []domain.Message) (string, error) {
	m.generated = append(m.generated, messages)
	if m.generateFn != nil {
		return m.generateFn(ctx, messages)
	}
	return "ok", nil
}

// mockStreamGenerator adds a real stream to mockGenerator.
type mockStreamGenerator struct {
	mockGenerator
	chunks    []string
	streamErr error
	streamed  int
}

func (m *mockStreamGenerator) GenerateStream(_ context.Context, messages []domain.Message) iter.Seq2[string, error] {
	m.generated = append(m.generated, messages)
	return func(yield func(string, error) bool) {
		for _, c := range m.chunks {
			m.streamed++
			if !yield(c, nil) {
				return
			}
		}
		if m.streamErr != nil {
			yield("", m.streamErr)
		}
	}
}

// --- Dispatcher mock ---

type dispatchCall struct {
	userID string
	name   string
	params map[string]any
}

type mockDispatcher struct {
	calls []dispatchCall
	res   tool.Result
}

func (m *mockDispatcher) Dispatch(_ context.Context, userID, name string, params map[string]any) tool.Result {
	m.calls = append(m.calls, dispatchCall{userID: userID, name: name, params: params})
	return m.res
}

// --- Catalog mock ---

type mockCatalog struct{ decls []domain.FunctionDeclaration }

func (m mockCatalog) Declarations() []domain.FunctionDeclaration { return m.decls }

// --- Retriever mock ---

type mockRetriever struct {
	results []result.Result
	err     error
	queries []string
	topKs   []int
}

func (m *mockRetriever) Query(_ context.Context, _ string, text string, topK int) ([]result.Result, error) {
	m.queries = append(m.queries, text)
	m.topKs = append(m.topKs, topK)
	return m.results, m.err
}

func userTurn(text string) []domain.Message {
	return []domain.Message{{Role: domain.RoleUser, Content: text}}
}
