package chi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/chat"
	"github.com/kailas-cloud/campusagent/internal/domain/search/result"
	"github.com/kailas-cloud/campusagent/internal/domain/syncstate"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
	"github.com/kailas-cloud/campusagent/internal/transport/composio"
	healthuc "github.com/kailas-cloud/campusagent/internal/usecase/health"
	"github.com/kailas-cloud/campusagent/internal/usecase/index"
	"github.com/kailas-cloud/campusagent/internal/usecase/mailsync"
	"github.com/kailas-cloud/campusagent/internal/usecase/triage"
	usageuc "github.com/kailas-cloud/campusagent/internal/usecase/usage"
)

// --- Mocks ---

type mockAgent struct {
	runFn    func(ctx context.Context, userID string, conv []domain.Message) chat.Reply
	streamFn func(ctx context.Context, userID string, conv []domain.Message, emit func(string) error) chat.Reply
}

func (m *mockAgent) RunTurn(ctx context.Context, userID string, conv []domain.Message) chat.Reply {
	return m.runFn(ctx, userID, conv)
}

func (m *mockAgent) StreamTurn(
	ctx context.Context, userID string, conv []domain.Message, emit func(string) error,
) chat.Reply {
	return m.streamFn(ctx, userID, conv, emit)
}

type mockTools struct {
	defs []tool.Definition
}

func (m *mockTools) Definitions() []tool.Definition { return m.defs }

type mockIndexer struct {
	indexFn func(ctx context.Context, userID string, inputs []index.Input) (index.Report, error)
	statsFn func(ctx context.Context, userID string) (index.Stats, error)
}

func (m *mockIndexer) Index(ctx context.Context, userID string, inputs []index.Input) (index.Report, error) {
	return m.indexFn(ctx, userID, inputs)
}

func (m *mockIndexer) Stats(ctx context.Context, userID string) (index.Stats, error) {
	return m.statsFn(ctx, userID)
}

type mockSearcher struct {
	queryFn func(ctx context.Context, userID, text string, topK int) ([]result.Result, error)
}

func (m *mockSearcher) Query(ctx context.Context, userID, text string, topK int) ([]result.Result, error) {
	return m.queryFn(ctx, userID, text, topK)
}

type mockSyncer struct {
	syncFn   func(ctx context.Context, userID string) (mailsync.Report, error)
	statusFn func(ctx context.Context, userID string) (syncstate.State, error)
}

func (m *mockSyncer) Sync(ctx context.Context, userID string) (mailsync.Report, error) {
	return m.syncFn(ctx, userID)
}

func (m *mockSyncer) Status(ctx context.Context, userID string) (syncstate.State, error) {
	return m.statusFn(ctx, userID)
}

type mockTriager struct {
	analyzeFn func(ctx context.Context, subject, sender, body string) triage.Analysis
}

func (m *mockTriager) Analyze(ctx context.Context, subject, sender, body string) triage.Analysis {
	return m.analyzeFn(ctx, subject, sender, body)
}

type mockSummarizer struct {
	summarizeFn func(ctx context.Context, subject, sender, body string) (triage.Summary, error)
}

func (m *mockSummarizer) Summarize(ctx context.Context, subject, sender, body string) (triage.Summary, error) {
	return m.summarizeFn(ctx, subject, sender, body)
}

type mockConnections struct {
	conns []composio.Connection
	err   error
}

func (m *mockConnections) Connections(context.Context, string) ([]composio.Connection, error) {
	return m.conns, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type mockUsage struct {
	period usageuc.Period
}

func (m *mockUsage) GetReport(_ context.Context, period usageuc.Period) usageuc.Report {
	m.period = period
	return usageuc.Report{Period: period, TokensUsed: 42}
}

// --- Helpers ---

func newTestHandler(svc Services) http.Handler {
	return NewServer(svc, zap.NewNop()).Handler(Options{})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader = http.NoBody
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
