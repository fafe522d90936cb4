package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/campusagent/internal/db/memory"
	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/chat"
	domdoc "github.com/kailas-cloud/campusagent/internal/domain/document"
	"github.com/kailas-cloud/campusagent/internal/ratelimit"
	"github.com/kailas-cloud/campusagent/internal/usecase/embedding"
	"github.com/kailas-cloud/campusagent/internal/usecase/health"
	"github.com/kailas-cloud/campusagent/internal/usecase/index"
	"github.com/kailas-cloud/campusagent/internal/usecase/tools"
	"github.com/kailas-cloud/campusagent/internal/usecase/usage"
)

// topicEmbedder maps text mentioning "midterm" to one axis and everything else to another.
type topicEmbedder struct {
	calls int
}

func (e *topicEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.calls++
	vec := []float32{0, 1}
	if strings.Contains(strings.ToLower(text), "midterm") {
		vec = []float32{1, 0}
	}
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: 5, TotalTokens: 5}, nil
}

// scriptedGenerator calls the semantic search tool when asked to, otherwise answers
// with the last system message it was given.
type scriptedGenerator struct{}

func (scriptedGenerator) Generate(_ context.Context, messages []domain.Message) (string, error) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleSystem {
			return messages[i].Content, nil
		}
	}
	return "plain answer", nil
}

func (scriptedGenerator) GenerateWithTools(
	_ context.Context, prompt string, _ []domain.FunctionDeclaration,
) (domain.GenerateResult, error) {
	if strings.Contains(prompt, "use the tool") {
		return domain.GenerateResult{Call: &domain.FunctionCall{
			Name: tools.SemanticSearchTool,
			Args: map[string]any{"query": "midterm", "topK": float64(1)},
		}}, nil
	}
	return domain.GenerateResult{Text: "no tool"}, nil
}

func newTestApp(t *testing.T, emb domain.Embedder) *App {
	t.Helper()
	fast := ratelimit.Config{RequestsPerWindow: 1000, Window: time.Second}
	a, err := New(context.Background(), Backends{
		Store:     memory.New(),
		Embedder:  emb,
		Generator: scriptedGenerator{},
	}, Settings{
		KeyPrefix:         "campus:",
		EmbeddingProvider: "test",
		EmbeddingModel:    "topic",
		Dimensions:        2,
		GenerationLimit:   fast,
		EmbeddingLimit:    fast,
		Cache:             true,
		Budget:            embedding.BudgetConfig{DailyLimit: 1000, Action: embedding.BudgetActionReject},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(ctx); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return a
}

func indexMail(t *testing.T, a *App) {
	t.Helper()
	_, err := a.Index.Index(context.Background(), "student", []index.Input{
		{ID: "m1", Fields: map[string]string{
			domdoc.FieldSubject: "CS-101 midterm moved", domdoc.FieldFrom: "prof@uni.edu",
			domdoc.FieldBody: "The midterm is now on Friday.",
		}},
		{ID: "m2", Fields: map[string]string{
			domdoc.FieldSubject: "Club social", domdoc.FieldFrom: "club@uni.edu",
			domdoc.FieldBody: "Pizza night on Thursday.",
		}},
	})
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
}

func userTurn(text string) []domain.Message {
	return []domain.Message{{Role: domain.RoleUser, Content: text}}
}

func TestNew_RequiresBackends(t *testing.T) {
	if _, err := New(context.Background(), Backends{Store: memory.New()}, Settings{}); err == nil {
		t.Fatal("expected error without embedder and generator")
	}
}

func TestApp_RetrievalTurn(t *testing.T) {
	a := newTestApp(t, &topicEmbedder{})
	indexMail(t, a)

	reply := a.Agent.RunTurn(context.Background(), "student", userTurn("find emails about the midterm"))

	if reply.Path != chat.PathRetrieval || !reply.RetrievalUsed {
		t.Fatalf("path = %s, retrieval = %v, text %q", reply.Path, reply.RetrievalUsed, reply.Text)
	}
	if !strings.Contains(reply.Text, "CS-101 midterm moved") {
		t.Errorf("reply should carry the midterm mail: %q", reply.Text)
	}
}

func TestApp_InternalToolTurn(t *testing.T) {
	a := newTestApp(t, &topicEmbedder{})
	indexMail(t, a)

	reply := a.Agent.RunTurn(context.Background(), "student", userTurn("please use the tool"))

	if reply.Path != chat.PathTool || len(reply.ToolCalls) != 1 {
		t.Fatalf("path = %s, calls = %+v", reply.Path, reply.ToolCalls)
	}
	call := reply.ToolCalls[0]
	if call.Tool != tools.SemanticSearchTool || !call.Result.Success {
		t.Fatalf("unexpected tool call: %+v", call)
	}
	hits, ok := call.Result.Data.([]tools.EmailHit)
	if !ok || len(hits) != 1 || hits[0].ID != "m1" {
		t.Errorf("unexpected hits: %#v", call.Result.Data)
	}
}

func TestApp_ExternalToolWithoutExecutorFails(t *testing.T) {
	a := newTestApp(t, &topicEmbedder{})

	res := a.Router.Dispatch(context.Background(), "student", "send_gmail", map[string]any{"to": "x@y.z"})

	if res.Success || !strings.Contains(res.Error, "no executor") {
		t.Errorf("unexpected result: %+v", res)
	}
	if a.Sync != nil {
		t.Error("mail sync needs an executor")
	}
}

func TestApp_CacheSkipsProviderAndBudget(t *testing.T) {
	emb := &topicEmbedder{}
	a := newTestApp(t, emb)
	ctx := context.Background()

	for range 2 {
		if _, err := a.Search.Query(ctx, "student", "midterm", 1); err != nil {
			t.Fatalf("Query: %v", err)
		}
	}

	if emb.calls != 1 {
		t.Errorf("provider calls = %d, want 1", emb.calls)
	}
	report := a.Usage.GetReport(ctx, usage.PeriodDay)
	if report.TokensUsed != 5 || report.TokensLimit != 1000 {
		t.Errorf("unexpected usage: %+v", report)
	}
}

func TestApp_Health(t *testing.T) {
	a := newTestApp(t, &topicEmbedder{})

	report := a.Health.Check(context.Background())
	if report.Status != health.Healthy {
		t.Errorf("status = %s, checks %v", report.Status, report.Checks)
	}
	if _, ok := report.Checks["database"]; !ok {
		t.Errorf("database probe missing: %v", report.Checks)
	}
}
