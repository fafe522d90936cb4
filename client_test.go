package campusagent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	vec := []float32{0, 1}
	if strings.Contains(strings.ToLower(text), "essay") {
		vec = []float32{1, 0}
	}
	return EmbeddingResult{Embedding: vec, PromptTokens: 3, TotalTokens: 3}, nil
}

type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, messages []Message) (string, error) {
	last := messages[len(messages)-1]
	return "echo: " + last.Content, nil
}

func (echoGenerator) GenerateWithTools(context.Context, string, []FunctionDeclaration) (GenerateResult, error) {
	return GenerateResult{Text: "no tool"}, nil
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithMemoryStore(),
		WithEmbedder(keywordEmbedder{}),
		WithGenerator(echoGenerator{}),
		WithRateLimit(1000, time.Second),
	}
	c, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Close(ctx); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return c
}

func TestNew_MissingOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"no storage", []Option{WithEmbedder(keywordEmbedder{}), WithGenerator(echoGenerator{})}},
		{"no embedder", []Option{WithMemoryStore(), WithGenerator(echoGenerator{})}},
		{"no generator", []Option{WithMemoryStore(), WithEmbedder(keywordEmbedder{})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCreateStore_UnknownDriver(t *testing.T) {
	_, err := createStore(&clientConfig{driver: "unknown", addrs: []string{"localhost:1234"}})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestCreateStore_RedisNeedsAddress(t *testing.T) {
	if _, err := createStore(&clientConfig{driver: "redis"}); err == nil {
		t.Fatal("expected error without address")
	}
}

func TestClient_IndexAndQuery(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	report, err := c.IndexDocuments(ctx, "alice", []Document{
		{ID: "d1", Fields: map[string]string{"subject": "Essay feedback", "body": "Your essay draft looks good."}},
		{ID: "d2", Fields: map[string]string{"subject": "Gym hours", "body": "Open late on Friday."}},
	})
	if err != nil {
		t.Fatalf("IndexDocuments: %v", err)
	}
	if report.Indexed != 2 {
		t.Errorf("indexed = %d, want 2", report.Indexed)
	}

	hits, err := c.QueryIndex(ctx, "alice", "essay", 1)
	if err != nil {
		t.Fatalf("QueryIndex: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "d1" {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if hits[0].Fields["subject"] != "Essay feedback" {
		t.Errorf("fields not carried: %+v", hits[0].Fields)
	}

	other, err := c.QueryIndex(ctx, "bob", "essay", 1)
	if err != nil {
		t.Fatalf("QueryIndex: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("partitions leaked: %+v", other)
	}
}

func TestClient_RunTurn(t *testing.T) {
	c := newTestClient(t)

	reply := c.RunTurn(context.Background(), "alice", []Message{{Role: RoleUser, Content: "hello"}})

	if reply.Text != "echo: hello" {
		t.Errorf("text = %q", reply.Text)
	}
	if reply.RetrievalUsed || len(reply.ToolCalls) != 0 {
		t.Errorf("unexpected reply: %+v", reply)
	}
}

func TestClient_Summarize(t *testing.T) {
	c := newTestClient(t)

	s, err := c.Summarize(context.Background(), "CS-101 midterm", "prof@uni.edu", "Submit the form by Friday")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !strings.HasPrefix(s.Text, "echo: ") || !strings.Contains(s.Text, "Subject: CS-101 midterm") {
		t.Errorf("Text = %q", s.Text)
	}
	if s.Purpose == "" {
		t.Error("purpose section not parsed")
	}

	if _, err := c.Summarize(context.Background(), "", "prof@uni.edu", ""); !errors.Is(err, ErrInvalidDocument) {
		t.Errorf("empty mail: err = %v", err)
	}
}

func TestClient_StreamTurn(t *testing.T) {
	c := newTestClient(t)

	var chunks []string
	reply := c.StreamTurn(context.Background(), "alice", []Message{{Role: RoleUser, Content: "hi"}},
		func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		})

	if strings.Join(chunks, "") != reply.Text || reply.Text != "echo: hi" {
		t.Errorf("chunks %q, reply %q", chunks, reply.Text)
	}
}

func TestClient_EmptyConversationIsAReply(t *testing.T) {
	c := newTestClient(t)

	reply := c.RunTurn(context.Background(), "alice", nil)
	if reply.Text == "" {
		t.Error("expected an apology reply")
	}
}

func TestClient_SyncDisabledWithoutExecutor(t *testing.T) {
	c := newTestClient(t)

	if _, err := c.SyncMail(context.Background(), "alice"); !errors.Is(err, ErrSyncDisabled) {
		t.Errorf("err = %v, want ErrSyncDisabled", err)
	}
}

func TestClient_Tools(t *testing.T) {
	c := newTestClient(t)

	found := false
	for _, tl := range c.Tools() {
		if tl.Name == "search_gmail_semantic" {
			found = true
		}
	}
	if !found {
		t.Error("semantic search tool missing")
	}
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
