package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	calls []string
	err   error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.calls = append(s.calls, text)
	if s.err != nil {
		return EmbeddingResult{}, s.err
	}
	return EmbeddingResult{Embedding: []float32{float32(len(text))}, PromptTokens: 1, TotalTokens: 2}, nil
}

type stubBatchEmbedder struct {
	stubEmbedder
	batchCalls int
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batchCalls++
	out := BatchEmbeddingResult{}
	for _, t := range texts {
		out.Embeddings = append(out.Embeddings, []float32{float32(len(t))})
	}
	return out, nil
}

func TestBatchFallback_PreservesOrderAndSumsTokens(t *testing.T) {
	inner := &stubEmbedder{}

	res, err := BatchFallback(context.Background(), inner, []string{"a", "bbb", "cc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(inner.calls))
	}
	want := []float32{1, 3, 2}
	for i, w := range want {
		if res.Embeddings[i][0] != w {
			t.Errorf("embedding[%d] = %v, want %v", i, res.Embeddings[i][0], w)
		}
	}
	if res.PromptTokens != 3 || res.TotalTokens != 6 {
		t.Errorf("tokens = %d/%d, want 3/6", res.PromptTokens, res.TotalTokens)
	}
}

func TestBatchFallback_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	inner := &stubEmbedder{err: innerErr}

	_, err := BatchFallback(context.Background(), inner, []string{"a"})
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestEmbedMany_PrefersNativeBatch(t *testing.T) {
	inner := &stubBatchEmbedder{}

	if _, err := EmbedMany(context.Background(), inner, []string{"a", "b"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected 1 batch call, got %d", inner.batchCalls)
	}
	if len(inner.calls) != 0 {
		t.Errorf("expected no single calls, got %d", len(inner.calls))
	}
}

func TestBatchEmbeddingResult_Dimensions(t *testing.T) {
	ok := BatchEmbeddingResult{Embeddings: [][]float32{{1, 2}, {3, 4}}}
	if d, err := ok.Dimensions(); err != nil || d != 2 {
		t.Errorf("Dimensions() = %d, %v", d, err)
	}

	ragged := BatchEmbeddingResult{Embeddings: [][]float32{{1, 2}, {3}}}
	if _, err := ragged.Dimensions(); !errors.Is(err, ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestUsage_NilSafe(t *testing.T) {
	var u *Usage
	u.AddTokens(10)
	u.AddGeneration()
	if u.EmbeddingTokens() != 0 || u.Generations() != 0 {
		t.Error("nil usage should report zero")
	}

	ctx, usage := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddTokens(7)
	UsageFromContext(ctx).AddGeneration()
	if usage.EmbeddingTokens() != 7 || usage.Generations() != 1 {
		t.Errorf("usage = %d tokens, %d generations", usage.EmbeddingTokens(), usage.Generations())
	}
}
