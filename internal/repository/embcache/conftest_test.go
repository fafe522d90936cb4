package embcache

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/campusagent/internal/db"
	"github.com/kailas-cloud/campusagent/internal/domain"
)

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	calls   int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 4}, nil
}

// mockBatchEmbedder records the texts of every batch call.
type mockBatchEmbedder struct {
	mockEmbedder
	batches [][]string
	batchFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batches = append(m.batches, texts)
	if m.batchFn != nil {
		return m.batchFn(ctx, texts)
	}
	out := domain.BatchEmbeddingResult{TotalTokens: 3 * len(texts), PromptTokens: 3 * len(texts)}
	for i := range texts {
		out.Embeddings = append(out.Embeddings, []float32{float32(i + 1), 0})
	}
	return out, nil
}

type setCall struct {
	key string
	ttl time.Duration
}

// mockKVStore is a map-backed store that records writes.
type mockKVStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	sets   []setCall
	getErr error
	setErr error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte)}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append(m.sets, setCall{key: key, ttl: ttl})
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}
