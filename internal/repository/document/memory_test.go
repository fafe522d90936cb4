package document

import (
	"context"
	"slices"
	"testing"

	"github.com/kailas-cloud/campusagent/internal/db/memory"
	domdoc "github.com/kailas-cloud/campusagent/internal/domain/document"
)

func TestRepo_InMemoryStore(t *testing.T) {
	ctx := context.Background()
	repo := New(memory.New(), "campus:")

	first := testDocument(t, "msg-1")
	second := testDocument(t, "msg-2")
	if err := repo.PutMany(ctx, "alice", []domdoc.Document{first, second}); err != nil {
		t.Fatalf("PutMany: %v", err)
	}
	// Replacing keeps registry position and drops stale fields.
	base := testDocument(t, "msg-1")
	replaced := base.WithMetadata(map[string]string{"has_deadline": "true"})
	if err := repo.Put(ctx, "alice", replaced); err != nil {
		t.Fatalf("Put: %v", err)
	}

	docs, err := repo.ScanAll(ctx, "alice")
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID()
	}
	if !slices.Equal(ids, []string{"msg-1", "msg-2"}) {
		t.Fatalf("ids = %v", ids)
	}
	if docs[0].Metadata()["has_deadline"] != "true" {
		t.Errorf("replacement metadata lost: %v", docs[0].Metadata())
	}
	if !slices.Equal(docs[1].Vector(), testVector(8)) {
		t.Errorf("vector = %v", docs[1].Vector())
	}

	// Partitions are isolated.
	other, _ := repo.ScanAll(ctx, "bob")
	if len(other) != 0 {
		t.Errorf("bob sees %d documents", len(other))
	}

	if err := repo.Delete(ctx, "alice", "msg-2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := repo.Count(ctx, "alice"); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}
