package document

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/campusagent/internal/db"
	"github.com/kailas-cloud/campusagent/internal/domain"
	domdoc "github.com/kailas-cloud/campusagent/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	SCard(ctx context.Context, key string) (int64, error)
}

// Repo stores each user's documents as hashes, with a per-user set of IDs as the partition registry.
type Repo struct {
	store  store
	prefix string
}

// New creates a document repository. Keys are namespaced with keyPrefix.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Get returns one document.
func (r *Repo) Get(ctx context.Context, userID, id string) (domdoc.Document, error) {
	key := r.docKey(userID, id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domdoc.Document{}, domain.ErrDocumentNotFound
	}
	return parseHashFields(id, m), nil
}

// Put stores one document, replacing any previous version.
func (r *Repo) Put(ctx context.Context, userID string, doc domdoc.Document) error {
	return r.PutMany(ctx, userID, []domdoc.Document{doc})
}

// PutMany stores documents with one pipelined write, then registers their IDs.
func (r *Repo) PutMany(ctx context.Context, userID string, docs []domdoc.Document) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, len(docs))
	ids := make([]string, len(docs))
	for i := range docs {
		items[i] = db.HashSetItem{Key: r.docKey(userID, docs[i].ID()), Fields: buildHashFields(&docs[i])}
		ids[i] = docs[i].ID()
	}

	// Replace semantics: stale fields from a previous version must not survive HSET.
	keys := make([]string, len(items))
	for i := range items {
		keys[i] = items[i].Key
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("clear documents for %s: %w", userID, err)
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("store documents for %s: %w", userID, err)
	}
	if err := r.store.SAdd(ctx, r.registryKey(userID), ids...); err != nil {
		return fmt.Errorf("register documents for %s: %w", userID, err)
	}
	return nil
}

// ScanAll loads every document of the user. Registry entries whose hash
// has disappeared are skipped.
func (r *Repo) ScanAll(ctx context.Context, userID string) ([]domdoc.Document, error) {
	ids, err := r.store.SMembers(ctx, r.registryKey(userID))
	if err != nil {
		return nil, fmt.Errorf("list documents for %s: %w", userID, err)
	}
	if len(ids) == 0 {
		return []domdoc.Document{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(userID, id)
	}
	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load documents for %s: %w", userID, err)
	}

	docs := make([]domdoc.Document, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		docs = append(docs, parseHashFields(ids[i], m))
	}
	return docs, nil
}

// Count returns the number of registered documents of the user.
func (r *Repo) Count(ctx context.Context, userID string) (int, error) {
	n, err := r.store.SCard(ctx, r.registryKey(userID))
	if err != nil {
		return 0, fmt.Errorf("count documents for %s: %w", userID, err)
	}
	return int(n), nil
}

// Delete removes one document.
func (r *Repo) Delete(ctx context.Context, userID, id string) error {
	if err := r.store.Del(ctx, r.docKey(userID, id)); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, r.registryKey(userID), id); err != nil {
		return fmt.Errorf("unregister document %s: %w", id, err)
	}
	return nil
}

func (r *Repo) docKey(userID, id string) string {
	return fmt.Sprintf("%suser:%s:doc:%s", r.prefix, userID, id)
}

func (r *Repo) registryKey(userID string) string {
	return fmt.Sprintf("%suser:%s:docs", r.prefix, userID)
}
