// Package syncstate stores mail sync checkpoints as JSON values.
package syncstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/campusagent/internal/db"
	domsync "github.com/kailas-cloud/campusagent/internal/domain/syncstate"
)

// store is the consumer interface for sync state (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo reads and writes one checkpoint per user.
type Repo struct {
	store  store
	prefix string
}

// New creates a sync state repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Get returns the user's checkpoint. A user who never synced gets the zero State.
func (r *Repo) Get(ctx context.Context, userID string) (domsync.State, error) {
	data, err := r.store.Get(ctx, r.key(userID))
	if errors.Is(err, db.ErrKeyNotFound) {
		return domsync.State{}, nil
	}
	if err != nil {
		return domsync.State{}, fmt.Errorf("get sync state for %s: %w", userID, err)
	}

	var st domsync.State
	if err := json.Unmarshal(data, &st); err != nil {
		return domsync.State{}, fmt.Errorf("decode sync state for %s: %w", userID, err)
	}
	return st, nil
}

// Put replaces the user's checkpoint.
func (r *Repo) Put(ctx context.Context, userID string, st domsync.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode sync state: %w", err)
	}
	if err := r.store.Set(ctx, r.key(userID), data); err != nil {
		return fmt.Errorf("put sync state for %s: %w", userID, err)
	}
	return nil
}

func (r *Repo) key(userID string) string {
	return r.prefix + "user:" + userID + ":sync"
}
