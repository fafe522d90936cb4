// Package memory is an in-process db.Store for single-node deployments and tests.
// Sets keep insertion order, so registry scans are deterministic.
package memory

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/kailas-cloud/campusagent/internal/db"
)

type entry struct {
	value    []byte
	expireAt time.Time // zero means no expiry
}

type orderedSet struct {
	order   []string
	members map[string]struct{}
}

// Store keeps hashes, sets and plain values in maps guarded by one mutex.
type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	hashes map[string]map[string]string
	sets   map[string]*orderedSet
	values map[string]entry
}

// New creates an empty store.
func New() *Store {
	return &Store{
		now:    time.Now,
		hashes: make(map[string]map[string]string),
		sets:   make(map[string]*orderedSet),
		values: make(map[string]entry),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// HSetMulti merges fields into each hash.
func (s *Store) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		h, ok := s.hashes[item.Key]
		if !ok {
			h = make(map[string]string, len(item.Fields))
			s.hashes[item.Key] = h
		}
		maps.Copy(h, item.Fields)
	}
	return nil
}

// HGetAll returns a copy of the hash, or an empty map for a missing key.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.hashOrEmpty(key)), nil
}

// HGetAllMulti returns copies of the hashes in key order.
func (s *Store) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = maps.Clone(s.hashOrEmpty(k))
	}
	return out, nil
}

func (s *Store) hashOrEmpty(key string) map[string]string {
	if h, ok := s.hashes[key]; ok {
		return h
	}
	return map[string]string{}
}

// Del removes keys of any type.
func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.hashes, k)
		delete(s.sets, k)
		delete(s.values, k)
	}
	return nil
}

// SAdd adds members that are not present yet.
func (s *Store) SAdd(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = &orderedSet{members: make(map[string]struct{})}
		s.sets[key] = set
	}
	for _, m := range members {
		if _, dup := set.members[m]; dup {
			continue
		}
		set.members[m] = struct{}{}
		set.order = append(set.order, m)
	}
	return nil
}

// SRem removes members.
func (s *Store) SRem(_ context.Context, key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(set.members, m)
	}
	set.order = slices.DeleteFunc(set.order, func(m string) bool {
		_, keep := set.members[m]
		return !keep
	})
	if len(set.order) == 0 {
		delete(s.sets, key)
	}
	return nil
}

// SMembers returns members in insertion order.
func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.sets[key]; ok {
		return slices.Clone(set.order), nil
	}
	return []string{}, nil
}

// SCard returns the set size.
func (s *Store) SCard(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set, ok := s.sets[key]; ok {
		return int64(len(set.order)), nil
	}
	return 0, nil
}

// Get returns a value or db.ErrKeyNotFound.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return slices.Clone(e.value), nil
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value. A non-positive ttl means no expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: slices.Clone(value)}
	if ttl > 0 {
		e.expireAt = s.now().Add(ttl)
	}
	s.values[key] = e
	return nil
}

// IncrBy increments an integer value, creating it at zero. The TTL is kept.
func (s *Store) IncrBy(_ context.Context, key string, val int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, _ := s.live(key)
	var cur int64
	if len(e.value) > 0 {
		n, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return &db.Error{Op: db.OpIncrBy, Err: err}
		}
		cur = n
	}
	e.value = []byte(strconv.FormatInt(cur+val, 10))
	s.values[key] = e
	return nil
}

// Expire sets a TTL on an existing value. With nx an existing TTL is kept.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok {
		return nil
	}
	if nx && !e.expireAt.IsZero() {
		return nil
	}
	e.expireAt = s.now().Add(ttl)
	s.values[key] = e
	return nil
}

// live returns an unexpired value, evicting it lazily otherwise. Caller holds mu.
func (s *Store) live(key string) (entry, bool) {
	e, ok := s.values[key]
	if !ok {
		return entry{}, false
	}
	if !e.expireAt.IsZero() && !s.now().Before(e.expireAt) {
		delete(s.values, key)
		return entry{}, false
	}
	return e, true
}

var _ db.Store = (*Store)(nil)
