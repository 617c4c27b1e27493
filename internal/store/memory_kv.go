package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type kvEntry struct {
	value     []byte
	expiresAt time.Time
	seq       uint64
}

func (e kvEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryKV is a process-local keyed store. Scan returns keys in the order they
// were first written. Expired entries are hidden immediately and dropped by
// Sweep or on the next access.
type MemoryKV struct {
	mu      sync.Mutex
	entries map[string]kvEntry
	seq     uint64
	now     func() time.Time
}

type MemoryKVOption func(*MemoryKV)

// WithClock replaces time.Now, mostly for expiry tests.
func WithClock(now func() time.Time) MemoryKVOption {
	return func(s *MemoryKV) {
		s.now = now
	}
}

func NewMemoryKV(opts ...MemoryKVOption) *MemoryKV {
	s := &MemoryKV{
		entries: make(map[string]kvEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if e.expired(s.now()) {
		delete(s.entries, key)
		return nil, ErrNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (s *MemoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, value, ttl)
	return nil
}

func (s *MemoryKV) setLocked(key string, value []byte, ttl time.Duration) {
	now := s.now()
	e, ok := s.entries[key]
	if !ok || e.expired(now) {
		s.seq++
		e = kvEntry{seq: s.seq}
	}
	e.value = make([]byte, len(value))
	copy(e.value, value)
	e.expiresAt = time.Time{}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	s.entries[key] = e
}

func (s *MemoryKV) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryKV) Scan(ctx context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	type keyed struct {
		key string
		seq uint64
	}
	var found []keyed
	for k, e := range s.entries {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if e.expired(now) {
			delete(s.entries, k)
			continue
		}
		found = append(found, keyed{key: k, seq: e.seq})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })

	keys := make([]string, len(found))
	for i, f := range found {
		keys[i] = f.key
	}
	return keys, nil
}

// Move deletes fromKey and writes toKey without expiry under one lock.
func (s *MemoryKV) Move(ctx context.Context, fromKey, toKey string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, fromKey)
	s.setLocked(toKey, value, 0)
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
func (s *MemoryKV) Sweep(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var n int64
	for k, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, k)
			n++
		}
	}
	return n, nil
}

func (s *MemoryKV) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of live entries.
func (s *MemoryKV) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for _, e := range s.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}
