// internal/session/store.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Store is a per-session key/value store. Values are opaque bytes; callers
// use GetJSON and SetJSON to encode them.
type Store interface {
	Get(ctx context.Context, sid, key string) ([]byte, bool, error)
	Set(ctx context.Context, sid, key string, value []byte) error
	ClearKeys(ctx context.Context, sid string, keys ...string) error
	ClearAll(ctx context.Context, sid string) error
}

func GetJSON(ctx context.Context, store Store, sid, key string, v interface{}) (bool, error) {
	raw, ok, err := store.Get(ctx, sid, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("session: decode %s: %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, store Store, sid, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", key, err)
	}
	return store.Set(ctx, sid, key, raw)
}

// MemoryStore keeps sessions in process memory. It is used when no Redis
// address is configured and in tests. With a TTL, a session expires that long
// after its last write, like the Redis hash it stands in for.
type MemoryStore struct {
	mu        sync.Mutex
	data      map[string]*memorySession
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

type memorySession struct {
	values  map[string][]byte
	expires time.Time
}

type MemoryOption func(*MemoryStore)

// WithTTL expires sessions ttl after their last write. Zero keeps them forever.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.ttl = ttl }
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{data: make(map[string]*memorySession), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// session returns the live entry for sid, dropping it if it has expired.
// Callers hold mu.
func (s *MemoryStore) session(sid string) *memorySession {
	sess, ok := s.data[sid]
	if !ok {
		return nil
	}
	if s.ttl > 0 && !s.now().Before(sess.expires) {
		delete(s.data, sid)
		return nil
	}
	return sess
}

// sweep drops every expired session at most once per TTL, so sessions that
// are never read again do not pile up. Callers hold mu.
func (s *MemoryStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Before(s.nextSweep) {
		return
	}
	for sid, sess := range s.data {
		if !now.Before(sess.expires) {
			delete(s.data, sid)
		}
	}
	s.nextSweep = now.Add(s.ttl)
}

func (s *MemoryStore) Get(_ context.Context, sid, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sid)
	if sess == nil {
		return nil, false, nil
	}
	v, ok := sess.values[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemoryStore) Set(_ context.Context, sid, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	sess := s.session(sid)
	if sess == nil {
		sess = &memorySession{values: make(map[string][]byte)}
		s.data[sid] = sess
	}
	v := make([]byte, len(value))
	copy(v, value)
	sess.values[key] = v
	sess.expires = now.Add(s.ttl)
	return nil
}

func (s *MemoryStore) ClearKeys(_ context.Context, sid string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess := s.session(sid); sess != nil {
		for _, key := range keys {
			delete(sess.values, key)
		}
	}
	return nil
}

func (s *MemoryStore) ClearAll(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, sid)
	return nil
}

// Keys lists the keys currently held for a session.
func (s *MemoryStore) Keys(sid string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sid)
	if sess == nil {
		return []string{}
	}
	keys := make([]string, 0, len(sess.values))
	for k := range sess.values {
		keys = append(keys, k)
	}
	return keys
}

// Len reports how many sessions are held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
