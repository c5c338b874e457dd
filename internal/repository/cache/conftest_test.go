package cache

import (
	"context"
	"path"
	"sync"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/db"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeStore is an in-memory stand-in for the shared store used by the store and aggregate tiers.
type fakeStore struct {
	mu     sync.Mutex
	kv     map[string][]byte
	ttls   map[string]time.Duration
	hashes map[string]map[string]string

	getErr  error
	setErr  error
	getHits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		kv:     map[string][]byte{},
		ttls:   map[string]time.Duration{},
		hashes: map[string]map[string]string{},
	}
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	v, ok := s.kv[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	s.getHits++
	return v, nil
}

func (s *fakeStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.kv[key] = value
	s.ttls[key] = ttl
	return nil
}

func (s *fakeStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.kv, k)
		delete(s.hashes, k)
	}
	return nil
}

func (s *fakeStore) Scan(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for k := range s.kv {
		if globMatch(pattern, k) {
			out = append(out, k)
		}
	}
	for k := range s.hashes {
		if globMatch(pattern, k) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *fakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	h, ok := s.hashes[key]
	if !ok {
		h = map[string]string{}
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (s *fakeStore) HGet(_ context.Context, key, field string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.hashes[key][field]
	if !ok {
		return "", db.ErrKeyNotFound
	}
	return v, nil
}

func (s *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for k, v := range s.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStore) HDel(_ context.Context, key string, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fields {
		delete(s.hashes[key], f)
	}
	return nil
}

func (s *fakeStore) Expire(_ context.Context, key string, ttl time.Duration, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ttls[key] = ttl
	return nil
}

// globMatch approximates Redis glob matching; cache keys never contain '/'.
func globMatch(pattern, key string) bool {
	ok, _ := path.Match(pattern, key)
	return ok
}
