package lexcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/db"
)

type mockLexicon struct {
	terms []string
	err   error
	calls int
}

func (m *mockLexicon) Related(_ context.Context, _ string) ([]string, error) {
	m.calls++
	return m.terms, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedLexicon(t *testing.T, inner *mockLexicon) (*CachedLexicon, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cl := New(inner, ms, "tm:", 24*time.Hour, nil, zap.NewNop())
	return cl, ms
}
