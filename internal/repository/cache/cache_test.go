package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func matchKey(candidate, position string) Key {
	return Key{Class: ClassMatch, Partition: candidate, ID: position + ":fp:v1"}
}

func TestSelector_Matches(t *testing.T) {
	k := matchKey("c1", "p1")
	tests := []struct {
		name string
		sel  Selector
		want bool
	}{
		{"class only", Selector{Class: ClassMatch}, true},
		{"partition", Selector{Class: ClassMatch, Partition: "c1"}, true},
		{"other partition", Selector{Class: ClassMatch, Partition: "c2"}, false},
		{"id prefix", Selector{Class: ClassMatch, IDPrefix: "p1:"}, true},
		{"other id prefix", Selector{Class: ClassMatch, IDPrefix: "p2:"}, false},
		{"other class", Selector{Class: ClassTravel}, false},
	}
	for _, tt := range tests {
		if got := tt.sel.Matches(k); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMemoryTier_ExpiresByTTL(t *testing.T) {
	clk := newFakeClock()
	m, err := NewMemoryTier(10, clk.Now)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	k := Key{Class: ClassTravel, Partition: "o", ID: "d:driving"}

	_ = m.Put(ctx, k, Entry{Value: []byte("25"), ExpiresAt: clk.Now().Add(time.Hour)})

	if e, ok, _ := m.Get(ctx, k); !ok || string(e.Value) != "25" {
		t.Fatalf("expected hit, got %v %v", e, ok)
	}

	clk.Advance(time.Hour)
	if _, ok, _ := m.Get(ctx, k); ok {
		t.Fatal("expected miss after expiry")
	}
	if m.Len() != 0 {
		t.Errorf("expired entry should be removed, len=%d", m.Len())
	}
}

func TestMemoryTier_EvictsLeastRecentlyUsed(t *testing.T) {
	clk := newFakeClock()
	m, _ := NewMemoryTier(2, clk.Now)
	ctx := context.Background()

	a, b, c := matchKey("c", "a"), matchKey("c", "b"), matchKey("c", "c")
	_ = m.Put(ctx, a, Entry{Value: []byte("a")})
	_ = m.Put(ctx, b, Entry{Value: []byte("b")})
	_, _, _ = m.Get(ctx, a) // a becomes most recent
	_ = m.Put(ctx, c, Entry{Value: []byte("c")})

	if _, ok, _ := m.Get(ctx, b); ok {
		t.Error("b should have been evicted")
	}
	if _, ok, _ := m.Get(ctx, a); !ok {
		t.Error("a should still be resident")
	}
}

func TestMemoryTier_DeleteMatching(t *testing.T) {
	m, _ := NewMemoryTier(10, time.Now)
	ctx := context.Background()
	_ = m.Put(ctx, matchKey("c1", "p1"), Entry{})
	_ = m.Put(ctx, matchKey("c1", "p2"), Entry{})
	_ = m.Put(ctx, matchKey("c2", "p1"), Entry{})

	_ = m.DeleteMatching(ctx, Selector{Class: ClassMatch, IDPrefix: "p1:"})

	if m.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", m.Len())
	}
	if _, ok, _ := m.Get(ctx, matchKey("c1", "p2")); !ok {
		t.Error("c1/p2 should survive")
	}
}

func TestKey_StringEscapesPartition(t *testing.T) {
	a := Key{Class: ClassMatch, Partition: "org:c1", ID: "p1"}
	b := Key{Class: ClassMatch, Partition: "org", ID: "c1:p1"}
	if a.String() == b.String() {
		t.Fatalf("keys collide: %s", a)
	}
	if got := a.String(); got != "match:org%3Ac1:p1" {
		t.Errorf("String() = %s", got)
	}
	if got := (Key{Class: ClassMatch, Partition: "50%:x", ID: "p"}).String(); got != "match:50%25%3Ax:p" {
		t.Errorf("String() = %s", got)
	}
}

func TestMemoryTier_PartitionWithSeparatorDoesNotCollide(t *testing.T) {
	mem, _ := NewMemoryTier(10, time.Now)
	ctx := context.Background()
	a := Key{Class: ClassMatch, Partition: "org:c1", ID: "p1"}
	b := Key{Class: ClassMatch, Partition: "org", ID: "c1:p1"}
	_ = mem.Put(ctx, a, Entry{Value: []byte("a")})
	_ = mem.Put(ctx, b, Entry{Value: []byte("b")})

	got, ok, _ := mem.Get(ctx, a)
	if !ok || string(got.Value) != "a" {
		t.Errorf("expected a's entry, got %q %v", got.Value, ok)
	}
}

func TestStoreTier_DeleteMatchingEscapedPartition(t *testing.T) {
	fs := newFakeStore()
	tier := NewStoreTier(fs, "tm:", time.Now)
	ctx := context.Background()
	a := Key{Class: ClassMatch, Partition: "org:c1", ID: "p1:fp:v1"}
	b := Key{Class: ClassMatch, Partition: "org", ID: "c1:p1:fp:v1"}
	_ = tier.Put(ctx, a, Entry{})
	_ = tier.Put(ctx, b, Entry{})

	if err := tier.DeleteMatching(ctx, Selector{Class: ClassMatch, Partition: "org:c1"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := fs.kv["tm:cache:match:org:c1:p1:fp:v1"]; !ok {
		t.Error("entry of partition org must survive")
	}
	if len(fs.kv) != 1 {
		t.Errorf("expected 1 key left, got %v", fs.kv)
	}
}

func TestStoreTier_RoundTripWithTTL(t *testing.T) {
	clk := newFakeClock()
	fs := newFakeStore()
	tier := NewStoreTier(fs, "tm:", clk.Now)
	ctx := context.Background()
	k := Key{Class: ClassTravel, Partition: "o", ID: "d:transit"}

	e := Entry{Value: []byte("42"), Class: ClassTravel, CreatedAt: clk.Now(), ExpiresAt: clk.Now().Add(168 * time.Hour)}
	if err := tier.Put(ctx, k, e); err != nil {
		t.Fatal(err)
	}
	if got := fs.ttls["tm:cache:travel:o:d:transit"]; got != 168*time.Hour {
		t.Errorf("store ttl = %v", got)
	}

	got, ok, err := tier.Get(ctx, k)
	if err != nil || !ok {
		t.Fatalf("expected hit, got %v %v", ok, err)
	}
	if string(got.Value) != "42" || !got.ExpiresAt.Equal(e.ExpiresAt) {
		t.Errorf("unexpected entry %+v", got)
	}
}

func TestStoreTier_SkipsExpiredPut(t *testing.T) {
	clk := newFakeClock()
	fs := newFakeStore()
	tier := NewStoreTier(fs, "tm:", clk.Now)

	err := tier.Put(context.Background(), matchKey("c", "p"), Entry{ExpiresAt: clk.Now().Add(-time.Second)})
	if err != nil {
		t.Fatal(err)
	}
	if len(fs.kv) != 0 {
		t.Error("expired entry must not be written")
	}
}

func TestStoreTier_DeleteMatching(t *testing.T) {
	fs := newFakeStore()
	tier := NewStoreTier(fs, "tm:", time.Now)
	ctx := context.Background()
	for _, k := range []Key{matchKey("c1", "p1"), matchKey("c1", "p2"), matchKey("c2", "p1")} {
		_ = tier.Put(ctx, k, Entry{})
	}

	if err := tier.DeleteMatching(ctx, Selector{Class: ClassMatch, Partition: "c1"}); err != nil {
		t.Fatal(err)
	}
	if len(fs.kv) != 1 {
		t.Fatalf("expected 1 key left, got %v", fs.kv)
	}
	if _, ok := fs.kv["tm:cache:match:c2:p1:fp:v1"]; !ok {
		t.Error("c2 entry should survive")
	}
}

func TestAggregateTier_EntriesAndPrefixDelete(t *testing.T) {
	clk := newFakeClock()
	fs := newFakeStore()
	tier := NewAggregateTier(fs, "tm:", clk.Now)
	ctx := context.Background()

	live := Entry{Value: []byte("0.8"), ExpiresAt: clk.Now().Add(time.Hour)}
	_ = tier.Put(ctx, matchKey("c1", "p1"), live)
	_ = tier.Put(ctx, matchKey("c1", "p2"), live)
	_ = tier.Put(ctx, Key{Class: ClassTravel, Partition: "c1", ID: "x"}, live) // ignored

	entries, err := tier.Entries(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	_ = tier.DeleteMatching(ctx, Selector{Class: ClassMatch, IDPrefix: "p1:"})
	if _, ok, _ := tier.Get(ctx, matchKey("c1", "p1")); ok {
		t.Error("p1 should be deleted")
	}
	if _, ok, _ := tier.Get(ctx, matchKey("c1", "p2")); !ok {
		t.Error("p2 should survive")
	}

	clk.Advance(2 * time.Hour)
	entries, _ = tier.Entries(ctx, "c1")
	if len(entries) != 0 {
		t.Errorf("expired entries should be filtered, got %d", len(entries))
	}
}

func TestChain_BackfillsUpperTiers(t *testing.T) {
	clk := newFakeClock()
	mem, _ := NewMemoryTier(10, clk.Now)
	fs := newFakeStore()
	shared := NewStoreTier(fs, "tm:", clk.Now)
	ctx := context.Background()
	k := Key{Class: ClassTravel, Partition: "o", ID: "d:driving"}

	_ = shared.Put(ctx, k, Entry{Value: []byte("31"), ExpiresAt: clk.Now().Add(time.Hour)})

	chain := NewChain([]Tier{mem, shared}, zap.NewNop(), WithClock(clk.Now))
	e, ok := chain.Get(ctx, k)
	if !ok || string(e.Value) != "31" {
		t.Fatalf("expected shared hit, got %v", ok)
	}
	if _, ok, _ := mem.Get(ctx, k); !ok {
		t.Fatal("memory tier should be back-filled")
	}

	fs.getErr = errors.New("down")
	if _, ok := chain.Get(ctx, k); !ok {
		t.Fatal("memory hit must not consult the failing tier")
	}
}

func TestChain_PutUsesClassTTL(t *testing.T) {
	clk := newFakeClock()
	mem, _ := NewMemoryTier(10, clk.Now)
	chain := NewChain([]Tier{mem}, zap.NewNop(),
		WithClock(clk.Now),
		WithTTLPolicy(TTLPolicy{ClassFallback: 5 * time.Minute}),
	)
	ctx := context.Background()
	k := Key{Class: ClassFallback, Partition: "o", ID: "d"}

	e := chain.Put(ctx, k, []byte("60"))
	if want := clk.Now().Add(5 * time.Minute); !e.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", e.ExpiresAt, want)
	}
	if chain.TTL(ClassTravel) != 168*time.Hour {
		t.Errorf("travel TTL should keep its default, got %v", chain.TTL(ClassTravel))
	}

	clk.Advance(5 * time.Minute)
	if _, ok := chain.Get(ctx, k); ok {
		t.Error("fallback entry should expire after its short TTL")
	}
}

func TestChain_PutAsKeepsKeyWithClassTTL(t *testing.T) {
	clk := newFakeClock()
	mem, _ := NewMemoryTier(10, clk.Now)
	chain := NewChain([]Tier{mem}, zap.NewNop(), WithClock(clk.Now))
	ctx := context.Background()
	k := matchKey("c1", "p1")

	e := chain.PutAs(ctx, k, ClassFallback, []byte("{}"))
	if e.Class != ClassFallback || !e.ExpiresAt.Equal(clk.Now().Add(10*time.Minute)) {
		t.Errorf("unexpected entry %+v", e)
	}
	if _, ok := chain.Get(ctx, k); !ok {
		t.Fatal("entry should be readable under the match key")
	}
	clk.Advance(10 * time.Minute)
	if _, ok := chain.Get(ctx, k); ok {
		t.Error("entry should expire with the fallback TTL")
	}
}

func TestChain_TierFailureIsMiss(t *testing.T) {
	fs := newFakeStore()
	fs.getErr = errors.New("connection refused")
	fs.setErr = errors.New("connection refused")
	chain := NewChain([]Tier{NewStoreTier(fs, "tm:", time.Now)}, zap.NewNop())
	ctx := context.Background()

	chain.Put(ctx, matchKey("c", "p"), []byte("x"))
	if _, ok := chain.Get(ctx, matchKey("c", "p")); ok {
		t.Error("failing tier must yield a miss")
	}
}

func TestChain_InvalidateLocalSkipsShared(t *testing.T) {
	mem, _ := NewMemoryTier(10, time.Now)
	fs := newFakeStore()
	shared := NewStoreTier(fs, "tm:", time.Now)
	chain := NewChain([]Tier{mem, shared}, zap.NewNop())
	ctx := context.Background()
	k := matchKey("c1", "p1")

	chain.Put(ctx, k, []byte("x"))
	if err := chain.InvalidateLocal(ctx, Selector{Class: ClassMatch, Partition: "c1"}); err != nil {
		t.Fatal(err)
	}
	if mem.Len() != 0 {
		t.Error("memory tier should be cleared")
	}
	if len(fs.kv) != 1 {
		t.Error("shared tier must be untouched by local invalidation")
	}

	if err := chain.Invalidate(ctx, Selector{Class: ClassMatch, Partition: "c1"}); err != nil {
		t.Fatal(err)
	}
	if len(fs.kv) != 0 {
		t.Error("shared tier should be cleared")
	}
}
