package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/talentmatch/internal/db"
)

// kvStore is the consumer interface for the shared tier (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

const delChunk = 500

// StoreTier keeps entries in the shared key-value store (Redis/Valkey), one key per entry,
// with the store's native expiry set to the entry's remaining TTL.
type StoreTier struct {
	store  kvStore
	prefix string
	now    Clock
}

// NewStoreTier creates a shared tier. prefix namespaces every key (e.g. "talentmatch:").
func NewStoreTier(s kvStore, prefix string, now Clock) *StoreTier {
	return &StoreTier{store: s, prefix: prefix + "cache:", now: now}
}

// Name implements Tier.
func (t *StoreTier) Name() string { return "store" }

// Local implements Tier.
func (t *StoreTier) Local() bool { return false }

func (t *StoreTier) redisKey(k Key) string { return t.prefix + k.String() }

// Get implements Tier.
func (t *StoreTier) Get(ctx context.Context, key Key) (Entry, bool, error) {
	data, err := t.store.Get(ctx, t.redisKey(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("store tier get %s: %w", key, err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("store tier decode %s: %w", key, err)
	}
	if e.Expired(t.now()) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Put implements Tier.
func (t *StoreTier) Put(ctx context.Context, key Key, e Entry) error {
	ttl := e.TTL(t.now())
	if !e.ExpiresAt.IsZero() && ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("store tier encode %s: %w", key, err)
	}
	if err := t.store.SetWithTTL(ctx, t.redisKey(key), data, ttl); err != nil {
		return fmt.Errorf("store tier put %s: %w", key, err)
	}
	return nil
}

// Delete implements Tier.
func (t *StoreTier) Delete(ctx context.Context, key Key) error {
	if err := t.store.Del(ctx, t.redisKey(key)); err != nil {
		return fmt.Errorf("store tier delete %s: %w", key, err)
	}
	return nil
}

// DeleteMatching implements Tier via SCAN + DEL.
func (t *StoreTier) DeleteMatching(ctx context.Context, sel Selector) error {
	partition := "*"
	if sel.Partition != "" {
		partition = escapeGlob(escapePartition(sel.Partition))
	}
	pattern := t.prefix + string(sel.Class) + ":" + partition + ":" + escapeGlob(sel.IDPrefix) + "*"

	keys, err := t.store.Scan(ctx, pattern)
	if err != nil {
		return fmt.Errorf("store tier scan %s: %w", pattern, err)
	}
	for start := 0; start < len(keys); start += delChunk {
		end := min(start+delChunk, len(keys))
		if err := t.store.Del(ctx, keys[start:end]...); err != nil {
			return fmt.Errorf("store tier delete matching: %w", err)
		}
	}
	return nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string { return globEscaper.Replace(s) }
