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

// hashStore is the consumer interface for the aggregate tier (ISP).
type hashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// AggregateTier materializes one hash per partition (field per id), so that all
// entries for a candidate can be read in one round trip. It only serves ClassMatch.
type AggregateTier struct {
	store  hashStore
	prefix string
	now    Clock
}

// NewAggregateTier creates the aggregate tier.
func NewAggregateTier(s hashStore, prefix string, now Clock) *AggregateTier {
	return &AggregateTier{store: s, prefix: prefix + "agg:", now: now}
}

// Name implements Tier.
func (t *AggregateTier) Name() string { return "aggregate" }

// Local implements Tier.
func (t *AggregateTier) Local() bool { return false }

func (t *AggregateTier) hashKey(partition string) string { return t.prefix + partition }

// Get implements Tier.
func (t *AggregateTier) Get(ctx context.Context, key Key) (Entry, bool, error) {
	if key.Class != ClassMatch {
		return Entry{}, false, nil
	}
	raw, err := t.store.HGet(ctx, t.hashKey(key.Partition), key.ID)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("aggregate get %s: %w", key, err)
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entry{}, false, fmt.Errorf("aggregate decode %s: %w", key, err)
	}
	if e.Expired(t.now()) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Put implements Tier. The hash expiry is refreshed to the newest entry's TTL;
// stale fields are filtered on read.
func (t *AggregateTier) Put(ctx context.Context, key Key, e Entry) error {
	if key.Class != ClassMatch {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("aggregate encode %s: %w", key, err)
	}
	hk := t.hashKey(key.Partition)
	if err := t.store.HSet(ctx, hk, map[string]string{key.ID: string(data)}); err != nil {
		return fmt.Errorf("aggregate put %s: %w", key, err)
	}
	if ttl := e.TTL(t.now()); ttl > 0 {
		if err := t.store.Expire(ctx, hk, ttl, false); err != nil {
			return fmt.Errorf("aggregate expire %s: %w", hk, err)
		}
	}
	return nil
}

// Delete implements Tier.
func (t *AggregateTier) Delete(ctx context.Context, key Key) error {
	if key.Class != ClassMatch {
		return nil
	}
	if err := t.store.HDel(ctx, t.hashKey(key.Partition), key.ID); err != nil {
		return fmt.Errorf("aggregate delete %s: %w", key, err)
	}
	return nil
}

// DeleteMatching implements Tier.
func (t *AggregateTier) DeleteMatching(ctx context.Context, sel Selector) error {
	if sel.Class != ClassMatch {
		return nil
	}

	var hashes []string
	if sel.Partition != "" {
		hashes = []string{t.hashKey(sel.Partition)}
	} else {
		keys, err := t.store.Scan(ctx, t.prefix+"*")
		if err != nil {
			return fmt.Errorf("aggregate scan: %w", err)
		}
		hashes = keys
	}

	if sel.IDPrefix == "" {
		if len(hashes) == 0 {
			return nil
		}
		if err := t.store.Del(ctx, hashes...); err != nil {
			return fmt.Errorf("aggregate delete matching: %w", err)
		}
		return nil
	}

	for _, hk := range hashes {
		fields, err := t.store.HGetAll(ctx, hk)
		if err != nil {
			return fmt.Errorf("aggregate read %s: %w", hk, err)
		}
		var drop []string
		for f := range fields {
			if strings.HasPrefix(f, sel.IDPrefix) {
				drop = append(drop, f)
			}
		}
		if err := t.store.HDel(ctx, hk, drop...); err != nil {
			return fmt.Errorf("aggregate delete fields %s: %w", hk, err)
		}
	}
	return nil
}

// Entries returns every live entry in a partition keyed by id.
func (t *AggregateTier) Entries(ctx context.Context, partition string) (map[string]Entry, error) {
	fields, err := t.store.HGetAll(ctx, t.hashKey(partition))
	if err != nil {
		return nil, fmt.Errorf("aggregate entries %s: %w", partition, err)
	}
	now := t.now()
	out := make(map[string]Entry, len(fields))
	for id, raw := range fields {
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		if !e.Expired(now) {
			out[id] = e
		}
	}
	return out, nil
}
