// Package cache implements the multi-tier cache: an in-process LRU, the shared
// store and a per-candidate aggregate, tried in order with back-fill on a lower-tier hit.
package cache

import (
	"context"
	"strings"
	"time"
)

// Class is a TTL class: a named expiry policy for one category of data.
type Class string

// TTL classes.
const (
	ClassTravel   Class = "travel"
	ClassFallback Class = "fallback"
	ClassMatch    Class = "match"
	ClassProfile  Class = "profile"
)

// Key addresses one entry. Partition groups entries that are invalidated together
// (a candidate id for match entries, an origin hash for travel entries).
type Key struct {
	Class     Class
	Partition string
	ID        string
}

// String renders the key as class:partition:id. The partition is escaped so a
// separator inside it cannot shift the boundary between partition and id.
func (k Key) String() string {
	return string(k.Class) + ":" + escapePartition(k.Partition) + ":" + k.ID
}

var partitionEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func escapePartition(s string) string { return partitionEscaper.Replace(s) }

// Entry is an immutable cached value. Refresh replaces the entry.
type Entry struct {
	Value     []byte    `json:"v"`
	Class     Class     `json:"c"`
	CreatedAt time.Time `json:"t"`
	ExpiresAt time.Time `json:"e"`
}

// Expired reports whether the entry is past its TTL at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// TTL returns the remaining lifetime at now (zero when expired).
func (e Entry) TTL(now time.Time) time.Duration {
	if e.ExpiresAt.IsZero() {
		return 0
	}
	if d := e.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Selector matches a set of keys for invalidation.
// Empty Partition matches every partition; empty IDPrefix matches every id.
type Selector struct {
	Class     Class
	Partition string
	IDPrefix  string
}

// Matches reports whether k is selected.
func (s Selector) Matches(k Key) bool {
	if k.Class != s.Class {
		return false
	}
	if s.Partition != "" && k.Partition != s.Partition {
		return false
	}
	return strings.HasPrefix(k.ID, s.IDPrefix)
}

// Tier is one level of the cache chain.
type Tier interface {
	Name() string
	// Local reports whether the tier lives in this process only.
	Local() bool
	// Get returns the entry and true on a hit. Expired entries are misses.
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Put(ctx context.Context, key Key, e Entry) error
	Delete(ctx context.Context, key Key) error
	DeleteMatching(ctx context.Context, sel Selector) error
}

// TTLPolicy maps classes to lifetimes.
type TTLPolicy map[Class]time.Duration

// DefaultTTLPolicy returns the standard lifetimes per class.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		ClassTravel:   168 * time.Hour,
		ClassFallback: 10 * time.Minute,
		ClassMatch:    time.Hour,
		ClassProfile:  24 * time.Hour,
	}
}

// Clock returns the current time. Injected in tests.
type Clock func() time.Time
