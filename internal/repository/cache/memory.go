package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memEntry struct {
	key   Key
	entry Entry
}

// MemoryTier is a bounded in-process LRU.
type MemoryTier struct {
	lru *lru.Cache[string, memEntry]
	now Clock
}

// NewMemoryTier creates an LRU tier holding at most size entries.
func NewMemoryTier(size int, now Clock) (*MemoryTier, error) {
	c, err := lru.New[string, memEntry](size)
	if err != nil {
		return nil, fmt.Errorf("memory tier: %w", err)
	}
	return &MemoryTier{lru: c, now: now}, nil
}

// Name implements Tier.
func (m *MemoryTier) Name() string { return "memory" }

// Local implements Tier.
func (m *MemoryTier) Local() bool { return true }

// Get implements Tier.
func (m *MemoryTier) Get(_ context.Context, key Key) (Entry, bool, error) {
	k := key.String()
	me, ok := m.lru.Get(k)
	if !ok {
		return Entry{}, false, nil
	}
	if me.entry.Expired(m.now()) {
		m.lru.Remove(k)
		return Entry{}, false, nil
	}
	return me.entry, true, nil
}

// Put implements Tier.
func (m *MemoryTier) Put(_ context.Context, key Key, e Entry) error {
	m.lru.Add(key.String(), memEntry{key: key, entry: e})
	return nil
}

// Delete implements Tier.
func (m *MemoryTier) Delete(_ context.Context, key Key) error {
	m.lru.Remove(key.String())
	return nil
}

// DeleteMatching implements Tier.
func (m *MemoryTier) DeleteMatching(_ context.Context, sel Selector) error {
	for _, k := range m.lru.Keys() {
		if me, ok := m.lru.Peek(k); ok && sel.Matches(me.key) {
			m.lru.Remove(k)
		}
	}
	return nil
}

// Len returns the number of resident entries, expired ones included.
func (m *MemoryTier) Len() int { return m.lru.Len() }
