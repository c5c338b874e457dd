// Package lexcache caches lexical-relations lookups in the shared store.
package lexcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/db"
)

// lexicon is the decorated lookup.
type lexicon interface {
	Related(ctx context.Context, term string) ([]string, error)
}

// store is the consumer interface for the lexicon cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedLexicon caches related-term lists per normalized term.
type CachedLexicon struct {
	inner      lexicon
	store      store
	prefix     string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. Entries live for ttl (the profile class).
// cacheTotal is a counter vec labelled class, tier, result; may be nil.
func New(
	inner lexicon,
	s store,
	prefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedLexicon {
	return &CachedLexicon{
		inner:      inner,
		store:      s,
		prefix:     prefix + "lex:",
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Related returns cached related terms or asks the inner lookup.
// An empty result is cached too, so unknown terms do not hit the model again.
func (c *CachedLexicon) Related(ctx context.Context, term string) ([]string, error) {
	key := c.cacheKey(term)

	if terms, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return terms, nil
	}
	c.incCache("miss")

	terms, err := c.inner.Related(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("lexicon lookup %q: %w", term, err)
	}

	c.putToCache(ctx, key, terms)
	return terms, nil
}

func (c *CachedLexicon) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues("profile", "lexicon", result).Inc()
	}
}

func (c *CachedLexicon) cacheKey(term string) string {
	h := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(term))))
	return c.prefix + hex.EncodeToString(h[:])
}

func (c *CachedLexicon) getFromCache(ctx context.Context, key string) ([]string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached lexicon entry", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var terms []string
	if err := json.Unmarshal(data, &terms); err != nil {
		c.logger.Warn("Failed to parse cached lexicon entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return terms, true
}

func (c *CachedLexicon) putToCache(ctx context.Context, key string, terms []string) {
	if terms == nil {
		terms = []string{}
	}
	data, err := json.Marshal(terms)
	if err != nil {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache lexicon entry", zap.String("key", key), zap.Error(err))
	}
}
