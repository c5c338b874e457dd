package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/repository/cache"
)

// PairScorer computes a match for one pair.
type PairScorer interface {
	Score(ctx context.Context, c *domain.Candidate, p *domain.Position, mode domain.Mode) (domain.MatchResult, error)
}

// matchCache is the consumer interface for the cache chain (ISP).
type matchCache interface {
	Get(ctx context.Context, key cache.Key) (cache.Entry, bool)
	PutAs(ctx context.Context, key cache.Key, class cache.Class, value []byte) cache.Entry
}

// aggregateReader lists the precomputed matches of one candidate.
type aggregateReader interface {
	Entries(ctx context.Context, partition string) (map[string]cache.Entry, error)
}

// CachedScorer serves repeated pairs from the match cache and collapses concurrent
// identical computations.
type CachedScorer struct {
	inner   PairScorer
	cache   matchCache
	agg     aggregateReader
	version string
	group   singleflight.Group
	logger  *zap.Logger
}

// NewCachedScorer wraps inner. agg may be nil (TopForCandidate then returns nothing).
func NewCachedScorer(
	inner PairScorer, c matchCache, agg aggregateReader, weightsVersion string, logger *zap.Logger,
) *CachedScorer {
	return &CachedScorer{inner: inner, cache: c, agg: agg, version: weightsVersion, logger: logger}
}

// Score returns the cached result for the pair, computing and caching it on a miss.
// Results with a location fallback are cached for the fallback lifetime only.
func (s *CachedScorer) Score(
	ctx context.Context, c *domain.Candidate, p *domain.Position, mode domain.Mode,
) (domain.MatchResult, error) {
	if err := domain.ValidatePair(c, p); err != nil {
		return domain.MatchResult{}, err
	}
	key, err := MatchKey(c, p, mode, s.version)
	if err != nil {
		return s.inner.Score(ctx, c, p, mode)
	}

	if res, ok := s.lookup(ctx, key); ok {
		return res, nil
	}

	v, err, _ := s.group.Do(key.String(), func() (any, error) {
		res, err := s.inner.Score(ctx, c, p, mode)
		if err != nil {
			return domain.MatchResult{}, err
		}
		if data, err := json.Marshal(res); err == nil {
			s.cache.PutAs(ctx, key, entryClass(res), data)
		} else {
			s.logger.Warn("Failed to encode match result", zap.String("key", key.String()), zap.Error(err))
		}
		return res, nil
	})
	if err != nil {
		return domain.MatchResult{}, err
	}
	return v.(domain.MatchResult), nil
}

// entryClass picks the lifetime of a computed match. A location score that fell back
// to neutral lives only as long as the fallback travel entry, so the pair is rescored
// once the router recovers.
func entryClass(res domain.MatchResult) cache.Class {
	for _, c := range res.Metadata.FallbackCriteria {
		if c == domain.CriterionLocation {
			return cache.ClassFallback
		}
	}
	return cache.ClassMatch
}

func (s *CachedScorer) lookup(ctx context.Context, key cache.Key) (domain.MatchResult, bool) {
	e, ok := s.cache.Get(ctx, key)
	if !ok {
		return domain.MatchResult{}, false
	}
	var res domain.MatchResult
	if err := json.Unmarshal(e.Value, &res); err != nil {
		s.logger.Warn("Corrupt match cache entry", zap.String("key", key.String()), zap.Error(err))
		return domain.MatchResult{}, false
	}
	res.Metadata.Cached = true
	return res, true
}

// TopForCandidate returns the candidate's precomputed matches by score descending.
// Only entries of the active weight version count; the newest entry per position wins.
func (s *CachedScorer) TopForCandidate(ctx context.Context, candidateID string, limit int) ([]domain.MatchResult, error) {
	if s.agg == nil {
		return nil, nil
	}
	entries, err := s.agg.Entries(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("top for candidate %s: %w", candidateID, err)
	}

	latest := make(map[string]cache.Entry, len(entries))
	results := make(map[string]domain.MatchResult, len(entries))
	for id, e := range entries {
		if !strings.HasSuffix(id, ":"+s.version) {
			continue
		}
		var res domain.MatchResult
		if err := json.Unmarshal(e.Value, &res); err != nil {
			continue
		}
		if prev, ok := latest[res.PositionID]; ok && !e.CreatedAt.After(prev.CreatedAt) {
			continue
		}
		latest[res.PositionID] = e
		res.Metadata.Cached = true
		results[res.PositionID] = res
	}

	out := make([]domain.MatchResult, 0, len(results))
	for _, r := range results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].PositionID < out[j].PositionID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MatchKey builds the match cache key: partition is the candidate id, id is
// position id, record fingerprint and weight version.
func MatchKey(c *domain.Candidate, p *domain.Position, mode domain.Mode, version string) (cache.Key, error) {
	fp, err := Fingerprint(c, p, mode)
	if err != nil {
		return cache.Key{}, err
	}
	return cache.Key{
		Class:     cache.ClassMatch,
		Partition: c.ID,
		ID:        p.ID + ":" + fp + ":" + version,
	}, nil
}

// Fingerprint hashes the normalized content of both records and the requested mode,
// so edited records never hit stale entries.
func Fingerprint(c *domain.Candidate, p *domain.Position, mode domain.Mode) (string, error) {
	data, err := json.Marshal(struct {
		C    *domain.Candidate `json:"c"`
		P    *domain.Position  `json:"p"`
		Mode domain.Mode       `json:"m"`
	}{c, p, mode})
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8]), nil
}

// CandidateSelector selects every cached match of a candidate.
func CandidateSelector(candidateID string) cache.Selector {
	return cache.Selector{Class: cache.ClassMatch, Partition: candidateID}
}

// PositionSelector selects every cached match of a position across candidates.
func PositionSelector(positionID string) cache.Selector {
	return cache.Selector{Class: cache.ClassMatch, IDPrefix: positionID + ":"}
}

// AllMatchesSelector selects every cached match (weight tables changed).
func AllMatchesSelector() cache.Selector {
	return cache.Selector{Class: cache.ClassMatch}
}
