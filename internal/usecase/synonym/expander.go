// Package synonym expands skill labels into equivalent terms from a static
// dictionary, optionally augmented by a lexical-relations lookup.
package synonym

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/talentmatch/internal/domain/geo"
)

// Lexicon returns terms related to a skill label.
type Lexicon interface {
	Related(ctx context.Context, term string) ([]string, error)
}

const (
	defaultMaxRelated  = 5
	lexiconConcurrency = 4
)

// Expander adds canonical synonyms to skill lists. Safe for concurrent use.
type Expander struct {
	groups     [][]string
	index      map[string]int
	broader    map[string]string
	narrower   map[string][]string
	lexicon    Lexicon
	maxRelated int
	logger     *zap.Logger
}

// Option configures an Expander.
type Option func(*Expander)

// WithLexicon consults l for terms the dictionary does not know.
func WithLexicon(l Lexicon) Option {
	return func(e *Expander) { e.lexicon = l }
}

// WithGroups adds equivalence classes to the dictionary.
func WithGroups(groups ...[]string) Option {
	return func(e *Expander) {
		for _, g := range groups {
			e.addGroup(g)
		}
	}
}

// WithMaxRelated bounds how many lexicon terms are added per skill.
func WithMaxRelated(n int) Option {
	return func(e *Expander) {
		if n > 0 {
			e.maxRelated = n
		}
	}
}

// New creates an Expander over the built-in dictionary.
func New(logger *zap.Logger, opts ...Option) *Expander {
	e := &Expander{
		index:      make(map[string]int),
		broader:    make(map[string]string, len(defaultBroader)),
		maxRelated: defaultMaxRelated,
		logger:     logger,
	}
	for _, g := range defaultGroups {
		e.addGroup(g)
	}
	for k, v := range defaultBroader {
		e.broader[Normalize(k)] = Normalize(v)
	}
	e.narrower = invert(e.broader)
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Expander) addGroup(group []string) {
	var members []string
	for _, t := range group {
		if n := Normalize(t); n != "" {
			members = append(members, n)
		}
	}
	if len(members) == 0 {
		return
	}
	id := len(e.groups)
	e.groups = append(e.groups, members)
	for _, m := range members {
		if _, taken := e.index[m]; !taken {
			e.index[m] = id
		}
	}
}

// Normalize is the comparison form of a skill label: folded case and accents, trimmed.
func Normalize(s string) string {
	return geo.Fold(strings.TrimSpace(s))
}

// Expand returns the input skills followed by their synonyms, deduplicated
// case-insensitively. Original terms are always kept. Lexicon failures are logged
// and ignored.
func (e *Expander) Expand(ctx context.Context, skills []string) []string {
	out := make([]string, 0, len(skills)*2)
	seen := make(map[string]bool, len(skills)*2)
	add := func(term, key string) {
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, term)
	}

	var unknown []string
	for _, s := range skills {
		add(strings.TrimSpace(s), Normalize(s))
	}
	for _, s := range skills {
		key := Normalize(s)
		id, ok := e.index[key]
		if !ok {
			if key != "" {
				unknown = append(unknown, key)
			}
			continue
		}
		for _, syn := range e.groups[id] {
			add(syn, syn)
		}
		canonical := e.groups[id][0]
		if b, ok := e.broader[canonical]; ok {
			e.addFamily(b, add)
		}
		for _, n := range e.narrower[canonical] {
			e.addFamily(n, add)
		}
	}

	for _, terms := range e.related(ctx, unknown) {
		for _, t := range terms {
			n := Normalize(t)
			add(n, n)
		}
	}
	return out
}

// addFamily adds term and, when the dictionary knows it, its whole group.
func (e *Expander) addFamily(term string, add func(term, key string)) {
	id, ok := e.index[term]
	if !ok {
		add(term, term)
		return
	}
	for _, syn := range e.groups[id] {
		add(syn, syn)
	}
}

func invert(broader map[string]string) map[string][]string {
	out := make(map[string][]string, len(broader))
	for narrow, broad := range broader {
		out[broad] = append(out[broad], narrow)
	}
	for _, v := range out {
		sort.Strings(v)
	}
	return out
}

// related queries the lexicon for each term, preserving input order.
func (e *Expander) related(ctx context.Context, terms []string) [][]string {
	if e.lexicon == nil || len(terms) == 0 {
		return nil
	}
	results := make([][]string, len(terms))
	var g errgroup.Group
	g.SetLimit(lexiconConcurrency)
	for i, term := range terms {
		g.Go(func() error {
			rel, err := e.lexicon.Related(ctx, term)
			if err != nil {
				e.logger.Warn("Lexicon lookup failed, using dictionary only",
					zap.String("term", term), zap.Error(err))
				return nil
			}
			if len(rel) > e.maxRelated {
				rel = rel[:e.maxRelated]
			}
			results[i] = rel
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Synonyms returns the dictionary group of a term, or nil.
func (e *Expander) Synonyms(term string) []string {
	id, ok := e.index[Normalize(term)]
	if !ok {
		return nil
	}
	return append([]string(nil), e.groups[id]...)
}
