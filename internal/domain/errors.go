package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidInput signals a malformed candidate or position (rejected before scoring).
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoCriteria signals that not a single criterion could be computed for a pair.
	ErrNoCriteria = errors.New("no computable criteria")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")

	// ErrLookupUnavailable signals a geocoding/routing failure (timeout, malformed address, 5xx).
	ErrLookupUnavailable = errors.New("travel-time lookup unavailable")
	// ErrLookupQuotaExceeded signals an exhausted routing quota.
	ErrLookupQuotaExceeded = errors.New("travel-time lookup quota exceeded")
	// ErrCircuitOpen signals that the routing breaker is open and calls are short-circuited.
	ErrCircuitOpen = errors.New("travel-time lookup circuit open")
	// ErrLexiconUnavailable signals a lexical-relations provider failure.
	ErrLexiconUnavailable = errors.New("lexical-relations provider unavailable")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// ValidationError lists per-field problems for one record. Unwraps to ErrInvalidInput.
type ValidationError struct {
	Record string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidInput.Error(), e.Record, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
