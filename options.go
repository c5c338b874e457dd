package talentmatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Engine.
type Option interface {
	apply(*engineConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*engineConfig)

func (f optionFunc) apply(c *engineConfig) { f(c) }

type engineConfig struct {
	addrs     []string
	password  string
	keyPrefix string

	routingURL   string
	routingKey   string
	routingQuota int64
	lexicon      Lexicon

	memorySize            int
	completenessThreshold float64
	weightsVersion        string
	workers               int
	maxPairs              int
	batchTimeout          time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithRedis shares the match cache, aggregates and invalidations through a Redis
// or Valkey instance. Without it the Engine caches in process memory only.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *engineConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix namespaces every shared-store key. Defaults to "talentmatch:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *engineConfig) { c.keyPrefix = prefix })
}

// WithRouting enables travel-time lookups against an HTTP geocode/route service.
// dailyQuota 0 means unlimited. Without it locations are estimated offline.
func WithRouting(baseURL, apiKey string, dailyQuota int64) Option {
	return optionFunc(func(c *engineConfig) {
		c.routingURL = baseURL
		c.routingKey = apiKey
		c.routingQuota = dailyQuota
	})
}

// WithLexicon consults l for skills the built-in synonym dictionary does not know.
func WithLexicon(l Lexicon) Option {
	return optionFunc(func(c *engineConfig) { c.lexicon = l })
}

// WithMemorySize bounds the in-process cache tier (entries).
func WithMemorySize(n int) Option {
	return optionFunc(func(c *engineConfig) { c.memorySize = n })
}

// WithCompletenessThreshold sets the data completeness at which extended scoring applies.
func WithCompletenessThreshold(t float64) Option {
	return optionFunc(func(c *engineConfig) { c.completenessThreshold = t })
}

// WithWeightsVersion tags cached results with a weight table version.
func WithWeightsVersion(v string) Option {
	return optionFunc(func(c *engineConfig) { c.weightsVersion = v })
}

// WithBatchLimits bounds batch concurrency, size and default duration.
func WithBatchLimits(workers, maxPairs int, timeout time.Duration) Option {
	return optionFunc(func(c *engineConfig) {
		c.workers = workers
		c.maxPairs = maxPairs
		c.batchTimeout = timeout
	})
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *engineConfig) { c.logger = l })
}

// WithMetrics registers matching metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return optionFunc(func(c *engineConfig) { c.metricsReg = reg })
}
