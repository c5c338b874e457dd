package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the talentmatch service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Routing  RoutingConfig  `yaml:"routing"`
	Lexicon  LexiconConfig  `yaml:"lexicon"`
	Matching MatchingConfig `yaml:"matching"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds shared cache connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds multi-tier cache settings.
type CacheConfig struct {
	MemorySize          int       `yaml:"memory_size"`
	KeyPrefix           string    `yaml:"key_prefix"`
	InvalidationChannel string    `yaml:"invalidation_channel"`
	TTL                 TTLConfig `yaml:"ttl"`
}

// TTLConfig holds expiry per data class.
type TTLConfig struct {
	Travel   time.Duration `yaml:"travel"`
	Match    time.Duration `yaml:"match"`
	Profile  time.Duration `yaml:"profile"`
	Fallback time.Duration `yaml:"fallback"`
}

// RoutingConfig holds the external geocode/route lookup settings.
type RoutingConfig struct {
	Enabled            bool    `yaml:"enabled"`
	BaseURL            string  `yaml:"base_url"`
	APIKey             string  `yaml:"api_key"`
	TimeoutSec         int     `yaml:"timeout_sec"`
	MaxConcurrent      int64   `yaml:"max_concurrent"`
	RequestsPerSecond  float64 `yaml:"requests_per_second"`
	Burst              int     `yaml:"burst"`
	BreakerFailures    uint32  `yaml:"breaker_failures"`
	BreakerCooldownSec int     `yaml:"breaker_cooldown_sec"`
	DailyQuota         int64   `yaml:"daily_quota"`  // 0 = unlimited
	QuotaAction        string  `yaml:"quota_action"` // "fallback" (default) | "warn"
}

// LexiconConfig holds the lexical-relations lookup settings.
type LexiconConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
	MaxTerms   int    `yaml:"max_terms"`
}

// MatchingConfig holds scoring and batch settings.
type MatchingConfig struct {
	CompletenessThreshold float64            `yaml:"completeness_threshold"`
	DefaultTransportMode  string             `yaml:"default_transport_mode"`
	WeightsVersion        string             `yaml:"weights_version"`
	BatchWorkers          int                `yaml:"batch_workers"`
	MaxBatchPairs         int                `yaml:"max_batch_pairs"`
	BatchTimeoutSec       int                `yaml:"batch_timeout_sec"` // 0 = no default deadline
	TravelTiers           []TravelTierConfig `yaml:"travel_tiers"`
}

// TravelTierConfig maps a travel time ceiling to a location score.
type TravelTierConfig struct {
	MaxMinutes float64 `yaml:"max_minutes"`
	Score      float64 `yaml:"score"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates raw YAML.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	c.applyCacheDefaults()
	c.applyRoutingDefaults()
	if c.Lexicon.Model == "" {
		c.Lexicon.Model = "gpt-4o-mini"
	}
	if c.Lexicon.TimeoutSec <= 0 {
		c.Lexicon.TimeoutSec = 5
	}
	if c.Lexicon.MaxTerms <= 0 {
		c.Lexicon.MaxTerms = 8
	}
	c.applyMatchingDefaults()
}

func (c *Config) applyCacheDefaults() {
	if c.Cache.MemorySize <= 0 {
		c.Cache.MemorySize = 10000
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "talentmatch:"
	}
	if c.Cache.InvalidationChannel == "" {
		c.Cache.InvalidationChannel = c.Cache.KeyPrefix + "invalidate"
	}
	if c.Cache.TTL.Travel <= 0 {
		c.Cache.TTL.Travel = 168 * time.Hour
	}
	if c.Cache.TTL.Match <= 0 {
		c.Cache.TTL.Match = time.Hour
	}
	if c.Cache.TTL.Profile <= 0 {
		c.Cache.TTL.Profile = 24 * time.Hour
	}
	if c.Cache.TTL.Fallback <= 0 {
		c.Cache.TTL.Fallback = 10 * time.Minute
	}
}

func (c *Config) applyRoutingDefaults() {
	if c.Routing.TimeoutSec <= 0 {
		c.Routing.TimeoutSec = 5
	}
	if c.Routing.MaxConcurrent <= 0 {
		c.Routing.MaxConcurrent = 8
	}
	if c.Routing.RequestsPerSecond <= 0 {
		c.Routing.RequestsPerSecond = 10
	}
	if c.Routing.Burst <= 0 {
		c.Routing.Burst = 5
	}
	if c.Routing.BreakerFailures == 0 {
		c.Routing.BreakerFailures = 5
	}
	if c.Routing.BreakerCooldownSec <= 0 {
		c.Routing.BreakerCooldownSec = 60
	}
	if c.Routing.QuotaAction == "" {
		c.Routing.QuotaAction = "fallback"
	}
}

func (c *Config) applyMatchingDefaults() {
	if c.Matching.CompletenessThreshold <= 0 {
		c.Matching.CompletenessThreshold = 0.6
	}
	if c.Matching.DefaultTransportMode == "" {
		c.Matching.DefaultTransportMode = "driving"
	}
	if c.Matching.WeightsVersion == "" {
		c.Matching.WeightsVersion = "v1"
	}
	if c.Matching.BatchWorkers <= 0 {
		c.Matching.BatchWorkers = 8
	}
	if c.Matching.MaxBatchPairs <= 0 {
		c.Matching.MaxBatchPairs = 10000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "", "redis", "valkey":
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Routing.Enabled && c.Routing.BaseURL == "" {
		return fmt.Errorf("routing.base_url is required when routing is enabled")
	}
	switch c.Routing.QuotaAction {
	case "", "fallback", "warn":
		// ok
	default:
		return fmt.Errorf("routing.quota_action must be \"fallback\" or \"warn\", got %q", c.Routing.QuotaAction)
	}
	if c.Lexicon.Enabled && c.Lexicon.APIKey == "" {
		return fmt.Errorf("lexicon.api_key is required when lexicon is enabled")
	}
	if c.Matching.BatchTimeoutSec < 0 {
		return fmt.Errorf("matching.batch_timeout_sec must not be negative")
	}
	if t := c.Matching.CompletenessThreshold; t < 0 || t > 1 {
		return fmt.Errorf("matching.completeness_threshold must be within [0,1], got %v", t)
	}
	prev := 0.0
	for i, tier := range c.Matching.TravelTiers {
		if tier.MaxMinutes <= prev {
			return fmt.Errorf("matching.travel_tiers[%d].max_minutes must be increasing", i)
		}
		if tier.Score < 0 || tier.Score > 1 {
			return fmt.Errorf("matching.travel_tiers[%d].score must be within [0,1]", i)
		}
		prev = tier.MaxMinutes
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
