package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/config"
	dbRedis "github.com/kailas-cloud/talentmatch/internal/db/redis"
	"github.com/kailas-cloud/talentmatch/internal/domain/geo"
	logpkg "github.com/kailas-cloud/talentmatch/internal/logger"
	"github.com/kailas-cloud/talentmatch/internal/metrics"
	"github.com/kailas-cloud/talentmatch/internal/repository/cache"
	"github.com/kailas-cloud/talentmatch/internal/repository/lexcache"
	quotarepo "github.com/kailas-cloud/talentmatch/internal/repository/quota"
	chiTransport "github.com/kailas-cloud/talentmatch/internal/transport/chi"
	openaiLex "github.com/kailas-cloud/talentmatch/internal/transport/openai"
	"github.com/kailas-cloud/talentmatch/internal/transport/routing"
	batchuc "github.com/kailas-cloud/talentmatch/internal/usecase/batch"
	"github.com/kailas-cloud/talentmatch/internal/usecase/cachectl"
	"github.com/kailas-cloud/talentmatch/internal/usecase/criteria"
	healthuc "github.com/kailas-cloud/talentmatch/internal/usecase/health"
	"github.com/kailas-cloud/talentmatch/internal/usecase/insight"
	"github.com/kailas-cloud/talentmatch/internal/usecase/location"
	"github.com/kailas-cloud/talentmatch/internal/usecase/scoring"
	"github.com/kailas-cloud/talentmatch/internal/usecase/skill"
	"github.com/kailas-cloud/talentmatch/internal/usecase/synonym"
	usageuc "github.com/kailas-cloud/talentmatch/internal/usecase/usage"
	"github.com/kailas-cloud/talentmatch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting talentmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.Bool("routing_enabled", cfg.Routing.Enabled),
		zap.Bool("lexicon_enabled", cfg.Lexicon.Enabled),
	)

	// Redis and Valkey speak the same protocol; one rueidis store serves both drivers.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register matching metrics explicitly (no init())
	metrics.RegisterMatchingMetrics()

	// Cache chain: memory -> shared store -> per-candidate aggregate
	memTier, err := cache.NewMemoryTier(cfg.Cache.MemorySize, time.Now)
	if err != nil {
		logger.Fatal("Failed to create memory cache tier", zap.Error(err))
	}
	aggTier := cache.NewAggregateTier(store, cfg.Cache.KeyPrefix, time.Now)
	chain := cache.NewChain(
		[]cache.Tier{memTier, cache.NewStoreTier(store, cfg.Cache.KeyPrefix, time.Now), aggTier},
		logger,
		cache.WithTTLPolicy(cache.TTLPolicy{
			cache.ClassTravel:   cfg.Cache.TTL.Travel,
			cache.ClassMatch:    cfg.Cache.TTL.Match,
			cache.ClassProfile:  cfg.Cache.TTL.Profile,
			cache.ClassFallback: cfg.Cache.TTL.Fallback,
		}),
		cache.WithRequestCounter(metrics.CacheRequestsTotal),
	)

	// Routing quota, persisted so restarts and replicas share the daily count.
	quota := location.NewQuotaTracker(
		cfg.Routing.DailyQuota, location.QuotaAction(cfg.Routing.QuotaAction), logger,
	).WithStore(ctx, quotarepo.New(store, quotarepo.DefaultRetention()))

	// Pass nil interfaces (not typed nil pointers) for disabled components.
	var router location.Router
	var breaker healthuc.BreakerReader
	if cfg.Routing.Enabled {
		guarded, err := buildRouter(cfg.Routing, chain, quota, logger)
		if err != nil {
			logger.Fatal("Failed to create routing client", zap.Error(err))
		}
		breaker = guarded
		router = location.NewInstrumentedRouter(
			guarded, metrics.RoutingRequestsTotal, metrics.RoutingRequestDuration,
			metrics.RoutingQuotaRemaining, quota, logger,
		)
		logger.Info("Routing lookup enabled",
			zap.String("base_url", cfg.Routing.BaseURL),
			zap.Int64("daily_quota", cfg.Routing.DailyQuota),
		)
	}

	var lexChecker healthuc.LexiconChecker
	expanderOpts := []synonym.Option{synonym.WithMaxRelated(cfg.Lexicon.MaxTerms)}
	if cfg.Lexicon.Enabled {
		lex := openaiLex.NewLexicon(&openaiLex.Config{
			APIKey:   cfg.Lexicon.APIKey,
			BaseURL:  cfg.Lexicon.BaseURL,
			Model:    cfg.Lexicon.Model,
			MaxTerms: cfg.Lexicon.MaxTerms,
			Timeout:  time.Duration(cfg.Lexicon.TimeoutSec) * time.Second,
			Logger:   logger,
		})
		lexChecker = lex
		cached := lexcache.New(lex, store, cfg.Cache.KeyPrefix, cfg.Cache.TTL.Profile, metrics.CacheRequestsTotal, logger)
		expanderOpts = append(expanderOpts, synonym.WithLexicon(cached))
		logger.Info("Lexicon lookup enabled", zap.String("model", cfg.Lexicon.Model))
	}

	// Criterion scorers
	locCfg := location.DefaultConfig()
	locCfg.DefaultMode = geo.Mode(cfg.Matching.DefaultTransportMode)
	if len(cfg.Matching.TravelTiers) > 0 {
		locCfg.Tiers = make([]location.Tier, 0, len(cfg.Matching.TravelTiers))
		for _, t := range cfg.Matching.TravelTiers {
			locCfg.Tiers = append(locCfg.Tiers, location.Tier{MaxMinutes: t.MaxMinutes, Score: t.Score})
		}
	}
	locMatcher := location.NewMatcher(router, chain, locCfg, logger, location.WithFallbackRecorder(quota))
	skillMatcher := skill.NewMatcher(synonym.New(logger, expanderOpts...))
	soft := criteria.New(criteria.DefaultConfig(), nil).All()

	scorer := scoring.NewScorer(
		skillMatcher, locMatcher, soft, insight.New(insight.DefaultConfig()),
		scoring.Config{
			CompletenessThreshold: cfg.Matching.CompletenessThreshold,
			WeightsVersion:        cfg.Matching.WeightsVersion,
		},
		logger,
		scoring.WithMetrics(metrics.MatchRequestsTotal, metrics.MatchDuration, metrics.CriterionFallbackTotal),
	)
	cachedScorer := scoring.NewCachedScorer(scorer, chain, aggTier, cfg.Matching.WeightsVersion, logger)

	batchSvc := batchuc.New(cachedScorer, logger,
		batchuc.WithWorkers(cfg.Matching.BatchWorkers),
		batchuc.WithMaxPairs(cfg.Matching.MaxBatchPairs),
		batchuc.WithDefaultTimeout(time.Duration(cfg.Matching.BatchTimeoutSec)*time.Second),
		batchuc.WithPairCounter(metrics.BatchPairsTotal),
	)

	// Cache control: invalidations fan out to other replicas over pub/sub.
	cacheCtl := cachectl.New(chain, store, cfg.Cache.InvalidationChannel, batchSvc, logger)
	listenCtx, stopListen := context.WithCancel(ctx)
	defer stopListen()
	go func() {
		if err := cacheCtl.Listen(listenCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Cache invalidation listener stopped", zap.Error(err))
		}
	}()

	usageSvc := usageuc.New(quota)
	healthSvc := healthuc.New(store, breaker, lexChecker)

	server := chiTransport.NewServer(cachedScorer, batchSvc, cacheCtl, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stopListen()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildRouter assembles the lookup chain: HTTP client -> guard (quota, rate, semaphore, breaker).
func buildRouter(
	cfg config.RoutingConfig, chain *cache.Chain, quota *location.QuotaTracker, logger *zap.Logger,
) (*location.GuardedRouter, error) {
	client, err := routing.New(routing.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		Cache:   chain,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return location.NewGuardedRouter(client, location.GuardConfig{
		Timeout:           time.Duration(cfg.TimeoutSec) * time.Second,
		MaxConcurrent:     cfg.MaxConcurrent,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		BreakerFailures:   cfg.BreakerFailures,
		BreakerCooldown:   time.Duration(cfg.BreakerCooldownSec) * time.Second,
	}, quota, func(open bool) {
		if open {
			metrics.RoutingBreakerOpen.Set(1)
		} else {
			metrics.RoutingBreakerOpen.Set(0)
		}
	}, logger), nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
