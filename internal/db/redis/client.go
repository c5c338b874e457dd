package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/talentmatch/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	defaultClientName  = "talentmatch"
	defaultDialTimeout = 5 * time.Second

	readyBackoffMin = 50 * time.Millisecond
	readyBackoffMax = time.Second
)

// Config holds connection parameters. Redis and Valkey share the command set used here,
// so one client serves both drivers.
type Config struct {
	Addrs       []string
	Username    string
	Password    string
	DB          int
	ClientName  string
	DialTimeout time.Duration
	// WriteTimeout bounds a blocked connection write. Zero keeps the rueidis default.
	WriteTimeout time.Duration
}

// Store is the rueidis-backed cache store: plain keys for tier entries and quota counters,
// hashes for the per-candidate aggregate, pub/sub for invalidation events.
type Store struct {
	client rueidis.Client
}

// NewStore connects to the given addresses. Client-side caching stays off: every tier
// read must observe invalidations immediately.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("database: at least one address is required")
	}
	name := cfg.ClientName
	if name == "" {
		name = defaultClientName
	}
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = defaultDialTimeout
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:      cfg.Addrs,
		Username:         cfg.Username,
		Password:         cfg.Password,
		SelectDB:         cfg.DB,
		ClientName:       name,
		Dialer:           net.Dialer{Timeout: dial},
		ConnWriteTimeout: cfg.WriteTimeout,
		DisableCache:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("database: connect %v: %w", cfg.Addrs, err)
	}
	return &Store{client: client}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases every pooled connection, including subscriptions.
func (s *Store) Close() { s.client.Close() }

// WaitForReady pings with capped exponential backoff until the store answers
// or timeout expires. The last ping error is reported on timeout.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := readyBackoffMin
	for {
		lastErr := s.Ping(ctx)
		if lastErr == nil {
			return nil
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("database not ready after %s: %w", timeout, lastErr)
		case <-timer.C:
		}
		backoff = min(backoff*2, readyBackoffMax)
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}
