// Package routing is the HTTP client of the external geocoding and routing service.
package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/talentmatch/internal/domain"
	"github.com/kailas-cloud/talentmatch/internal/domain/geo"
	"github.com/kailas-cloud/talentmatch/internal/repository/cache"
	"github.com/kailas-cloud/talentmatch/internal/usecase/location"
)

// DefaultTimeout bounds one HTTP call.
const DefaultTimeout = 5 * time.Second

const maxBodyBytes = 1 << 20

// pointCache stores geocoding results (ISP).
type pointCache interface {
	Get(ctx context.Context, key cache.Key) (cache.Entry, bool)
	Put(ctx context.Context, key cache.Key, value []byte) cache.Entry
}

// Config holds client settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Cache keeps geocoding results under the travel TTL class. Optional.
	Cache  pointCache
	Logger *zap.Logger
}

// Client resolves addresses with GET /geocode and travel times with GET /route.
type Client struct {
	base    *url.URL
	apiKey  string
	timeout time.Duration
	http    *http.Client
	cache   pointCache
	logger  *zap.Logger
}

var _ location.Router = (*Client)(nil)

// New creates a routing client.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid routing base url %q", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		base:    base,
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		http:    cfg.HTTPClient,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
	}, nil
}

type geocodeResponse struct {
	Results []struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"results"`
}

type routeResponse struct {
	DurationSeconds float64 `json:"duration_s"`
	DistanceMeters  float64 `json:"distance_m"`
}

// Route geocodes both ends when they carry no coordinates, then asks for the travel time.
func (c *Client) Route(ctx context.Context, origin, dest domain.Location, mode geo.Mode) (location.TravelTime, error) {
	from, err := c.pointOf(ctx, origin)
	if err != nil {
		return location.TravelTime{}, err
	}
	to, err := c.pointOf(ctx, dest)
	if err != nil {
		return location.TravelTime{}, err
	}

	q := url.Values{}
	q.Set("from", formatPoint(from))
	q.Set("to", formatPoint(to))
	q.Set("mode", string(mode))

	var resp routeResponse
	if err := c.get(ctx, "/route", q, &resp); err != nil {
		return location.TravelTime{}, fmt.Errorf("route: %w", err)
	}
	if resp.DurationSeconds < 0 || resp.DistanceMeters < 0 {
		return location.TravelTime{}, fmt.Errorf("route: negative travel time: %w", domain.ErrLookupUnavailable)
	}
	return location.TravelTime{
		Minutes:    resp.DurationSeconds / 60,
		DistanceKm: resp.DistanceMeters / 1000,
		Mode:       mode,
		Source:     location.SourceRouting,
	}, nil
}

// Geocode resolves a free-form address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (geo.Point, error) {
	query := geo.Fold(address)
	if query == "" {
		return geo.Point{}, fmt.Errorf("geocode: empty address: %w", domain.ErrLookupUnavailable)
	}
	key := location.GeocodeKey(query)
	if p, ok := c.cachedPoint(ctx, key); ok {
		return p, nil
	}

	var resp geocodeResponse
	if err := c.get(ctx, "/geocode", url.Values{"q": {address}}, &resp); err != nil {
		return geo.Point{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(resp.Results) == 0 {
		return geo.Point{}, fmt.Errorf("geocode %q: no match: %w", address, domain.ErrLookupUnavailable)
	}
	p := geo.Point{Lat: resp.Results[0].Lat, Lng: resp.Results[0].Lng}
	if c.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			c.cache.Put(ctx, key, data)
		}
	}
	return p, nil
}

// HealthCheck probes the service root.
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.get(ctx, "/health", nil, nil)
}

func (c *Client) pointOf(ctx context.Context, l domain.Location) (geo.Point, error) {
	if p, ok := l.Point(); ok {
		return p, nil
	}
	return c.Geocode(ctx, l.Text())
}

func (c *Client) cachedPoint(ctx context.Context, key cache.Key) (geo.Point, bool) {
	if c.cache == nil {
		return geo.Point{}, false
	}
	e, ok := c.cache.Get(ctx, key)
	if !ok {
		return geo.Point{}, false
	}
	var p geo.Point
	if err := json.Unmarshal(e.Value, &p); err != nil {
		return geo.Point{}, false
	}
	return p, true
}

// get performs one GET call and decodes a JSON body into out (when non-nil).
// Every failure unwraps to ErrLookupUnavailable.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.base
	u.Path += path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", errors.Join(err, domain.ErrLookupUnavailable))
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, errors.Join(err, domain.ErrLookupUnavailable))
	}
	defer resp.Body.Close()
	c.logger.Debug("Routing call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("bad status: %s: %w", resp.Status, errors.Join(domain.ErrRateLimited, domain.ErrLookupUnavailable))
		}
		return fmt.Errorf("bad status: %s: %w", resp.Status, domain.ErrLookupUnavailable)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, errors.Join(err, domain.ErrLookupUnavailable))
	}
	return nil
}

func formatPoint(p geo.Point) string {
	return strconv.FormatFloat(p.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lng, 'f', 6, 64)
}
