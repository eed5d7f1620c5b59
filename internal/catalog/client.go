package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch-orchestrator/internal/metrics"
)

// Client fetches and caches the upstream systems catalog.
//
// The cached snapshot is authoritative while now < FetchedAt+ttl; inside that
// window GetCatalog never touches the network. Outside it the snapshot is
// discarded entirely: a refresh failure after expiry propagates rather than
// serving stale data.
type Client struct {
	url        string
	token      string
	ttl        time.Duration
	httpClient *http.Client
	log        *zap.Logger

	mu     sync.Mutex
	cached *Snapshot

	now func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTTL overrides the snapshot TTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// WithFetchTimeout overrides the upstream fetch timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a catalog client. token may be empty; when set it is sent
// as a bearer token on every fetch.
func NewClient(url, token string, log *zap.Logger, opts ...Option) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("catalog url is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{
		url:        url,
		token:      token,
		ttl:        DefaultTTL,
		httpClient: &http.Client{Timeout: DefaultFetchTimeout},
		log:        log,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetCatalog returns the cached snapshot when it is inside the TTL window,
// otherwise fetches, normalizes, and replaces the cache atomically from the
// caller's perspective.
func (c *Client) GetCatalog(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.cached != nil && now.Before(c.cached.FetchedAt.Add(c.ttl)) {
		metrics.CatalogCacheHitsTotal.Inc()
		return c.cached, nil
	}

	entries, err := c.fetch(ctx)
	if err != nil {
		metrics.CatalogFetchesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(entries) == 0 {
		metrics.CatalogFetchesTotal.WithLabelValues("empty").Inc()
		return nil, ErrEmptyCatalog
	}

	metrics.CatalogFetchesTotal.WithLabelValues("success").Inc()
	c.cached = &Snapshot{Entries: entries, FetchedAt: now}
	c.log.Debug("systems catalog refreshed",
		zap.Int("entries", len(entries)),
		zap.Time("fetched_at", now))
	return c.cached, nil
}

// Invalidate drops the cached snapshot so the next read refetches.
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}

func (c *Client) fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &UnavailableError{URL: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UnavailableError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &UnavailableError{URL: c.url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UnavailableError{URL: c.url, Err: err}
	}

	entries, err := normalizeCatalog(body)
	if err != nil {
		return nil, &UnavailableError{URL: c.url, Err: fmt.Errorf("invalid catalog payload: %w", err)}
	}
	return entries, nil
}
