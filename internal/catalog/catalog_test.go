package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

const sampleEntries = `[
	{"system_id": "grid_001", "system_type": "power_grid", "name": "North Power Grid"},
	{"system_id": "hydro_001", "system_type": "hydro_plant"}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, "", zap.NewNop(), opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, srv
}

// ─── Normalization ────────────────────────────────────────────────────────────

func TestNormalizeShapeVariants(t *testing.T) {
	payloads := map[string]string{
		"bare array":    sampleEntries,
		"systems key":   `{"systems": ` + sampleEntries + `}`,
		"data key":      `{"data": ` + sampleEntries + `}`,
		"items key":     `{"items": ` + sampleEntries + `}`,
		"field aliases": `[{"systemId":"grid_001","systemType":"power_grid","displayName":"North Power Grid"},{"id":"hydro_001","type":"hydro_plant"}]`,
	}

	want := []Entry{
		{SystemID: "grid_001", SystemType: "power_grid", Name: "North Power Grid"},
		{SystemID: "hydro_001", SystemType: "hydro_plant"},
	}

	for name, payload := range payloads {
		entries, err := normalizeCatalog([]byte(payload))
		if err != nil {
			t.Fatalf("%s: normalize: %v", name, err)
		}
		if len(entries) != len(want) {
			t.Fatalf("%s: expected %d entries, got %d", name, len(want), len(entries))
		}
		for i := range want {
			if entries[i] != want[i] {
				t.Errorf("%s: entry %d: expected %+v, got %+v", name, i, want[i], entries[i])
			}
		}
	}
}

func TestNormalizeDropsIncompleteEntries(t *testing.T) {
	payload := `[
		{"system_id": "grid_001", "system_type": "power_grid"},
		{"system_id": "no_type"},
		{"system_type": "orphan_type"},
		{"system_id": "  ", "system_type": "power_grid"},
		"not an object"
	]`

	entries, err := normalizeCatalog([]byte(payload))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(entries) != 1 || entries[0].SystemID != "grid_001" {
		t.Errorf("expected only grid_001 to survive, got %+v", entries)
	}
}

func TestNormalizeTrimsWhitespace(t *testing.T) {
	entries, err := normalizeCatalog([]byte(`[{"system_id":" grid_001 ","system_type":" power_grid ","name":" North "}]`))
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := Entry{SystemID: "grid_001", SystemType: "power_grid", Name: "North"}
	if entries[0] != want {
		t.Errorf("expected %+v, got %+v", want, entries[0])
	}
}

// ─── Cache behavior ───────────────────────────────────────────────────────────

func TestGetCatalogCachesWithinTTL(t *testing.T) {
	var calls atomic.Int64
	now := time.Now()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleEntries))
	}, WithClock(func() time.Time { return now }))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.GetCatalog(ctx); err != nil {
			t.Fatalf("GetCatalog #%d: %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 upstream call within the TTL, got %d", got)
	}

	// Advance past the TTL; the next read must refetch.
	now = now.Add(DefaultTTL + time.Second)
	if _, err := c.GetCatalog(ctx); err != nil {
		t.Fatalf("GetCatalog after expiry: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected a second upstream call after expiry, got %d", got)
	}
}

func TestGetCatalogExpiredCacheIsNeverServedStale(t *testing.T) {
	var calls atomic.Int64
	now := time.Now()

	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(sampleEntries))
			return
		}
		http.Error(w, "upstream down", http.StatusBadGateway)
	}, WithClock(func() time.Time { return now }))

	ctx := context.Background()
	if _, err := c.GetCatalog(ctx); err != nil {
		t.Fatalf("initial fetch: %v", err)
	}

	now = now.Add(DefaultTTL + time.Second)
	_, err := c.GetCatalog(ctx)

	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected UnavailableError after expiry, got %v", err)
	}
	if unavailable.Status != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", unavailable.Status)
	}
}

func TestGetCatalogEmptyIsNotCached(t *testing.T) {
	var calls atomic.Int64
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"systems": []}`))
			return
		}
		_, _ = w.Write([]byte(sampleEntries))
	})

	ctx := context.Background()
	if _, err := c.GetCatalog(ctx); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}

	// An empty result must not poison the cache; the retry goes upstream.
	snap, err := c.GetCatalog(ctx)
	if err != nil {
		t.Fatalf("retry after empty: %v", err)
	}
	if len(snap.Entries) != 2 {
		t.Errorf("expected 2 entries on retry, got %d", len(snap.Entries))
	}
}

func TestGetCatalogSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(sampleEntries))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, "secret-token", zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := c.GetCatalog(context.Background()); err != nil {
		t.Fatalf("GetCatalog: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
}
