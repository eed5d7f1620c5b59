// Package catalog maintains a time-boxed cache of the upstream systems
// catalog: the enumeration of infrastructure systems the remediation agents
// can operate on, keyed by the canonical system_id.
//
// Responsibilities:
//   - Fetch the catalog over HTTP with a bounded timeout
//   - Normalize the heterogeneous payload shapes upstreams produce
//   - Serve a cached snapshot while it is inside the TTL window
//   - Replace the snapshot wholly on refresh (never merge)
//
// An expired snapshot is never served: once the TTL elapses the next call
// refetches, and a fetch failure propagates to the caller.
package catalog

import "time"

// Entry is one normalized catalog record. SystemID is the canonical
// identifier the upstream uses to address the system; it is the target of
// all resolution (see internal/resolve).
type Entry struct {
	SystemID   string `json:"system_id"`
	SystemType string `json:"system_type"`
	Name       string `json:"name,omitempty"`
}

// Snapshot is one whole fetched catalog with its fetch timestamp.
type Snapshot struct {
	Entries   []Entry
	FetchedAt time.Time
}

// Default bounds for the cache and the upstream fetch.
const (
	DefaultTTL          = 15 * time.Second
	DefaultFetchTimeout = 5 * time.Second
)
