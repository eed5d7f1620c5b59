package db

import (
	"context"
	"time"
)

// Store is the main persistence interface for the orchestrator.
type Store interface {
	SessionStore
	AuditStore

	// Close releases database resources.
	Close() error

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
}

// ─── Session store ───────────────────────────────────────────────────────────

// SessionKey is the storage key for the singleton orchestration session blob.
const SessionKey = "gridwatch.orchestration.session.v1"

// SessionStore persists the orchestration session as a single versioned JSON
// blob. The blob's internal schema version is owned by the session package;
// this layer stores and returns it opaquely.
type SessionStore interface {
	// SaveSessionBlob writes (or overwrites) the blob stored under key.
	SaveSessionBlob(ctx context.Context, key, payload string) error

	// LoadSessionBlob reads the blob stored under key.
	// Returns "", nil when no blob has been saved yet.
	LoadSessionBlob(ctx context.Context, key string) (string, error)

	// DeleteSessionBlob removes the blob stored under key, if present.
	DeleteSessionBlob(ctx context.Context, key string) error
}

// ─── Audit store ─────────────────────────────────────────────────────────────

// AuditRecord is a persisted orchestration audit event.
type AuditRecord struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	SystemID  string    `json:"system_id"`
	Action    string    `json:"action"` // e.g. remediation_triggered, conversation_recovered
	Detail    string    `json:"detail"`
	Result    string    `json:"result"` // success | failure | ""
	Metadata  string    `json:"metadata"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditQuery filters audit event retrieval.
type AuditQuery struct {
	RunID    string
	SystemID string
	Action   string
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

// AuditStore persists orchestration audit events across restarts.
type AuditStore interface {
	// AppendAuditEvent writes a single audit event.
	AppendAuditEvent(ctx context.Context, rec *AuditRecord) error

	// QueryAuditEvents retrieves events matching the query, newest first.
	QueryAuditEvents(ctx context.Context, q AuditQuery) ([]*AuditRecord, error)
}
