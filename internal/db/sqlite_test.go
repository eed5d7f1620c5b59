package db

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// ─── Session blobs ────────────────────────────────────────────────────────────

func TestSessionBlobRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	payload := `{"status":"idle","metadata":{"schemaVersion":2}}`
	if err := s.SaveSessionBlob(ctx, SessionKey, payload); err != nil {
		t.Fatalf("SaveSessionBlob: %v", err)
	}

	got, err := s.LoadSessionBlob(ctx, SessionKey)
	if err != nil {
		t.Fatalf("LoadSessionBlob: %v", err)
	}
	if got != payload {
		t.Errorf("expected payload %q, got %q", payload, got)
	}

	// Overwrite replaces the whole blob
	updated := `{"status":"resolving","metadata":{"schemaVersion":2}}`
	if err := s.SaveSessionBlob(ctx, SessionKey, updated); err != nil {
		t.Fatalf("SaveSessionBlob overwrite: %v", err)
	}
	got, err = s.LoadSessionBlob(ctx, SessionKey)
	if err != nil {
		t.Fatalf("LoadSessionBlob after overwrite: %v", err)
	}
	if got != updated {
		t.Errorf("expected payload %q, got %q", updated, got)
	}
}

func TestSessionBlobAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.LoadSessionBlob(ctx, SessionKey)
	if err != nil {
		t.Fatalf("LoadSessionBlob: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty payload for absent key, got %q", got)
	}
}

func TestSessionBlobDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveSessionBlob(ctx, SessionKey, `{"status":"idle"}`); err != nil {
		t.Fatalf("SaveSessionBlob: %v", err)
	}
	if err := s.DeleteSessionBlob(ctx, SessionKey); err != nil {
		t.Fatalf("DeleteSessionBlob: %v", err)
	}

	got, err := s.LoadSessionBlob(ctx, SessionKey)
	if err != nil {
		t.Fatalf("LoadSessionBlob: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty payload after delete, got %q", got)
	}

	// Deleting an absent key is not an error
	if err := s.DeleteSessionBlob(ctx, SessionKey); err != nil {
		t.Errorf("DeleteSessionBlob absent key: %v", err)
	}
}

// ─── Audit events ─────────────────────────────────────────────────────────────

func TestAuditAppendAndQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Round(time.Second)
	events := []*AuditRecord{
		{RunID: "run-1", SystemID: "grid_001", Action: "remediation_triggered", Result: "success", Metadata: `{}`, Timestamp: base.Add(-2 * time.Minute)},
		{RunID: "run-1", SystemID: "grid_001", Action: "conversation_recovered", Result: "success", Metadata: `{}`, Timestamp: base.Add(-1 * time.Minute)},
		{RunID: "run-2", SystemID: "hydro_001", Action: "remediation_triggered", Result: "failure", Detail: "upstream unavailable", Metadata: `{}`, Timestamp: base},
	}
	for _, e := range events {
		if err := s.AppendAuditEvent(ctx, e); err != nil {
			t.Fatalf("AppendAuditEvent: %v", err)
		}
	}

	// All events, newest first
	got, err := s.QueryAuditEvents(ctx, AuditQuery{})
	if err != nil {
		t.Fatalf("QueryAuditEvents: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].RunID != "run-2" {
		t.Errorf("expected newest event first (run-2), got %s", got[0].RunID)
	}

	// Filter by run
	got, err = s.QueryAuditEvents(ctx, AuditQuery{RunID: "run-1"})
	if err != nil {
		t.Fatalf("QueryAuditEvents run filter: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 events for run-1, got %d", len(got))
	}

	// Filter by action
	got, err = s.QueryAuditEvents(ctx, AuditQuery{Action: "conversation_recovered"})
	if err != nil {
		t.Fatalf("QueryAuditEvents action filter: %v", err)
	}
	if len(got) != 1 || got[0].SystemID != "grid_001" {
		t.Errorf("unexpected events for action filter: %+v", got)
	}

	// Time window + limit
	got, err = s.QueryAuditEvents(ctx, AuditQuery{From: base.Add(-90 * time.Second), Limit: 1})
	if err != nil {
		t.Fatalf("QueryAuditEvents window: %v", err)
	}
	if len(got) != 1 || got[0].RunID != "run-2" {
		t.Errorf("expected single newest event run-2, got %+v", got)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newTestStore(t).(*sqliteStore)

	// Re-running migrate on an up-to-date store must be a no-op.
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if err := s.migrate(); err != nil {
		t.Fatalf("third migrate: %v", err)
	}
}
