// Package session provides orchestration session state management.
//
// Responsibilities:
//   - Maintain the remediation session state machine
//   - Apply state transitions through a pure reducer
//   - Persist the session after every transition so it survives restarts
//   - Discard persisted state written under an older schema version
//   - Return terminal states (resolved, error) to idle after a short delay
//
// Session State Machine:
//
//   idle
//     ↓ (operator triggers remediation)
//   resolving
//     ↓ (conversation established, prompt dispatched)
//   agents_running
//     ↓ (agent reply parsed into a solution)
//   solution_ready
//     ↓ (reply carried execution commands)
//   execution_complete
//     ↓
//   resolved ──(delay)──→ idle
//
//   any state ──(failure)──→ error ──(delay)──→ idle
package session

import (
	"encoding/json"
	"time"
)

// SchemaVersion is the persisted session schema version. Blobs written under
// any other version are discarded on load rather than migrated.
const SchemaVersion = 2

// Status enumerates the remediation session states.
type Status string

const (
	StatusIdle              Status = "idle"
	StatusResolving         Status = "resolving"
	StatusAgentsRunning     Status = "agents_running"
	StatusSolutionReady     Status = "solution_ready"
	StatusExecutionComplete Status = "execution_complete"
	StatusResolved          Status = "resolved"
	StatusError             Status = "error"
)

// TraceStep is a single entry in the remediation progress trace shown to
// the operator. Agent, Detail and Timestamp record who reported what and
// when; ID, Label and Status drive the progress checklist.
type TraceStep struct {
	Agent     string    `json:"agent"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id,omitempty"`
	Label     string    `json:"label,omitempty"`
	Status    string    `json:"status,omitempty"` // pending | active | done | failed
}

// Metadata carries the session bookkeeping persisted alongside the state.
type Metadata struct {
	SchemaVersion     int       `json:"schemaVersion"`
	ConversationValid bool      `json:"conversationValid"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	SystemID          string    `json:"systemId,omitempty"`
	SystemName        string    `json:"systemName,omitempty"`
	BaseURL           string    `json:"baseUrl,omitempty"`
	PrePrompt         string    `json:"prePrompt,omitempty"`
}

// Session is the complete persisted remediation session state.
type Session struct {
	ConversationID string      `json:"conversationId,omitempty"`
	RunID          string      `json:"runId,omitempty"`
	Status         Status      `json:"status"`
	ChatURL        string      `json:"chatUrl,omitempty"`
	TraceSteps     []TraceStep `json:"traceSteps,omitempty"`
	Metadata       Metadata    `json:"metadata"`
	Error          string      `json:"error,omitempty"`
}

// New returns a fresh idle session stamped with the current schema version.
func New(now time.Time) Session {
	return Session{
		Status: StatusIdle,
		Metadata: Metadata{
			SchemaVersion: SchemaVersion,
			CreatedAt:     now.UTC(),
			UpdatedAt:     now.UTC(),
		},
	}
}

// Encode serializes the session for persistence.
func (s Session) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a persisted session blob. Returns false when the blob is
// malformed or was written under a different schema version; callers start
// from a fresh session in that case.
func Decode(raw string) (Session, bool) {
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Session{}, false
	}
	if s.Metadata.SchemaVersion != SchemaVersion {
		return Session{}, false
	}
	return s, true
}
