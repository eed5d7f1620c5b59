// Package types defines the request and response bodies of the
// orchestrator's HTTP API.
package types

import (
	"github.com/gridwatch/gridwatch-orchestrator/internal/orchestrator"
	"github.com/gridwatch/gridwatch-orchestrator/internal/registry"
	"github.com/gridwatch/gridwatch-orchestrator/internal/session"
)

// ResolveRequest asks for the canonical catalog id of a local asset.
type ResolveRequest struct {
	LocalID   string `json:"local_id"`
	LocalType string `json:"local_type"`
}

// ResolveResponse carries the canonical id a local asset resolved to.
type ResolveResponse struct {
	SystemID string `json:"system_id"`
}

// RemediateRequest triggers a remediation run for a local asset.
type RemediateRequest struct {
	LocalID   string `json:"local_id"`
	LocalType string `json:"local_type"`
}

// RemediateResponse is the outcome of a remediation run.
type RemediateResponse struct {
	RunID    string                 `json:"runId"`
	Session  session.Session        `json:"session"`
	Solution *orchestrator.Solution `json:"solution,omitempty"`
}

// SessionResponse wraps the current session state.
type SessionResponse struct {
	Session session.Session `json:"session"`
}

// SystemsResponse lists the monitored assets.
type SystemsResponse struct {
	Systems []registry.System `json:"systems"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
