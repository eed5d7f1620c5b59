package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch-orchestrator/internal/db"
	"github.com/gridwatch/gridwatch-orchestrator/pkg/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

// handleReady reports readiness: the store must be reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	running := s.running
	s.mu.RUnlock()

	if !running || s.store.Ping(r.Context()) != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleSystems lists the monitored assets with their current risk.
func (s *Server) handleSystems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, types.SystemsResponse{Systems: s.registry.List()})
}

// handleResolve resolves a local asset id against the live catalog.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.LocalID) == "" {
		writeError(w, http.StatusBadRequest, "local_id is required")
		return
	}

	snap, err := s.catalog.GetCatalog(r.Context())
	if err != nil {
		s.log.Warn("catalog fetch failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "system catalog is unavailable")
		return
	}

	systemID, err := s.resolver.Resolve(req.LocalID, req.LocalType, snap.Entries)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.ResolveResponse{SystemID: systemID})
}

// handleRemediate runs a full remediation for the given asset.
func (s *Server) handleRemediate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.RemediateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.LocalID) == "" {
		writeError(w, http.StatusBadRequest, "local_id is required")
		return
	}

	res, err := s.orch.TriggerRemediation(r.Context(), req.LocalID, req.LocalType)
	if err != nil {
		// The session already carries the operator-facing failure; the
		// response reflects it so the caller need not poll.
		sess, serr := s.sessions.Current(r.Context())
		if serr != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusBadGateway, types.SessionResponse{Session: sess})
		return
	}

	writeJSON(w, http.StatusOK, types.RemediateResponse{
		RunID:    res.RunID,
		Session:  res.Session,
		Solution: res.Solution,
	})
}

// handleSession returns the current session state.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, err := s.sessions.Current(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.SessionResponse{Session: sess})
}

// handleSessionReset discards the session and starts fresh.
func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, err := s.sessions.Reset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.SessionResponse{Session: sess})
}

// handleAudit returns recent orchestration audit events.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := db.AuditQuery{
		RunID:    r.URL.Query().Get("run_id"),
		SystemID: r.URL.Query().Get("system_id"),
		Action:   r.URL.Query().Get("action"),
		Limit:    100,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
			q.Limit = n
		}
	}

	events, err := s.store.QueryAuditEvents(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if events == nil {
		events = []*db.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
