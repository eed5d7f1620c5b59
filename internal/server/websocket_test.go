package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gridwatch/gridwatch-orchestrator/internal/session"
)

func startWSServer(t *testing.T, srv *Server) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv.registerHandlers(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/session"
}

func TestSessionSocketInitialSnapshot(t *testing.T) {
	cat := fakeCatalogServer(t)
	defer cat.Close()
	srv := buildTestServer(t, cat.URL, "http://runtime")
	ts := startWSServer(t, srv)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var snap session.Session
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if snap.Status != session.StatusIdle {
		t.Errorf("expected idle snapshot on connect, got %s", snap.Status)
	}
}

func TestSessionSocketStreamsTransitions(t *testing.T) {
	cat := fakeCatalogServer(t)
	defer cat.Close()
	srv := buildTestServer(t, cat.URL, "http://runtime")
	ts := startWSServer(t, srv)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Drain the initial snapshot
	var snap session.Session
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}

	if _, err := srv.sessions.Dispatch(context.Background(), session.Action{
		Type:  session.ActionStartRun,
		RunID: "run-ws",
	}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read transition snapshot: %v", err)
	}
	if snap.RunID != "run-ws" || snap.Status != session.StatusResolving {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestSessionSocketRejectsDisallowedOrigin(t *testing.T) {
	cat := fakeCatalogServer(t)
	defer cat.Close()
	srv := buildTestServer(t, cat.URL, "http://runtime")
	srv.cfg.Server.AllowedOrigins = []string{"https://console.example.com"}
	ts := startWSServer(t, srv)

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	if err == nil {
		t.Fatal("expected handshake rejection for disallowed origin")
	}
	if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}
}

func TestSessionSocketAllowsConfiguredOrigin(t *testing.T) {
	cat := fakeCatalogServer(t)
	defer cat.Close()
	srv := buildTestServer(t, cat.URL, "http://runtime")
	srv.cfg.Server.AllowedOrigins = []string{"https://console.example.com"}
	ts := startWSServer(t, srv)

	header := http.Header{"Origin": []string{"https://console.example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), header)
	if err != nil {
		t.Fatalf("expected handshake to succeed, got %v", err)
	}
	conn.Close()
}
