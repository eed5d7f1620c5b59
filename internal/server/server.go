package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch-orchestrator/internal/agent"
	"github.com/gridwatch/gridwatch-orchestrator/internal/catalog"
	"github.com/gridwatch/gridwatch-orchestrator/internal/config"
	"github.com/gridwatch/gridwatch-orchestrator/internal/db"
	"github.com/gridwatch/gridwatch-orchestrator/internal/middleware"
	"github.com/gridwatch/gridwatch-orchestrator/internal/orchestrator"
	"github.com/gridwatch/gridwatch-orchestrator/internal/registry"
	"github.com/gridwatch/gridwatch-orchestrator/internal/resolve"
	"github.com/gridwatch/gridwatch-orchestrator/internal/session"
)

// Server wires the orchestrator components behind the HTTP API.
type Server struct {
	cfg *config.Config
	log *zap.Logger

	// Core components
	store    db.Store
	sessions *session.Manager
	catalog  *catalog.Client
	resolver *resolve.Resolver
	orch     *orchestrator.Orchestrator
	registry *registry.Registry

	hub     *sessionHub
	limiter *middleware.RateLimiter

	// HTTP server
	httpServer *http.Server

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// State
	mu      sync.RWMutex
	running bool
}

// NewServer creates a server and initializes all components.
func NewServer(cfg *config.Config, log *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{
		cfg:    cfg,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := srv.initializeComponents(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}
	return srv, nil
}

// initializeComponents builds the component graph.
func (s *Server) initializeComponents() error {
	store, err := db.NewSQLiteStore(s.cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	s.store = store

	s.hub = newSessionHub(s.log)

	s.sessions = session.NewManager(store, s.log,
		session.WithIdleDelays(
			time.Duration(s.cfg.Session.ResolvedIdleSeconds)*time.Second,
			time.Duration(s.cfg.Session.ErrorIdleSeconds)*time.Second,
		),
		session.WithOnChange(s.hub.broadcast),
	)

	cat, err := catalog.NewClient(s.cfg.Catalog.URL, s.cfg.Catalog.BearerToken, s.log,
		catalog.WithTTL(time.Duration(s.cfg.Catalog.TTLSeconds)*time.Second),
		catalog.WithFetchTimeout(time.Duration(s.cfg.Catalog.TimeoutSeconds)*time.Second),
	)
	if err != nil {
		return fmt.Errorf("catalog client: %w", err)
	}
	s.catalog = cat

	s.resolver = resolve.NewResolver(resolve.ParseAliasMap(s.cfg.Resolver.AliasMap), s.log)

	agentClient := agent.NewClient(
		s.cfg.Agent.RuntimeBaseURL,
		s.cfg.Agent.ChatBaseURL,
		s.cfg.Agent.ConversationsURL,
		s.cfg.Agent.AgentID,
		s.cfg.Agent.APIKey,
		s.log,
		agent.WithTimeout(time.Duration(s.cfg.Agent.TimeoutSeconds)*time.Second),
	)

	s.registry = registry.NewRegistry()
	s.orch = orchestrator.New(cat, s.resolver, s.sessions, agentClient, s.registry, store, s.log)
	s.limiter = middleware.NewRateLimiter(s.cfg.Server.RateLimitPerMinute)
	return nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	mux := http.NewServeMux()
	s.registerHandlers(mux)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("starting HTTP server",
			zap.String("host", s.cfg.Server.Host),
			zap.Int("port", s.cfg.Server.Port))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("HTTP server error", zap.Error(err))
		}
	}()

	s.log.Info("orchestrator started",
		zap.String("catalog_url", s.cfg.Catalog.URL),
		zap.String("runtime_url", s.cfg.Agent.RuntimeBaseURL),
		zap.String("agent_id", s.cfg.Agent.AgentID))
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is not running")
	}
	s.running = false
	s.mu.Unlock()

	s.log.Info("stopping orchestrator")

	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("error shutting down HTTP server", zap.Error(err))
		}
	}

	s.cancel()
	s.wg.Wait()

	s.hub.closeAll()
	s.limiter.Stop()
	s.sessions.Close()
	if err := s.store.Close(); err != nil {
		s.log.Warn("error closing store", zap.Error(err))
	}

	s.log.Info("orchestrator stopped")
	return nil
}

// Wait blocks until the server is stopped.
func (s *Server) Wait() {
	<-s.ctx.Done()
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// registerHandlers registers HTTP handlers.
func (s *Server) registerHandlers(mux *http.ServeMux) {
	// Health and observability
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.Handle("/metrics", promhttp.Handler())

	// Core API. Remediation triggers fan out into upstream calls, so they
	// sit behind the rate limiter.
	mux.HandleFunc("/api/systems", s.handleSystems)
	mux.HandleFunc("/api/resolve", s.limiter.Wrap(s.handleResolve))
	mux.HandleFunc("/api/remediate", s.limiter.Wrap(s.handleRemediate))
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/session/reset", s.handleSessionReset)
	mux.HandleFunc("/api/audit", s.handleAudit)

	// Session snapshot stream
	mux.HandleFunc("/ws/session", s.handleSessionSocket)
}
