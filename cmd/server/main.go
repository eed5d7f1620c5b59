// Package main is the entry point for the gridwatch-orchestrator server.
//
// Responsibilities:
//   - Load and validate configuration from YAML and environment variables
//   - Initialize structured logging with rotation
//   - Open the SQLite persistence layer (session + audit trail)
//   - Wire the catalog client, resolver, session manager, agent client,
//     and orchestrator behind the HTTP API
//   - Serve the session snapshot WebSocket stream and Prometheus metrics
//   - Implement graceful shutdown on SIGINT/SIGTERM
//
// Architecture Flow:
//   1. Catalog upstream → cached snapshot → resolver (canonical asset ids)
//   2. Operator trigger → orchestrator → agent runtime conversation
//   3. Session state machine persisted per transition, streamed over WebSocket
//   4. REST API + /metrics expose state to the control surface
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch-orchestrator/internal/config"
	"github.com/gridwatch/gridwatch-orchestrator/internal/logging"
	"github.com/gridwatch/gridwatch-orchestrator/internal/server"
)

func main() {
	configPath := flag.String("config", "/etc/gridwatch/orchestrator.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	mgr, err := config.NewManager(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create config manager: %v\n", err)
		os.Exit(1)
	}
	if err := mgr.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := mgr.Validate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	cfg := mgr.Get(ctx)

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.Path = cfg.Logging.Path

	log, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		log.Fatal("failed to create server", zap.Error(err))
	}
	if err := srv.Start(); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}

	// Config file changes are picked up for the next restart; log them so
	// operators know a reload is pending.
	go func() {
		for range mgr.Watch(ctx) {
			log.Info("configuration file changed, restart to apply")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info("received shutdown signal")

	if err := srv.Stop(); err != nil {
		log.Error("error stopping server", zap.Error(err))
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
