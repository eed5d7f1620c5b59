package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewRejectsInvalidLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "verbose"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orchestrator.log")
	cfg := DefaultConfig()
	cfg.Path = path

	log, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	log.Info("remediation completed", zap.String("run_id", "run-1"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"message":"remediation completed"`) {
		t.Errorf("expected structured message in log file, got %s", out)
	}
	if !strings.Contains(out, `"run_id":"run-1"`) {
		t.Errorf("expected field in log file, got %s", out)
	}
}

func TestNewStderrOnlyWhenNoPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = ""
	log, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// No file sink configured; logging must still work.
	log.Info("stderr only")
}
