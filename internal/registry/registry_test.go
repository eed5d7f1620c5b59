package registry

import (
	"testing"

	"github.com/gridwatch/gridwatch-orchestrator/internal/risk"
)

func TestSeedScoresAreDerived(t *testing.T) {
	r := NewRegistry()

	for _, s := range r.List() {
		want := risk.Derive(s.Telemetry)
		if s.RiskScore != want.RiskScore {
			t.Errorf("%s: seeded score %d does not match derived %d", s.ID, s.RiskScore, want.RiskScore)
		}
		if s.Status != want.Status {
			t.Errorf("%s: seeded status %s does not match derived %s", s.ID, s.Status, want.Status)
		}
	}
}

func TestNorthGridIsCritical(t *testing.T) {
	r := NewRegistry()

	s, ok := r.Get("grid_001")
	if !ok {
		t.Fatal("grid_001 missing from registry")
	}
	if s.Status != risk.StatusCritical {
		t.Errorf("expected grid_001 critical, got %s (score %d)", s.Status, s.RiskScore)
	}
	if len(s.ComponentsAtRisk) == 0 {
		t.Error("expected grid_001 to list components at risk")
	}
}

func TestReassessUpdatesScore(t *testing.T) {
	r := NewRegistry()

	calm := risk.Telemetry{Voltage: 230, Current: 120, Temperature: 30, LoadPercent: 25}
	s, err := r.Reassess("grid_001", calm)
	if err != nil {
		t.Fatalf("Reassess: %v", err)
	}
	if s.Status != risk.StatusHealthy {
		t.Errorf("expected healthy after calm telemetry, got %s (score %d)", s.Status, s.RiskScore)
	}

	// The stored copy was updated too
	got, _ := r.Get("grid_001")
	if got.RiskScore != s.RiskScore {
		t.Errorf("stored score %d differs from reassessed %d", got.RiskScore, s.RiskScore)
	}
}

func TestReassessUnknownSystem(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Reassess("grid_999", risk.Telemetry{}); err == nil {
		t.Error("expected error for unknown system")
	}
}

func TestCriticalFirstOrdering(t *testing.T) {
	r := NewRegistry()
	ordered := r.CriticalFirst()
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].RiskScore < ordered[i].RiskScore {
			t.Fatalf("systems not in descending risk order: %s(%d) before %s(%d)",
				ordered[i-1].ID, ordered[i-1].RiskScore, ordered[i].ID, ordered[i].RiskScore)
		}
	}
	if ordered[0].ID != "grid_001" {
		t.Errorf("expected grid_001 to carry the highest risk, got %s", ordered[0].ID)
	}
}
