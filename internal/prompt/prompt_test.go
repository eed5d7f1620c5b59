package prompt

import (
	"strings"
	"testing"

	"github.com/gridwatch/gridwatch-orchestrator/internal/registry"
	"github.com/gridwatch/gridwatch-orchestrator/internal/risk"
)

func criticalSystem() registry.System {
	return registry.System{
		ID:     "grid_001",
		Type:   "power_grid",
		Name:   "North Power Grid",
		Status: risk.StatusCritical,
		Telemetry: risk.Telemetry{
			Voltage: 246, Current: 528, Temperature: 72, LoadPercent: 96,
		},
		RiskScore: 87,
		ComponentsAtRisk: []registry.Component{
			{Name: "Transformer T-4", Issue: "Winding temperature above rating", Severity: "high"},
		},
	}
}

func TestBuildScopesToSystemID(t *testing.T) {
	p := Build(criticalSystem())

	if !strings.Contains(p, "Operate only on System ID grid_001") {
		t.Error("prompt missing the system scoping constraint")
	}
	if !strings.Contains(p, "North Power Grid") {
		t.Error("prompt missing the system name")
	}
}

func TestBuildIncludesTelemetryAndComponents(t *testing.T) {
	p := Build(criticalSystem())

	for _, want := range []string{"528.0 A", "96.0%", "72.0 C", "Transformer T-4"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildConditionSummary(t *testing.T) {
	p := Build(criticalSystem())
	if !strings.Contains(p, "load at 96% of capacity") {
		t.Errorf("expected load condition in prompt, got:\n%s", p)
	}
	if !strings.Contains(p, "overcurrent at 528 A") {
		t.Errorf("expected overcurrent condition in prompt, got:\n%s", p)
	}

	healthy := criticalSystem()
	healthy.Status = risk.StatusHealthy
	healthy.Telemetry = risk.Telemetry{Voltage: 230, Current: 100, Temperature: 30, LoadPercent: 20}
	p = Build(healthy)
	if !strings.Contains(p, "No acute fault detected") {
		t.Errorf("expected preventive wording for healthy asset, got:\n%s", p)
	}
}
