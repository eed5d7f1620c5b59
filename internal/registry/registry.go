package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gridwatch/gridwatch-orchestrator/internal/risk"
)

// Component is a subsystem flagged as contributing to an asset's risk.
type Component struct {
	Name     string `json:"name"`
	Issue    string `json:"issue"`
	Severity string `json:"severity"` // low | medium | high
}

// System is a monitored infrastructure asset.
type System struct {
	ID               string         `json:"system_id"`
	Type             string         `json:"system_type"`
	Name             string         `json:"name"`
	Location         string         `json:"location"`
	Telemetry        risk.Telemetry `json:"telemetry"`
	RiskScore        int            `json:"risk_score"`
	Status           risk.Status    `json:"status"`
	ComponentsAtRisk []Component    `json:"components_at_risk,omitempty"`
}

// Registry holds the monitored assets and keeps their risk assessments
// current as telemetry changes.
type Registry struct {
	mu      sync.RWMutex
	systems map[string]*System
	order   []string
}

// NewRegistry returns a registry seeded with the demo fleet. Every seeded
// score is derived from its telemetry, never hand-assigned.
func NewRegistry() *Registry {
	r := &Registry{systems: make(map[string]*System)}
	for _, s := range seedSystems() {
		r.add(s)
	}
	return r
}

func (r *Registry) add(s System) {
	a := risk.Derive(s.Telemetry)
	s.RiskScore = a.RiskScore
	s.Status = a.Status
	r.systems[s.ID] = &s
	r.order = append(r.order, s.ID)
}

// List returns all systems in registration order.
func (r *Registry) List() []System {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]System, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.systems[id])
	}
	return out
}

// Get returns the system with the given id.
func (r *Registry) Get(id string) (System, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.systems[id]
	if !ok {
		return System{}, false
	}
	return *s, true
}

// Reassess replaces a system's telemetry and re-derives its risk.
func (r *Registry) Reassess(id string, t risk.Telemetry) (System, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.systems[id]
	if !ok {
		return System{}, fmt.Errorf("unknown system %q", id)
	}
	s.Telemetry = t
	a := risk.Derive(t)
	s.RiskScore = a.RiskScore
	s.Status = a.Status
	return *s, nil
}

// CriticalFirst returns systems ordered by descending risk score.
func (r *Registry) CriticalFirst() []System {
	out := r.List()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RiskScore > out[j].RiskScore
	})
	return out
}

func seedSystems() []System {
	return []System{
		{
			ID:       "grid_001",
			Type:     "power_grid",
			Name:     "North Power Grid",
			Location: "Northfield District",
			Telemetry: risk.Telemetry{
				Voltage: 246, Current: 528, Temperature: 72, LoadPercent: 96,
			},
			ComponentsAtRisk: []Component{
				{Name: "Transformer T-4", Issue: "Winding temperature above rating", Severity: "high"},
				{Name: "Feeder F-12", Issue: "Sustained overcurrent", Severity: "high"},
				{Name: "Bus Coupler BC-2", Issue: "Breaker cycling under load", Severity: "medium"},
			},
		},
		{
			ID:       "grid_002",
			Type:     "power_grid",
			Name:     "South Power Grid",
			Location: "Harbor District",
			Telemetry: risk.Telemetry{
				Voltage: 239, Current: 310, Temperature: 55, LoadPercent: 70,
			},
			ComponentsAtRisk: []Component{
				{Name: "Feeder F-3", Issue: "Load imbalance across phases", Severity: "medium"},
			},
		},
		{
			ID:       "hydro_001",
			Type:     "hydro_plant",
			Name:     "Riverside Hydro Plant",
			Location: "West River",
			Telemetry: risk.Telemetry{
				Voltage: 230, Current: 180, Temperature: 41, LoadPercent: 38,
			},
		},
		{
			ID:       "sewage_001",
			Type:     "sewage_plant",
			Name:     "Eastside Treatment Plant",
			Location: "East Basin",
			Telemetry: risk.Telemetry{
				Voltage: 228, Current: 150, Temperature: 46, LoadPercent: 52,
			},
		},
		{
			ID:       "substation_001",
			Type:     "substation",
			Name:     "Central Substation",
			Location: "City Center",
			Telemetry: risk.Telemetry{
				Voltage: 242, Current: 420, Temperature: 65, LoadPercent: 80,
			},
			ComponentsAtRisk: []Component{
				{Name: "Capacitor Bank CB-1", Issue: "Degraded power factor correction", Severity: "medium"},
			},
		},
		{
			ID:       "data_center_001",
			Type:     "data_center",
			Name:     "Lakeside Data Center",
			Location: "Lakeside Campus",
			Telemetry: risk.Telemetry{
				Voltage: 240, Current: 350, Temperature: 38, LoadPercent: 45,
			},
		},
	}
}
