// Package risk derives a bounded risk score and a tri-state status from an
// asset's telemetry snapshot. The derivation is stateless: identical input
// always yields identical output, so callers may re-run it freely whenever
// telemetry or remediation outcomes change an asset's displayed state.
package risk

import "math"

// Status is the operator-facing health classification of an asset.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusRisk     Status = "risk"
	StatusCritical Status = "critical"
)

// Telemetry is one sampled reading from an infrastructure asset.
type Telemetry struct {
	Voltage     float64 `json:"voltage"`
	Current     float64 `json:"current"`
	Temperature float64 `json:"temperature"`
	LoadPercent float64 `json:"load_percent"`
}

// Assessment is the derived risk for one telemetry reading.
type Assessment struct {
	RiskScore int    `json:"risk_score"`
	Status    Status `json:"status"`
}

// Weighting of the telemetry channels. Current is normalized against the
// 560A instrument ceiling before weighting.
const (
	loadWeight    = 0.55
	tempWeight    = 0.35
	currentWeight = 0.10
	currentCeil   = 560.0

	minScore = 5
	maxScore = 99
)

// Derive computes the bounded risk score and status for a telemetry reading.
func Derive(t Telemetry) Assessment {
	raw := t.LoadPercent*loadWeight +
		t.Temperature*tempWeight +
		(t.Current/currentCeil)*100*currentWeight

	score := int(math.Round(clamp(raw, minScore, maxScore)))
	return Assessment{RiskScore: score, Status: StatusFromScore(score)}
}

// StatusFromScore maps a risk score onto the tri-state status.
func StatusFromScore(score int) Status {
	switch {
	case score >= 85:
		return StatusCritical
	case score >= 60:
		return StatusRisk
	default:
		return StatusHealthy
	}
}

func clamp(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
