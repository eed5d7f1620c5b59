package prompt

import (
	"fmt"
	"strings"

	"github.com/gridwatch/gridwatch-orchestrator/internal/registry"
	"github.com/gridwatch/gridwatch-orchestrator/internal/risk"
)

// Build renders the remediation prompt dispatched to the agent. The prompt
// is deliberately compact: detected condition, live telemetry, flagged
// components, and hard execution constraints scoping the agent to one asset.
func Build(s registry.System) string {
	var b strings.Builder

	fmt.Fprintf(&b, "INCIDENT: %s (%s) is in %s state with risk score %d/100.\n\n",
		s.Name, s.ID, s.Status, s.RiskScore)

	b.WriteString("DETECTED CONDITION:\n")
	b.WriteString(describeCondition(s))
	b.WriteString("\n\nLIVE TELEMETRY:\n")
	fmt.Fprintf(&b, "- Voltage: %.1f V\n", s.Telemetry.Voltage)
	fmt.Fprintf(&b, "- Current: %.1f A\n", s.Telemetry.Current)
	fmt.Fprintf(&b, "- Temperature: %.1f C\n", s.Telemetry.Temperature)
	fmt.Fprintf(&b, "- Load: %.1f%%\n", s.Telemetry.LoadPercent)

	if len(s.ComponentsAtRisk) > 0 {
		b.WriteString("\nCOMPONENTS AT RISK:\n")
		for _, c := range s.ComponentsAtRisk {
			fmt.Fprintf(&b, "- %s [%s]: %s\n", c.Name, c.Severity, c.Issue)
		}
	}

	b.WriteString("\nTASK: Diagnose the root cause and propose a remediation plan. ")
	b.WriteString("Respond with JSON containing \"diagnosis\", \"riskLevel\" (healthy, risk, or critical), ")
	b.WriteString("\"recommendedActions\", \"executionCommands\", and \"confidence\" (0 to 1).\n")

	b.WriteString("\nEXECUTION CONSTRAINTS:\n")
	fmt.Fprintf(&b, "- Operate only on System ID %s. Do not touch any other asset.\n", s.ID)
	b.WriteString("- Prefer load shedding and rerouting over shutdowns.\n")
	b.WriteString("- Any destructive action must be listed, never executed directly.\n")

	return b.String()
}

// describeCondition summarizes what pushed the asset out of its healthy band.
func describeCondition(s registry.System) string {
	var parts []string
	if s.Telemetry.LoadPercent >= 90 {
		parts = append(parts, fmt.Sprintf("load at %.0f%% of capacity", s.Telemetry.LoadPercent))
	} else if s.Telemetry.LoadPercent >= 75 {
		parts = append(parts, fmt.Sprintf("elevated load (%.0f%%)", s.Telemetry.LoadPercent))
	}
	if s.Telemetry.Temperature >= 70 {
		parts = append(parts, fmt.Sprintf("overheating at %.0f C", s.Telemetry.Temperature))
	} else if s.Telemetry.Temperature >= 55 {
		parts = append(parts, fmt.Sprintf("elevated temperature (%.0f C)", s.Telemetry.Temperature))
	}
	if s.Telemetry.Current >= 500 {
		parts = append(parts, fmt.Sprintf("overcurrent at %.0f A", s.Telemetry.Current))
	}
	if len(parts) == 0 {
		if s.Status == risk.StatusHealthy {
			return "No acute fault detected; preventive review requested."
		}
		return "Composite risk elevated across multiple readings."
	}
	return "The asset is showing " + strings.Join(parts, ", ") + "."
}
