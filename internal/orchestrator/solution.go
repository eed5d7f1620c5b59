package orchestrator

import (
	"encoding/json"
	"strings"
)

// proseConfidence is reported when a reply carries no structured
// confidence figure.
const proseConfidence = 0.5

// Solution is the structured remediation plan extracted from an agent reply.
type Solution struct {
	Diagnosis          string   `json:"diagnosis"`
	RiskLevel          string   `json:"riskLevel,omitempty"`
	RecommendedActions []string `json:"recommendedActions,omitempty"`
	ExecutionCommands  []string `json:"executionCommands,omitempty"`
	Confidence         float64  `json:"confidence,omitempty"`
	Raw                string   `json:"raw,omitempty"`
}

// ParseSolution extracts a structured solution from the agent's reply text.
// Replies are expected as JSON but often arrive fenced in markdown or
// wrapped in prose; a reply with no parseable JSON becomes a plain-text
// diagnosis rather than a failure. Field names vary across agent builds,
// so snake_case spellings are accepted alongside the canonical ones.
func ParseSolution(reply string) *Solution {
	text := strings.TrimSpace(reply)

	if candidate := jsonCandidate(text); candidate != "" {
		var aux struct {
			Diagnosis          string   `json:"diagnosis"`
			RiskLevel          string   `json:"riskLevel"`
			RecommendedActions []string `json:"recommendedActions"`
			ExecutionCommands  []string `json:"executionCommands"`
			Confidence         float64  `json:"confidence"`
			RemediationSteps   []string `json:"remediation_steps"`
			ExecCommandsSnake  []string `json:"execution_commands"`
		}
		if err := json.Unmarshal([]byte(candidate), &aux); err == nil {
			if len(aux.RecommendedActions) == 0 {
				aux.RecommendedActions = aux.RemediationSteps
			}
			if len(aux.ExecutionCommands) == 0 {
				aux.ExecutionCommands = aux.ExecCommandsSnake
			}
			if aux.Diagnosis != "" || len(aux.RecommendedActions) > 0 || len(aux.ExecutionCommands) > 0 {
				sol := &Solution{
					Diagnosis:          aux.Diagnosis,
					RiskLevel:          aux.RiskLevel,
					RecommendedActions: aux.RecommendedActions,
					ExecutionCommands:  aux.ExecutionCommands,
					Confidence:         aux.Confidence,
					Raw:                text,
				}
				if sol.Confidence <= 0 {
					sol.Confidence = proseConfidence
				}
				return sol
			}
		}
	}

	return &Solution{Diagnosis: text, Confidence: proseConfidence, Raw: text}
}

// jsonCandidate strips markdown fences and trims to the outermost object.
func jsonCandidate(text string) string {
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			text = rest[:j]
		} else {
			text = rest
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}
