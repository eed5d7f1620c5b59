package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an upstream agent failure.
type Kind string

const (
	// KindUpstream is a generic runtime failure.
	KindUpstream Kind = "upstream"

	// KindAuthRequired means the runtime rejected our credentials or the
	// operator's runtime session has expired.
	KindAuthRequired Kind = "auth_required"

	// KindConversationNotFound means the conversation we addressed no
	// longer exists upstream and must be recreated.
	KindConversationNotFound Kind = "conversation_not_found"
)

// UpstreamError is a classified failure from the agent runtime.
type UpstreamError struct {
	Kind    Kind
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("agent runtime error (%s, status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("agent runtime error (%s): %s", e.Kind, e.Message)
}

// NotConfiguredError means no agent id is configured, so no conversation
// can be established.
type NotConfiguredError struct{}

func (e *NotConfiguredError) Error() string {
	return "no remediation agent configured"
}

// classify maps an HTTP status and upstream message onto an error kind.
// Order matters: an explicit 401 wins, then conversation loss, then the
// looser auth hints.
func classify(status int, msg string) Kind {
	if status == 401 {
		return KindAuthRequired
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "conversation not found") || strings.Contains(lower, "404") {
		return KindConversationNotFound
	}
	if strings.Contains(lower, "sign in") || strings.Contains(lower, "session") {
		return KindAuthRequired
	}
	return KindUpstream
}

// IsConversationNotFound reports whether err is a conversation-loss failure.
func IsConversationNotFound(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Kind == KindConversationNotFound
}

// IsAuthRequired reports whether err is an authentication failure.
func IsAuthRequired(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Kind == KindAuthRequired
}

// extractErrorMessage pulls a human-readable message out of an upstream
// error body. Runtimes disagree on the envelope, so several shapes are
// tolerated before falling back to the raw body.
func extractErrorMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		if raw, ok := payload["error"]; ok {
			var s string
			if json.Unmarshal(raw, &s) == nil && s != "" {
				return s
			}
			var nested map[string]json.RawMessage
			if json.Unmarshal(raw, &nested) == nil {
				for _, key := range []string{"message", "error"} {
					if inner, ok := nested[key]; ok {
						if json.Unmarshal(inner, &s) == nil && s != "" {
							return s
						}
					}
				}
			}
		}
		if raw, ok := payload["message"]; ok {
			var s string
			if json.Unmarshal(raw, &s) == nil && s != "" {
				return s
			}
		}
	}
	return strings.TrimSpace(string(body))
}
