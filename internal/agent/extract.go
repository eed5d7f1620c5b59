package agent

import (
	"encoding/json"
	"strings"
)

// textKeys are the top-level fields a runtime may use for a plain reply.
var textKeys = []string{"output", "response", "content", "text", "message"}

// extractReplyText pulls the agent's reply text out of a response envelope.
// Shapes tolerated, in order:
//   - a top-level string under output/response/content/text/message
//   - the same keys under "result"
//   - result.message.parts[].text (or .content), concatenated
//   - result.message.content or result.message.text
//
// Returns "" when no text can be found.
func extractReplyText(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if s := firstStringField(payload, textKeys); s != "" {
		return s
	}

	raw, ok := payload["result"]
	if !ok {
		return ""
	}
	var result map[string]json.RawMessage
	if err := json.Unmarshal(raw, &result); err != nil {
		// result itself may be a bare string
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return strings.TrimSpace(s)
		}
		return ""
	}

	if s := firstStringField(result, textKeys); s != "" {
		return s
	}

	msgRaw, ok := result["message"]
	if !ok {
		return ""
	}
	var msg struct {
		Parts []struct {
			Text    string `json:"text"`
			Content string `json:"content"`
		} `json:"parts"`
		Content string `json:"content"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal(msgRaw, &msg); err != nil {
		return ""
	}

	if len(msg.Parts) > 0 {
		var b strings.Builder
		for _, p := range msg.Parts {
			if p.Text != "" {
				b.WriteString(p.Text)
			} else if p.Content != "" {
				b.WriteString(p.Content)
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s
		}
	}
	if msg.Content != "" {
		return strings.TrimSpace(msg.Content)
	}
	return strings.TrimSpace(msg.Text)
}

// firstStringField returns the first non-empty string value among keys.
func firstStringField(obj map[string]json.RawMessage, keys []string) string {
	for _, key := range keys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
