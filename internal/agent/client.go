package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch-orchestrator/internal/metrics"
)

// DefaultTimeout bounds a single runtime call.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of an upstream response body we read.
const maxResponseBytes = 1 << 20

// Conversation identifies an established remediation conversation.
type Conversation struct {
	ID      string `json:"conversationId"`
	ChatURL string `json:"chatUrl"`
}

// Client talks to the agent runtime over HTTP/JSON.
type Client struct {
	runtimeBaseURL   string
	chatBaseURL      string
	conversationsURL string
	agentID          string
	apiKey           string

	httpClient *http.Client
	log        *zap.Logger
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an agent runtime client. conversationsURL is optional;
// when empty, conversations are derived from the configured agent id.
func NewClient(runtimeBaseURL, chatBaseURL, conversationsURL, agentID, apiKey string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		runtimeBaseURL:   strings.TrimRight(runtimeBaseURL, "/"),
		chatBaseURL:      strings.TrimRight(chatBaseURL, "/"),
		conversationsURL: conversationsURL,
		agentID:          agentID,
		apiKey:           apiKey,
		httpClient:       &http.Client{Timeout: DefaultTimeout},
		log:              log,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChatURL returns the operator-facing chat URL for the configured agent.
func (c *Client) ChatURL() string {
	return c.chatBaseURL + "/chat/new?agent_id=" + url.QueryEscape(c.agentID)
}

// CreateConversation establishes a conversation with the remediation agent.
// When a conversations endpoint is configured it is asked for one; otherwise
// the conversation is derived from the agent id.
func (c *Client) CreateConversation(ctx context.Context) (*Conversation, error) {
	if c.agentID == "" {
		return nil, &NotConfiguredError{}
	}

	if c.conversationsURL == "" {
		return &Conversation{ID: c.agentID, ChatURL: c.ChatURL()}, nil
	}

	payload, _ := json.Marshal(map[string]string{"agent_id": c.agentID})
	body, status, err := c.post(ctx, "create_conversation", c.conversationsURL, payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		msg := extractErrorMessage(body)
		return nil, &UpstreamError{Kind: classify(status, msg), Status: status, Message: msg}
	}

	conv := parseConversation(body)
	if conv.ID == "" {
		return nil, &UpstreamError{Kind: KindUpstream, Status: status, Message: "conversation response carried no id"}
	}
	if conv.ChatURL == "" {
		conv.ChatURL = c.ChatURL()
	}
	return &conv, nil
}

// SendMessage dispatches a remediation prompt into the conversation and
// returns the agent's reply text.
func (c *Client) SendMessage(ctx context.Context, conversationID, runID, systemName, text string) (string, error) {
	envelope := map[string]any{
		"jsonrpc": "2.0",
		"id":      c.now().UnixMilli(),
		"method":  "message/send",
		"params": map[string]any{
			"message": map[string]any{
				"role": "user",
				"parts": []map[string]any{
					{"kind": "text", "text": text},
				},
				"metadata": map[string]any{
					"source":     "gridwatch-orchestrator",
					"runId":      runID,
					"systemName": systemName,
				},
			},
		},
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("marshal message envelope: %w", err)
	}

	endpoint := c.runtimeBaseURL + "/v1/a2a/" + url.PathEscape(conversationID)
	body, status, err := c.post(ctx, "message_send", endpoint, payload)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		msg := extractErrorMessage(body)
		return "", &UpstreamError{Kind: classify(status, msg), Status: status, Message: msg}
	}

	// A JSON-RPC error can arrive under HTTP 200.
	if msg := rpcError(body); msg != "" {
		return "", &UpstreamError{Kind: classify(status, msg), Status: status, Message: msg}
	}

	reply := extractReplyText(body)
	if reply == "" {
		return "", &UpstreamError{Kind: KindUpstream, Status: status, Message: "agent reply carried no text"}
	}
	return reply, nil
}

// post runs a timed, instrumented POST and returns the body and status.
func (c *Client) post(ctx context.Context, method, endpoint string, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.AgentRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AgentRequestsTotal.WithLabelValues(method, "transport_error").Inc()
		return nil, 0, &UpstreamError{Kind: KindUpstream, Message: err.Error()}
	}
	defer resp.Body.Close()

	metrics.AgentRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, &UpstreamError{Kind: KindUpstream, Status: resp.StatusCode, Message: err.Error()}
	}

	c.log.Debug("agent runtime call",
		zap.String("method", method),
		zap.Int("status", resp.StatusCode))
	return body, resp.StatusCode, nil
}

// parseConversation tolerates the field name variants runtimes use.
func parseConversation(body []byte) Conversation {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return Conversation{}
	}
	conv := Conversation{
		ID:      firstStringField(payload, []string{"conversationId", "conversation_id", "id"}),
		ChatURL: firstStringField(payload, []string{"chatUrl", "chat_url"}),
	}
	return conv
}

// rpcError returns the message of a JSON-RPC error envelope, or "".
func rpcError(body []byte) string {
	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Error) == 0 || string(payload.Error) == "null" {
		return ""
	}
	return extractErrorMessage(body)
}
