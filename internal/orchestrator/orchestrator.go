package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch-orchestrator/internal/agent"
	"github.com/gridwatch/gridwatch-orchestrator/internal/catalog"
	"github.com/gridwatch/gridwatch-orchestrator/internal/db"
	"github.com/gridwatch/gridwatch-orchestrator/internal/metrics"
	"github.com/gridwatch/gridwatch-orchestrator/internal/prompt"
	"github.com/gridwatch/gridwatch-orchestrator/internal/registry"
	"github.com/gridwatch/gridwatch-orchestrator/internal/resolve"
	"github.com/gridwatch/gridwatch-orchestrator/internal/session"
)

// CatalogSource supplies the canonical system catalog.
type CatalogSource interface {
	GetCatalog(ctx context.Context) (*catalog.Snapshot, error)
}

// AgentClient is the slice of the runtime client the orchestrator needs.
type AgentClient interface {
	CreateConversation(ctx context.Context) (*agent.Conversation, error)
	SendMessage(ctx context.Context, conversationID, runID, systemName, text string) (string, error)
	ChatURL() string
}

// Result is the outcome of a completed remediation run.
type Result struct {
	RunID    string          `json:"runId"`
	Session  session.Session `json:"session"`
	Solution *Solution       `json:"solution,omitempty"`
}

// Orchestrator drives a remediation run end to end: resolve the asset,
// establish a conversation, dispatch the prompt, and walk the session
// through its states. A lost conversation is recreated exactly once per
// run; a second loss fails the run.
type Orchestrator struct {
	catalog  CatalogSource
	resolver *resolve.Resolver
	sessions *session.Manager
	agent    AgentClient
	registry *registry.Registry
	audit    db.AuditStore
	log      *zap.Logger

	newRunID func() string
}

// New creates an orchestrator. audit may be nil when no audit trail is kept.
func New(cat CatalogSource, res *resolve.Resolver, sess *session.Manager,
	ag AgentClient, reg *registry.Registry, audit db.AuditStore, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		catalog:  cat,
		resolver: res,
		sessions: sess,
		agent:    ag,
		registry: reg,
		audit:    audit,
		log:      log,
		newRunID: uuid.NewString,
	}
}

// TriggerRemediation runs a full remediation for the asset identified by
// localID/localType.
func (o *Orchestrator) TriggerRemediation(ctx context.Context, localID, localType string) (*Result, error) {
	start := time.Now()
	runID := o.newRunID()
	log := o.log.With(zap.String("run_id", runID), zap.String("local_id", localID))

	res, err := o.run(ctx, log, runID, localID, localType)
	metrics.RemediationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RemediationsTotal.WithLabelValues("failure").Inc()
		o.recordAudit(ctx, runID, localID, "remediation", err.Error(), "failure")
		return nil, err
	}
	metrics.RemediationsTotal.WithLabelValues("success").Inc()
	o.recordAudit(ctx, runID, res.Session.Metadata.SystemID, "remediation", "", "success")
	return res, nil
}

func (o *Orchestrator) run(ctx context.Context, log *zap.Logger, runID, localID, localType string) (*Result, error) {
	// Resolve the asset against the live catalog.
	snap, err := o.catalog.GetCatalog(ctx)
	if err != nil {
		o.failSession(ctx, "The system catalog is unavailable. Please retry shortly.")
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	canonicalID, err := o.resolver.Resolve(localID, localType, snap.Entries)
	if err != nil {
		o.failSession(ctx, userMessage(err))
		return nil, err
	}

	sys := o.lookupSystem(canonicalID, localID, localType)
	promptText := prompt.Build(sys)

	if _, err := o.sessions.Dispatch(ctx, session.Action{Type: session.ActionStartRun, RunID: runID}); err != nil {
		return nil, err
	}
	if _, err := o.sessions.Dispatch(ctx, session.Action{Type: session.ActionSetMeta, Meta: session.MetaPatch{
		SystemID:   canonicalID,
		SystemName: sys.Name,
		PrePrompt:  promptText,
	}}); err != nil {
		return nil, err
	}
	o.trace(ctx, "resolver", "Asset resolved", "done", fmt.Sprintf("%s -> %s", localID, canonicalID))

	// Establish or reuse the conversation.
	convID, err := o.ensureConversation(ctx)
	if err != nil {
		o.failSession(ctx, userMessage(err))
		return nil, err
	}
	o.trace(ctx, "conversation", "Conversation ready", "done", "")

	if _, err := o.sessions.Dispatch(ctx, session.Action{Type: session.ActionSetStatus, Status: session.StatusAgentsRunning}); err != nil {
		return nil, err
	}

	// Dispatch the prompt. A conversation lost mid-run is recreated exactly
	// once; any further failure ends the run.
	var reply string
	for attempt := 0; attempt <= 1; attempt++ {
		reply, err = o.agent.SendMessage(ctx, convID, runID, sys.Name, promptText)
		if err == nil {
			break
		}
		if attempt == 0 && agent.IsConversationNotFound(err) {
			log.Warn("conversation lost mid-run, recreating", zap.Error(err))
			convID, err = o.recoverConversation(ctx)
			if err != nil {
				break
			}
			metrics.ConversationRecoveriesTotal.Inc()
			o.recordAudit(ctx, runID, canonicalID, "conversation_recovered", "", "success")
			continue
		}
		break
	}
	if err != nil {
		o.failSession(ctx, userMessage(err))
		return nil, fmt.Errorf("dispatch remediation: %w", err)
	}
	o.trace(ctx, "remediation-agent", "Agent reply received", "done", "")

	sol := ParseSolution(reply)
	if sol.RiskLevel == "" {
		// Replies without a risk assessment inherit the system's derived one.
		sol.RiskLevel = string(sys.Status)
	}
	if _, err := o.sessions.Dispatch(ctx, session.Action{Type: session.ActionSetStatus, Status: session.StatusSolutionReady}); err != nil {
		return nil, err
	}
	if len(sol.ExecutionCommands) > 0 {
		if _, err := o.sessions.Dispatch(ctx, session.Action{Type: session.ActionSetStatus, Status: session.StatusExecutionComplete}); err != nil {
			return nil, err
		}
	}
	o.trace(ctx, "solution", "Solution recorded", "done", "")

	final, err := o.sessions.Dispatch(ctx, session.Action{Type: session.ActionSetStatus, Status: session.StatusResolved})
	if err != nil {
		return nil, err
	}

	log.Info("remediation completed",
		zap.String("system_id", canonicalID),
		zap.Int("recommended_actions", len(sol.RecommendedActions)),
		zap.Int("execution_commands", len(sol.ExecutionCommands)))

	return &Result{RunID: runID, Session: final, Solution: sol}, nil
}

// ensureConversation reuses a valid persisted conversation or creates one.
func (o *Orchestrator) ensureConversation(ctx context.Context) (string, error) {
	cur, err := o.sessions.Current(ctx)
	if err != nil {
		return "", err
	}

	if cur.ConversationID != "" && cur.Metadata.ConversationValid {
		if cur.ChatURL == "" {
			// Older sessions may predate the chat link.
			if _, err := o.sessions.Dispatch(ctx, session.Action{
				Type: session.ActionSetMeta,
				Meta: session.MetaPatch{ChatURL: o.agent.ChatURL()},
			}); err != nil {
				return "", err
			}
		}
		return cur.ConversationID, nil
	}

	conv, err := o.agent.CreateConversation(ctx)
	if err != nil {
		return "", err
	}
	if _, err := o.sessions.Dispatch(ctx, session.Action{
		Type:           session.ActionSetConversation,
		ConversationID: conv.ID,
		ChatURL:        conv.ChatURL,
	}); err != nil {
		return "", err
	}
	return conv.ID, nil
}

// recoverConversation invalidates the lost conversation and establishes a
// replacement.
func (o *Orchestrator) recoverConversation(ctx context.Context) (string, error) {
	if _, err := o.sessions.Dispatch(ctx, session.Action{Type: session.ActionMarkConversationInvalid}); err != nil {
		return "", err
	}
	conv, err := o.agent.CreateConversation(ctx)
	if err != nil {
		return "", fmt.Errorf("recreate conversation: %w", err)
	}
	if _, err := o.sessions.Dispatch(ctx, session.Action{
		Type:           session.ActionSetConversation,
		ConversationID: conv.ID,
		ChatURL:        conv.ChatURL,
	}); err != nil {
		return "", err
	}
	return conv.ID, nil
}

// lookupSystem finds the registry entry backing the asset, falling back to
// a minimal record when the asset is only known to the catalog.
func (o *Orchestrator) lookupSystem(canonicalID, localID, localType string) registry.System {
	if o.registry != nil {
		if s, ok := o.registry.Get(canonicalID); ok {
			return s
		}
		if s, ok := o.registry.Get(localID); ok {
			s.ID = canonicalID
			return s
		}
	}
	return registry.System{ID: canonicalID, Type: localType, Name: canonicalID}
}

func (o *Orchestrator) trace(ctx context.Context, agentName, label, status, detail string) {
	// Timestamp is stamped by the reducer at append time.
	if _, err := o.sessions.Dispatch(ctx, session.Action{
		Type: session.ActionAppendTraceStep,
		Step: session.TraceStep{Agent: agentName, Detail: detail, ID: agentName, Label: label, Status: status},
	}); err != nil {
		o.log.Warn("trace step dropped", zap.String("agent", agentName), zap.Error(err))
	}
}

func (o *Orchestrator) failSession(ctx context.Context, msg string) {
	if _, err := o.sessions.Dispatch(ctx, session.Action{Type: session.ActionSetError, Error: msg}); err != nil {
		o.log.Warn("failed to record session error", zap.Error(err))
	}
}

func (o *Orchestrator) recordAudit(ctx context.Context, runID, systemID, action, detail, result string) {
	if o.audit == nil {
		return
	}
	rec := &db.AuditRecord{
		RunID:     runID,
		SystemID:  systemID,
		Action:    action,
		Detail:    detail,
		Result:    result,
		Metadata:  "{}",
		Timestamp: time.Now().UTC(),
	}
	if err := o.audit.AppendAuditEvent(ctx, rec); err != nil {
		o.log.Warn("audit event dropped", zap.String("action", action), zap.Error(err))
	}
}

// userMessage maps an internal failure onto an operator-facing message.
func userMessage(err error) string {
	switch {
	case agent.IsAuthRequired(err):
		return "Sign in to the agent runtime to continue remediation."
	case agent.IsConversationNotFound(err):
		return "The remediation conversation was lost and could not be recreated."
	default:
		var nf *resolve.NotFoundError
		if errors.As(err, &nf) {
			return nf.Error()
		}
		return "Remediation failed: " + err.Error()
	}
}
