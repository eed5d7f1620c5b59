package session

import "time"

// ActionType enumerates the session transitions.
type ActionType string

const (
	ActionSetConversation         ActionType = "set_conversation"
	ActionStartRun                ActionType = "start_run"
	ActionSetStatus               ActionType = "set_status"
	ActionSetTraceSteps           ActionType = "set_trace_steps"
	ActionAppendTraceStep         ActionType = "append_trace_step"
	ActionSetError                ActionType = "set_error"
	ActionSetMeta                 ActionType = "set_meta"
	ActionMarkConversationInvalid ActionType = "mark_conversation_invalid"
	ActionReset                   ActionType = "reset"
)

// MetaPatch is a partial metadata update. Empty fields are left unchanged.
type MetaPatch struct {
	SystemID   string
	SystemName string
	BaseURL    string
	PrePrompt  string
	ChatURL    string
}

// Action is a single reducer input. Only the fields relevant to the Type
// are consulted.
type Action struct {
	Type           ActionType
	ConversationID string
	ChatURL        string
	RunID          string
	Status         Status
	Steps          []TraceStep
	Step           TraceStep
	Error          string
	Meta           MetaPatch
}

// Reduce applies an action to a session and returns the next session.
// It never mutates its input; every transition stamps UpdatedAt.
func Reduce(s Session, a Action, now time.Time) Session {
	switch a.Type {
	case ActionReset:
		return New(now)

	case ActionSetConversation:
		s.ConversationID = a.ConversationID
		s.ChatURL = a.ChatURL
		s.Metadata.ConversationValid = true
		s.Error = ""

	case ActionStartRun:
		s.RunID = a.RunID
		s.Status = StatusResolving
		s.Error = ""
		s.TraceSteps = nil

	case ActionSetStatus:
		s.Status = a.Status
		if a.Status != StatusError {
			s.Error = ""
		}

	case ActionSetTraceSteps:
		steps := append([]TraceStep(nil), a.Steps...)
		for i := range steps {
			if steps[i].Timestamp.IsZero() {
				steps[i].Timestamp = now.UTC()
			}
		}
		s.TraceSteps = steps

	case ActionAppendTraceStep:
		step := a.Step
		if step.Timestamp.IsZero() {
			step.Timestamp = now.UTC()
		}
		steps := append([]TraceStep(nil), s.TraceSteps...)
		s.TraceSteps = append(steps, step)

	case ActionSetError:
		s.Status = StatusError
		s.Error = a.Error

	case ActionSetMeta:
		if a.Meta.SystemID != "" {
			s.Metadata.SystemID = a.Meta.SystemID
		}
		if a.Meta.SystemName != "" {
			s.Metadata.SystemName = a.Meta.SystemName
		}
		if a.Meta.BaseURL != "" {
			s.Metadata.BaseURL = a.Meta.BaseURL
		}
		if a.Meta.PrePrompt != "" {
			s.Metadata.PrePrompt = a.Meta.PrePrompt
		}
		if a.Meta.ChatURL != "" {
			s.ChatURL = a.Meta.ChatURL
		}

	case ActionMarkConversationInvalid:
		// The conversation no longer exists upstream. Identifiers are
		// cleared so the next run establishes a new one; status and trace
		// are left alone so an in-flight run keeps its progress view.
		s.ConversationID = ""
		s.RunID = ""
		s.ChatURL = ""
		s.Metadata.ConversationValid = false
	}

	s.Metadata.UpdatedAt = now.UTC()
	return s
}
