package domain

import "time"

// ActionType tags an entry in a session's append-only action log.
type ActionType string

const (
	ActionNavigate ActionType = "navigate"
	ActionDetect   ActionType = "detect"
	ActionFill     ActionType = "fill"
	ActionAdvance  ActionType = "advance"
	ActionSubmit   ActionType = "submit"
	ActionCancel   ActionType = "cancel"
)

// Action is one immutable automation step. Entries are appended in order and
// never edited; they are the audit trail of what the adapter actually did.
type Action struct {
	Timestamp   time.Time     `json:"ts"`
	Type        ActionType    `json:"type"`
	Description string        `json:"description"`
	Success     bool          `json:"success"`
	Details     string        `json:"details,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// NewAction stamps an action with the current time.
func NewAction(t ActionType, description string, success bool) Action {
	return Action{
		Timestamp:   time.Now(),
		Type:        t,
		Description: description,
		Success:     success,
	}
}
