package vigil

import "time"

// -----------------------------------------------------------------------------
// Event Interface
// -----------------------------------------------------------------------------

// Event is implemented by every event carried on the bus.
//
// Events are immutable once published. The bus fills in BaseEvent.Timestamp
// right before dispatch when the publisher left it zero; after that no
// subscriber may modify the event it receives.
type Event interface {
	// EventName returns the event's type discriminator (see EventName*).
	EventName() string

	// Base returns the common metadata shared by all events.
	Base() *BaseEvent
}

// BaseEvent holds metadata common to all events.
type BaseEvent struct {
	// Timestamp is when the event was published.
	Timestamp time.Time
}

// Base implements Event.
func (b *BaseEvent) Base() *BaseEvent { return b }

// Action is one discrete step the agent took.
type Action struct {
	// Step identifies the kind of action (e.g. "search", "click").
	Step string `yaml:"step" json:"step"`

	// Args is the action's argument payload.
	Args map[string]any `yaml:"args,omitempty" json:"args,omitempty"`
}

// -----------------------------------------------------------------------------
// Inbound Events
// -----------------------------------------------------------------------------

// ActionStartedEvent is published by the runtime when the agent starts an action.
type ActionStartedEvent struct {
	BaseEvent

	Action Action
}

// EventName implements Event.
func (*ActionStartedEvent) EventName() string { return EventNameActionStarted }

// LLMCallEvent is published after each LLM call with its token usage.
type LLMCallEvent struct {
	BaseEvent

	// ModelName is the model that served the call.
	ModelName string

	// PromptTokens is the number of input tokens.
	PromptTokens int64

	// RespTokens is the number of output tokens.
	RespTokens int64
}

// EventName implements Event.
func (*LLMCallEvent) EventName() string { return EventNameLLMCall }

// ThinkerCallEvent is published by the thinker to report progress or failure.
type ThinkerCallEvent struct {
	BaseEvent

	Message string

	// Model is the model the thinker was using. May be empty.
	Model string

	Level ThinkerLevel
}

// EventName implements Event.
func (*ThinkerCallEvent) EventName() string { return EventNameThinkerCall }

// -----------------------------------------------------------------------------
// Control Events
// -----------------------------------------------------------------------------

// ValidatorWarningEvent carries an advisory message for the agent.
type ValidatorWarningEvent struct {
	BaseEvent

	Message string
}

// EventName implements Event.
func (*ValidatorWarningEvent) EventName() string { return EventNameValidatorWarning }

// PauseAllEvent instructs the runtime to suspend all agent activity.
type PauseAllEvent struct {
	BaseEvent
}

// EventName implements Event.
func (*PauseAllEvent) EventName() string { return EventNamePauseAll }

// ResumeAllEvent instructs the runtime to resume after a PauseAllEvent.
type ResumeAllEvent struct {
	BaseEvent
}

// EventName implements Event.
func (*ResumeAllEvent) EventName() string { return EventNameResumeAll }

// StopEvent is a terminal instruction: the runtime ends the session on receipt.
type StopEvent struct {
	BaseEvent

	// Message explains why the session is stopping.
	Message string

	// SessionID is the session being stopped.
	SessionID string
}

// EventName implements Event.
func (*StopEvent) EventName() string { return EventNameStop }

// IsControlEvent reports whether e is one of the events validators publish
// for the runtime to honor.
func IsControlEvent(e Event) bool {
	switch e.(type) {
	case *ValidatorWarningEvent, *PauseAllEvent, *ResumeAllEvent, *StopEvent:
		return true
	default:
		return false
	}
}
