package vigil

// Event name constants identify each event variant on the bus. They double as
// the "type" discriminator in serialized event scripts, so they keep the
// snake_case spelling the agent runtime emits.
//
// # Inbound events
//
// Published by the agent runtime and observed by validators:
//
//	action_started    // the agent started a discrete action
//	llm_call          // an LLM call completed with token counts
//	thinker_call      // the thinker reported a message at some level
//
// # Control events
//
// Published by validators and honored by the runtime:
//
//	validator_warning // advisory message for the agent
//	pause_all         // suspend all agent activity
//	resume_all        // resume after a pause
//	stop              // terminal, end the session
const (
	// Inbound
	EventNameActionStarted = "action_started"
	EventNameLLMCall       = "llm_call"
	EventNameThinkerCall   = "thinker_call"

	// Control
	EventNameValidatorWarning = "validator_warning"
	EventNamePauseAll         = "pause_all"
	EventNameResumeAll        = "resume_all"
	EventNameStop             = "stop"
)

// ThinkerLevel is the severity attached to a thinker_call event.
type ThinkerLevel string

const (
	ThinkerLevelError ThinkerLevel = "error"
	ThinkerLevelInfo  ThinkerLevel = "info"
	ThinkerLevelDebug ThinkerLevel = "debug"
	ThinkerLevelWarn  ThinkerLevel = "warn"

	// ThinkerLevelLLMError signals that the thinker could not reach or use its
	// model. It is the only level that triggers failure recovery.
	ThinkerLevelLLMError ThinkerLevel = "LLM_error"
)

// Valid reports whether l is one of the known thinker levels.
func (l ThinkerLevel) Valid() bool {
	switch l {
	case ThinkerLevelError, ThinkerLevelInfo, ThinkerLevelDebug,
		ThinkerLevelWarn, ThinkerLevelLLMError:
		return true
	}
	return false
}
