// Package events provides the in-process event bus that connects the agent
// runtime with vigil's validators.
//
// # Overview
//
// The runtime publishes inbound events (action_started, llm_call,
// thinker_call). Validators subscribe to the inbound events they care about
// and publish control events (validator_warning, pause_all, resume_all,
// stop) which the runtime honors.
//
// # Quick Start
//
//	// 1. Implement one or more subscriber interfaces
//	type StopWatcher struct{ stopped chan string }
//
//	func (w *StopWatcher) OnStop(ctx context.Context, e *vigil.StopEvent) {
//	    w.stopped <- e.Message
//	}
//
//	// 2. Create the bus and subscribe
//	bus := events.NewBus()
//	sub := bus.Subscribe(&StopWatcher{stopped: make(chan string, 1)})
//	defer bus.Unsubscribe(sub)
//
//	// 3. Publish
//	bus.Publish(ctx, &vigil.ThinkerCallEvent{
//	    Message: "model returned 401",
//	    Model:   "gemini",
//	    Level:   vigil.ThinkerLevelLLMError,
//	})
//
// # Event Types
//
// Inbound events (published by the runtime):
//   - ActionStartedEvent: the agent started an action
//   - LLMCallEvent: an LLM call completed, with token counts
//   - ThinkerCallEvent: the thinker reported a message at some level
//
// Control events (published by validators):
//   - ValidatorWarningEvent: advisory message for the agent
//   - PauseAllEvent, ResumeAllEvent: suspend/resume all activity
//   - StopEvent: terminal, end the session
//
// # Timestamps
//
// Publish stamps BaseEvent.Timestamp from the bus's TimeProvider when the
// publisher left it zero. Use WithTimeProvider with a
// vigil.MockTimeProvider for deterministic tests.
//
// # Recursion Protection
//
// Subscribers may publish events from their handlers. To prevent infinite
// loops, nesting is capped by SetMaxRecursion (default 10).
//
// # Taps
//
// Tap streams every published event to a channel backed by an unbounded
// queue, so a slow reader (a CLI printer, a UI) never blocks publishers.
package events
