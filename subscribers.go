package vigil

import "context"

// Subscriber interfaces define type-safe event subscriptions.
//
// Implement any combination of these interfaces on a single struct to receive
// multiple event types. events.Bus detects which interfaces a subscriber
// implements and calls the matching methods.
//
// # Example
//
//	type ControlLogger struct {
//	    logger *slog.Logger
//	}
//
//	func (s *ControlLogger) OnPauseAll(ctx context.Context, e *vigil.PauseAllEvent) {
//	    s.logger.Info("agent paused")
//	}
//
//	func (s *ControlLogger) OnStop(ctx context.Context, e *vigil.StopEvent) {
//	    s.logger.Warn("session stopped", "session_id", e.SessionID, "reason", e.Message)
//	}
//
//	sub := bus.Subscribe(&ControlLogger{logger: slog.Default()})
//	defer bus.Unsubscribe(sub)
//
// Handlers must not panic and must not modify the event they receive.

// ActionStartedSubscriber receives ActionStartedEvent events.
type ActionStartedSubscriber interface {
	OnActionStarted(ctx context.Context, event *ActionStartedEvent)
}

// LLMCallSubscriber receives LLMCallEvent events.
type LLMCallSubscriber interface {
	OnLLMCall(ctx context.Context, event *LLMCallEvent)
}

// ThinkerCallSubscriber receives ThinkerCallEvent events.
type ThinkerCallSubscriber interface {
	OnThinkerCall(ctx context.Context, event *ThinkerCallEvent)
}

// ValidatorWarningSubscriber receives ValidatorWarningEvent events.
type ValidatorWarningSubscriber interface {
	OnValidatorWarning(ctx context.Context, event *ValidatorWarningEvent)
}

// PauseAllSubscriber receives PauseAllEvent events.
type PauseAllSubscriber interface {
	OnPauseAll(ctx context.Context, event *PauseAllEvent)
}

// ResumeAllSubscriber receives ResumeAllEvent events.
type ResumeAllSubscriber interface {
	OnResumeAll(ctx context.Context, event *ResumeAllEvent)
}

// StopSubscriber receives StopEvent events.
type StopSubscriber interface {
	OnStop(ctx context.Context, event *StopEvent)
}

// AnyEventSubscriber receives every event regardless of type, after the
// typed subscribers for that event have run.
type AnyEventSubscriber interface {
	OnEvent(ctx context.Context, event Event)
}

// Publisher publishes events onto the bus. Validators depend on this
// interface rather than on the concrete bus.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}
