// Package tt provides test helpers shared by vigil's package tests.
package tt

import (
	"context"
	"sync"
	"time"

	"github.com/rickchristie/vigil"
)

// -----------------------------------------------------------------------------
// Recorder - captures every event delivered by the bus
// -----------------------------------------------------------------------------

// Recorder is a subscriber that records every event it receives, in order.
// Safe for concurrent delivery.
type Recorder struct {
	mu     sync.Mutex
	events []vigil.Event
	notify chan struct{}
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

// OnEvent implements vigil.AnyEventSubscriber.
func (r *Recorder) OnEvent(_ context.Context, event vigil.Event) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []vigil.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]vigil.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the event names of all recorded events, in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.EventName()
	}
	return names
}

// ControlNames returns the names of recorded control events only.
func (r *Recorder) ControlNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, e := range r.events {
		if vigil.IsControlEvent(e) {
			names = append(names, e.EventName())
		}
	}
	return names
}

// Count returns the number of recorded events with the given name.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.EventName() == name {
			n++
		}
	}
	return n
}

// WaitFor blocks until at least one event with the given name has been
// recorded, or timeout elapses. Returns whether the event was seen.
func (r *Recorder) WaitFor(name string, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		if r.Count(name) > 0 {
			return true
		}
		select {
		case <-r.notify:
		case <-deadline:
			return r.Count(name) > 0
		}
	}
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Last returns the most recently recorded event with the given name, or nil.
func (r *Recorder) Last(name string) vigil.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].EventName() == name {
			return r.events[i]
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Event Helpers
// -----------------------------------------------------------------------------

// ActionStarted builds an ActionStartedEvent.
func ActionStarted(step string, args map[string]any) *vigil.ActionStartedEvent {
	return &vigil.ActionStartedEvent{Action: vigil.Action{Step: step, Args: args}}
}

// LLMCall builds an LLMCallEvent.
func LLMCall(model string, prompt, resp int64) *vigil.LLMCallEvent {
	return &vigil.LLMCallEvent{ModelName: model, PromptTokens: prompt, RespTokens: resp}
}

// LLMError builds a ThinkerCallEvent at LLM_error level.
func LLMError(model, message string) *vigil.ThinkerCallEvent {
	return &vigil.ThinkerCallEvent{
		Message: message,
		Model:   model,
		Level:   vigil.ThinkerLevelLLMError,
	}
}
