package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rickchristie/vigil"
)

// ErrStopped is returned by WaitRunning once the session has been stopped.
var ErrStopped = errors.New("session stopped")

// State is the agent's run state as dictated by control events.
type State string

const (
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// RunState follows pause_all, resume_all and stop for one session.
//
// Pauses nest: each pause_all must be matched by a resume_all before the
// agent runs again, so overlapping recoveries cannot resume each other
// early. stop is terminal; later pause/resume events are ignored. A stop
// event addressed to another session is ignored.
type RunState struct {
	sessionID string

	mu          sync.Mutex
	paused      int
	stopped     bool
	stopMessage string
	changed     chan struct{}
}

// NewRunState creates a RunState in the running state.
func NewRunState(sessionID string) *RunState {
	return &RunState{
		sessionID: sessionID,
		changed:   make(chan struct{}),
	}
}

// State returns the current state.
func (r *RunState) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.stopped:
		return StateStopped
	case r.paused > 0:
		return StatePaused
	default:
		return StateRunning
	}
}

// StopMessage returns the message of the stop event, if stopped.
func (r *RunState) StopMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopMessage
}

// WaitRunning blocks while the session is paused. It returns nil when the
// session is running, an error wrapping ErrStopped once stopped, or
// ctx.Err().
func (r *RunState) WaitRunning(ctx context.Context) error {
	for {
		r.mu.Lock()
		stopped, paused, changed := r.stopped, r.paused > 0, r.changed
		msg := r.stopMessage
		r.mu.Unlock()

		if stopped {
			return fmt.Errorf("%w: %s", ErrStopped, msg)
		}
		if !paused {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// OnPauseAll implements vigil.PauseAllSubscriber.
func (r *RunState) OnPauseAll(context.Context, *vigil.PauseAllEvent) {
	r.update(func() {
		r.paused++
	})
}

// OnResumeAll implements vigil.ResumeAllSubscriber.
func (r *RunState) OnResumeAll(context.Context, *vigil.ResumeAllEvent) {
	r.update(func() {
		if r.paused > 0 {
			r.paused--
		}
	})
}

// OnStop implements vigil.StopSubscriber.
func (r *RunState) OnStop(_ context.Context, e *vigil.StopEvent) {
	if e.SessionID != "" && e.SessionID != r.sessionID {
		return
	}
	r.update(func() {
		r.stopped = true
		r.stopMessage = e.Message
	})
}

// update applies fn under the lock and wakes WaitRunning callers.
func (r *RunState) update(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	fn()
	close(r.changed)
	r.changed = make(chan struct{})
}
