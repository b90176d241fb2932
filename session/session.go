// Package session wires vigil's validators to an event bus for one agent
// session and tracks the run state the runtime must honor.
//
//	sess, err := session.Start(bus, session.Options{
//	    ID:     "run-42",
//	    Sinks:  sinks,
//	    Probes: probes,
//	})
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	// Runtime loop
//	for {
//	    if err := sess.RunState().WaitRunning(ctx); err != nil {
//	        return err // stopped or ctx done
//	    }
//	    bus.Publish(ctx, &vigil.ActionStartedEvent{Action: next()})
//	}
package session

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rickchristie/vigil"
	"github.com/rickchristie/vigil/events"
	"github.com/rickchristie/vigil/logsink"
	"github.com/rickchristie/vigil/probe"
	"github.com/rickchristie/vigil/validators"
)

// ErrMissingID is returned by Start when Options.ID is empty.
var ErrMissingID = errors.New("session id is required")

// Options configures Start. Zero values select defaults.
type Options struct {
	// ID identifies the session. Required.
	ID string

	// Sinks is the process-wide log sink registry. A private registry is
	// created when nil.
	Sinks *logsink.Registry

	// Probes maps model names to probe capabilities. An empty table (every
	// model fails its probe) is used when nil.
	Probes *probe.Table

	// SpamWindow is the spam validator's window size. Default 3.
	SpamWindow int

	// Rates overrides the default token prices when non-nil.
	Rates *vigil.CostRates

	// ProbeTimeout bounds each model probe. Default 30s.
	ProbeTimeout time.Duration

	Logger *slog.Logger
}

// Session is the set of validators attached to a bus for one agent run.
type Session struct {
	id       string
	bus      *events.Bus
	spam     *validators.ActionSpam
	usage    *validators.LLMUsage
	thinker  *validators.ThinkerFailure
	runState *RunState

	mu     sync.Mutex
	subs   []events.Subscription
	closed bool
}

// Start constructs the session's validators and run state and registers
// them on bus.
func Start(bus *events.Bus, opts Options) (*Session, error) {
	if opts.ID == "" {
		return nil, ErrMissingID
	}
	if opts.Sinks == nil {
		opts.Sinks = logsink.NewRegistry()
	}
	if opts.Probes == nil {
		opts.Probes = probe.NewTable()
	}
	if opts.SpamWindow == 0 {
		opts.SpamWindow = validators.DefaultSpamWindowSize
	}
	if opts.ProbeTimeout == 0 {
		opts.ProbeTimeout = validators.DefaultProbeTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger := opts.Logger.With(slog.String("session_id", opts.ID))

	spam, err := validators.NewActionSpam(bus, opts.SpamWindow)
	if err != nil {
		return nil, err
	}
	spam.WithLogger(logger)

	usage := validators.NewLLMUsage(opts.ID, opts.Sinks).WithLogger(logger)
	if opts.Rates != nil {
		usage.WithRates(*opts.Rates)
	}

	thinker := validators.NewThinkerFailure(opts.ID, bus, opts.Probes).
		WithTimeout(opts.ProbeTimeout).
		WithLogger(logger)

	s := &Session{
		id:       opts.ID,
		bus:      bus,
		spam:     spam,
		usage:    usage,
		thinker:  thinker,
		runState: NewRunState(opts.ID),
	}
	s.subs = []events.Subscription{
		bus.Subscribe(spam),
		bus.Subscribe(usage),
		bus.Subscribe(thinker),
		bus.Subscribe(s.runState),
	}

	logger.Info("session validators attached",
		slog.Int("spam_window", opts.SpamWindow),
		slog.Duration("probe_timeout", opts.ProbeTimeout),
	)
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// RunState returns the session's run state follower.
func (s *Session) RunState() *RunState { return s.runState }

// Spam returns the action spam validator.
func (s *Session) Spam() *validators.ActionSpam { return s.spam }

// Usage returns the LLM usage validator.
func (s *Session) Usage() *validators.LLMUsage { return s.usage }

// Thinker returns the thinker failure validator.
func (s *Session) Thinker() *validators.ThinkerFailure { return s.thinker }

// Wait blocks until no failure recovery is in flight. Safe to call while
// events are still being published; call it after publishing stops to be
// sure every reported failure has its resume_all or stop.
func (s *Session) Wait() {
	s.thinker.Wait()
}

// Close unsubscribes all of the session's components from the bus. In-flight
// recoveries still publish their outcome. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, sub := range s.subs {
		s.bus.Unsubscribe(sub)
	}
	s.subs = nil
}
