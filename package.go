// Package vigil provides runtime validators for an autonomous agent's event
// stream.
//
// The agent runtime publishes what it does on an event bus. Validators
// subscribe to those events, enforce lightweight policies, and answer with
// control events the runtime must honor. Validators never touch agent state
// directly.
//
// # Validators
//
//   - ActionSpam (validators package) warns the agent when the same action
//     step repeats across a sliding window (default 3).
//   - LLMUsage accumulates prompt and response tokens per session, estimates
//     cost, and writes usage lines to the session's log sink.
//   - ThinkerFailure pauses the agent when the thinker reports LLM_error,
//     probes the model, then resumes or stops the session.
//
// # Quick Start
//
//	bus := events.NewBus()
//	sinks := logsink.NewRegistry()
//	probes := probe.NewTable().Register(
//	    probe.GeminiModelName,
//	    probe.FromFactory(probe.NewGeminiFactory(probe.GeminiConfig{APIKey: key})),
//	)
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
//	bus.Publish(ctx, &vigil.ActionStartedEvent{
//	    Action: vigil.Action{Step: "search", Args: map[string]any{"q": "weather"}},
//	})
//	bus.Publish(ctx, &vigil.LLMCallEvent{ModelName: "gemini", PromptTokens: 812, RespTokens: 95})
//
// # Honoring Control Events
//
// pause_all, resume_all and stop are addressed to the runtime. The
// session.RunState subscriber tracks them; a runtime loop calls
// RunState.WaitRunning before each step:
//
//	if err := sess.RunState().WaitRunning(ctx); err != nil {
//	    return err // wraps session.ErrStopped once a stop arrives
//	}
//
// # Packages
//
//   - vigil: event catalog, subscriber interfaces, cost rates, token usage
//   - events: the in-process bus
//   - logsink: per-session log sinks
//   - probe: model capability table and LLM-backed probes
//   - validators: the three validators
//   - session: per-session wiring and run state
//   - config: koanf-based settings
package vigil
