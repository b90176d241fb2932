// Package validators implements the runtime policies that watch the agent
// through the event bus.
//
//   - ActionSpam warns the agent when it repeats the same action for a full
//     window of steps.
//   - LLMUsage accumulates token usage per session and logs the running
//     cost estimate to the session's log sink.
//   - ThinkerFailure reacts to an LLM_error from the thinker by pausing the
//     agent, probing the model, and then resuming or stopping the session.
//
// Validators are plain subscribers. Construct them, then register them with
// events.Bus.Subscribe (session.Start does both for a whole session).
// Each validator owns its state exclusively; the only shared collaborator is
// the logsink.Registry.
package validators

import (
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
