package validators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rickchristie/vigil"
)

// DefaultSpamWindowSize is the number of identical consecutive actions that
// counts as spam.
const DefaultSpamWindowSize = 3

// ErrInvalidWindowSize is returned for a spam window smaller than 1.
var ErrInvalidWindowSize = errors.New("spam window size must be at least 1")

// ActionSpam detects an agent repeating the same action.
//
// It keeps the last N actions (N = window size). When the window is full and
// every action has the same Step, it publishes a ValidatorWarningEvent and
// clears the window, so the next warning needs another N repeats. Action
// arguments are not compared. A partially filled window is never flagged.
type ActionSpam struct {
	publisher vigil.Publisher
	size      int
	logger    *slog.Logger

	mu     sync.Mutex
	window []vigil.Action
}

// NewActionSpam creates a spam validator with the given window size.
func NewActionSpam(publisher vigil.Publisher, windowSize int) (*ActionSpam, error) {
	if windowSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWindowSize, windowSize)
	}
	return &ActionSpam{
		publisher: publisher,
		size:      windowSize,
		logger:    discardLogger(),
		window:    make([]vigil.Action, 0, windowSize+1),
	}, nil
}

// WithLogger sets the logger. Returns the validator for chaining.
func (v *ActionSpam) WithLogger(logger *slog.Logger) *ActionSpam {
	v.logger = logger
	return v
}

// WindowSize returns the configured window size.
func (v *ActionSpam) WindowSize() int {
	return v.size
}

// Window returns a copy of the current action history, oldest first.
func (v *ActionSpam) Window() []vigil.Action {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]vigil.Action, len(v.window))
	copy(out, v.window)
	return out
}

// OnActionStarted implements vigil.ActionStartedSubscriber.
func (v *ActionSpam) OnActionStarted(ctx context.Context, event *vigil.ActionStartedEvent) {
	v.mu.Lock()
	v.window = append(v.window, event.Action)
	if over := len(v.window) - v.size; over > 0 {
		v.window = append(v.window[:0], v.window[over:]...)
	}

	spam := v.isSpamLocked()
	var message string
	if spam {
		message = spamMessage(event.Action, v.size)
		v.window = v.window[:0]
	}
	v.mu.Unlock()

	if !spam {
		return
	}

	v.logger.Warn("repeated action detected",
		slog.String("step", event.Action.Step),
		slog.Int("window", v.size),
	)
	v.publisher.Publish(ctx, &vigil.ValidatorWarningEvent{Message: message})
}

// isSpamLocked reports whether the window is full of one step. Caller holds mu.
func (v *ActionSpam) isSpamLocked() bool {
	if len(v.window) != v.size {
		return false
	}
	first := v.window[0].Step
	for _, a := range v.window[1:] {
		if a.Step != first {
			return false
		}
	}
	return true
}

func spamMessage(action vigil.Action, size int) string {
	args := "{}"
	if len(action.Args) > 0 {
		if b, err := json.Marshal(action.Args); err == nil {
			args = string(b)
		} else {
			args = fmt.Sprintf("%v", action.Args)
		}
	}
	return fmt.Sprintf(
		"You have run the action %q with arguments %s %d times in a row. "+
			"Do not repeat this action: it doesn't do anything.",
		action.Step, args, size,
	)
}

var _ vigil.ActionStartedSubscriber = (*ActionSpam)(nil)
