package validators

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickchristie/vigil"
	"github.com/rickchristie/vigil/events"
	"github.com/rickchristie/vigil/internal/tt"
	"github.com/rickchristie/vigil/probe"
)

type thinkerFixture struct {
	bus       *events.Bus
	validator *ThinkerFailure
	recorder  *tt.Recorder
	factory   *tt.MockFactory
	prober    *tt.MockProber
}

func newThinkerFixture(t *testing.T, prober *tt.MockProber) *thinkerFixture {
	t.Helper()
	bus := events.NewBus()
	factory := tt.NewMockFactory(prober)
	v := NewThinkerFailure("session-1", bus, factory.Table("gemini"))
	rec := tt.NewRecorder()
	// Subscribed ahead of the validator so the thinker_call is recorded
	// before the pause_all published from inside its handler.
	bus.Subscribe(rec)
	bus.Subscribe(v)
	return &thinkerFixture{
		bus:       bus,
		validator: v,
		recorder:  rec,
		factory:   factory,
		prober:    prober,
	}
}

func (f *thinkerFixture) failLLM(model string) {
	f.bus.Publish(context.Background(), tt.LLMError(model, "model call failed"))
	f.validator.Wait()
}

func TestThinkerFailure_ProbeOutcomes(t *testing.T) {
	type expected struct {
		control []string
		built   int
		stopMsg string
	}

	tests := []struct {
		name     string
		model    string
		prober   *tt.MockProber
		expected expected
	}{
		{
			name:   "probe passes resumes",
			model:  "gemini",
			prober: tt.NewMockProber(true),
			expected: expected{
				control: []string{vigil.EventNamePauseAll, vigil.EventNameResumeAll},
				built:   1,
			},
		},
		{
			name:   "probe fails stops",
			model:  "gemini",
			prober: tt.NewMockProber(false),
			expected: expected{
				control: []string{vigil.EventNamePauseAll, vigil.EventNameStop},
				built:   1,
				stopMsg: `Invalid model "gemini" for session session-1`,
			},
		},
		{
			name:   "unknown model stops without building a client",
			model:  "unknown",
			prober: tt.NewMockProber(true),
			expected: expected{
				control: []string{vigil.EventNamePauseAll, vigil.EventNameStop},
				built:   0,
				stopMsg: `Invalid model "unknown" for session session-1`,
			},
		},
		{
			name:   "empty model stops without building a client",
			model:  "",
			prober: tt.NewMockProber(true),
			expected: expected{
				control: []string{vigil.EventNamePauseAll, vigil.EventNameStop},
				built:   0,
				stopMsg: `Invalid model "" for session session-1`,
			},
		},
		{
			name:   "probe error stops",
			model:  "gemini",
			prober: tt.NewMockProber(true).WithError(errors.New("connection refused")),
			expected: expected{
				control: []string{vigil.EventNamePauseAll, vigil.EventNameStop},
				built:   1,
				stopMsg: `Invalid model "gemini" for session session-1`,
			},
		},
		{
			name:   "release error after passing check resumes",
			model:  "gemini",
			prober: tt.NewMockProber(true).WithCloseError(errors.New("close failed")),
			expected: expected{
				control: []string{vigil.EventNamePauseAll, vigil.EventNameResumeAll},
				built:   1,
			},
		},
		{
			name:   "probe panic stops",
			model:  "gemini",
			prober: tt.NewMockProber(true).WithPanic("nil client"),
			expected: expected{
				control: []string{vigil.EventNamePauseAll, vigil.EventNameStop},
				built:   1,
				stopMsg: `Invalid model "gemini" for session session-1`,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newThinkerFixture(t, tc.prober)

			f.failLLM(tc.model)

			// The thinker_call itself is recorded first.
			assert.Equal(t,
				append([]string{vigil.EventNameThinkerCall}, tc.expected.control...),
				f.recorder.Names(),
			)
			assert.Equal(t, tc.expected.built, f.factory.Built())

			if tc.expected.built > 0 {
				assert.Equal(t, []string{"session-1"}, f.factory.Sessions())
				assert.Equal(t, 1, f.prober.Closed(), "prober is released after use")
			}

			if tc.expected.stopMsg != "" {
				stop, ok := f.recorder.Last(vigil.EventNameStop).(*vigil.StopEvent)
				require.True(t, ok)
				assert.Equal(t, tc.expected.stopMsg, stop.Message)
				assert.Equal(t, "session-1", stop.SessionID)
			}
		})
	}
}

func TestThinkerFailure_IgnoresOtherLevels(t *testing.T) {
	levels := []vigil.ThinkerLevel{
		vigil.ThinkerLevelError,
		vigil.ThinkerLevelInfo,
		vigil.ThinkerLevelDebug,
		vigil.ThinkerLevelWarn,
		vigil.ThinkerLevel("llm_error"),
	}

	for _, level := range levels {
		t.Run(string(level), func(t *testing.T) {
			f := newThinkerFixture(t, tt.NewMockProber(true))

			f.bus.Publish(context.Background(), &vigil.ThinkerCallEvent{
				Message: "hello",
				Model:   "gemini",
				Level:   level,
			})
			f.validator.Wait()

			assert.Empty(t, f.recorder.ControlNames())
			assert.Zero(t, f.factory.Built())
		})
	}
}

func TestThinkerFailure_PausesBeforeHandlerReturns(t *testing.T) {
	release := make(chan struct{})
	f := newThinkerFixture(t, tt.NewMockProber(true).WithHang(release))

	f.bus.Publish(context.Background(), tt.LLMError("gemini", "boom"))

	// Publish has returned; the probe is still hanging.
	assert.Equal(t, []string{vigil.EventNamePauseAll}, f.recorder.ControlNames())

	close(release)
	f.validator.Wait()
	assert.Equal(t,
		[]string{vigil.EventNamePauseAll, vigil.EventNameResumeAll},
		f.recorder.ControlNames(),
	)
}

func TestThinkerFailure_TimeoutStops(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	f := newThinkerFixture(t, tt.NewMockProber(true).WithHang(release))
	f.validator.WithTimeout(20 * time.Millisecond)

	f.failLLM("gemini")

	assert.Equal(t,
		[]string{vigil.EventNamePauseAll, vigil.EventNameStop},
		f.recorder.ControlNames(),
	)
}

func TestThinkerFailure_CallerCancellationDoesNotAbortRecovery(t *testing.T) {
	release := make(chan struct{})
	f := newThinkerFixture(t, tt.NewMockProber(true).WithHang(release))

	ctx, cancel := context.WithCancel(context.Background())
	f.bus.Publish(ctx, tt.LLMError("gemini", "boom"))
	cancel()

	close(release)
	f.validator.Wait()

	assert.Equal(t,
		[]string{vigil.EventNamePauseAll, vigil.EventNameResumeAll},
		f.recorder.ControlNames(),
	)
}

func TestThinkerFailure_ConcurrentFailuresEachPauseFirst(t *testing.T) {
	f := newThinkerFixture(t, tt.NewMockProber(true))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.bus.Publish(context.Background(), tt.LLMError("gemini", "boom"))
		}()
	}
	wg.Wait()
	f.validator.Wait()

	assert.Equal(t, 5, f.recorder.Count(vigil.EventNamePauseAll))
	assert.Equal(t, 5, f.recorder.Count(vigil.EventNameResumeAll))
	assert.Equal(t, 5, f.factory.Built())

	// Every resume is preceded by at least as many pauses.
	pauses, resumes := 0, 0
	for _, name := range f.recorder.ControlNames() {
		switch name {
		case vigil.EventNamePauseAll:
			pauses++
		case vigil.EventNameResumeAll:
			resumes++
		}
		assert.GreaterOrEqual(t, pauses, resumes)
	}
}

func TestThinkerFailure_UsesRegisteredCapability(t *testing.T) {
	bus := events.NewBus()
	rec := tt.NewRecorder()
	table := probe.NewTable().Register("always-ok", probe.FromFactory(
		func(string) (probe.Prober, error) { return tt.NewMockProber(true), nil },
	))
	v := NewThinkerFailure("s", bus, table)
	bus.Subscribe(v)
	bus.Subscribe(rec)

	bus.Publish(context.Background(), tt.LLMError("always-ok", "x"))
	v.Wait()

	assert.Equal(t,
		[]string{vigil.EventNamePauseAll, vigil.EventNameResumeAll},
		rec.ControlNames(),
	)
}

func TestThinkerFailure_DeliveryOrder(t *testing.T) {
	bus := events.NewBus()
	factory := tt.NewMockFactory(tt.NewMockProber(true))
	v := NewThinkerFailure("session-1", bus, factory.Table("gemini"))
	before, after := tt.NewRecorder(), tt.NewRecorder()
	bus.Subscribe(before)
	bus.Subscribe(v)
	bus.Subscribe(after)

	bus.Publish(context.Background(), tt.LLMError("gemini", "boom"))
	v.Wait()

	// pause_all is dispatched synchronously inside the handler, so it
	// reaches later subscribers ahead of the thinker_call that caused it.
	assert.Equal(t, []string{
		vigil.EventNameThinkerCall,
		vigil.EventNamePauseAll,
		vigil.EventNameResumeAll,
	}, before.Names())
	assert.Equal(t, []string{
		vigil.EventNamePauseAll,
		vigil.EventNameThinkerCall,
		vigil.EventNameResumeAll,
	}, after.Names())
}

func TestThinkerFailure_WaitWhilePublishing(t *testing.T) {
	f := newThinkerFixture(t, tt.NewMockProber(true))

	stopWaiting := make(chan struct{})
	waiterDone := make(chan struct{})
	go func() {
		defer close(waiterDone)
		for {
			select {
			case <-stopWaiting:
				return
			default:
				f.validator.Wait()
			}
		}
	}()

	const failures = 50
	for i := 0; i < failures; i++ {
		f.bus.Publish(context.Background(), tt.LLMError("gemini", "boom"))
	}
	close(stopWaiting)
	<-waiterDone
	f.validator.Wait()

	assert.Equal(t, failures, f.recorder.Count(vigil.EventNamePauseAll))
	assert.Equal(t, failures, f.recorder.Count(vigil.EventNameResumeAll))
}
