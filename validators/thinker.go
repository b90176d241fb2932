package validators

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rickchristie/vigil"
	"github.com/rickchristie/vigil/probe"
)

// DefaultProbeTimeout bounds a single model probe.
const DefaultProbeTimeout = 30 * time.Second

const tracerName = "github.com/rickchristie/vigil/validators"

// ThinkerFailure recovers from a misconfigured or unreachable model.
//
// # State Machine
//
//	Running --LLM_error--> Paused (probing) --probe ok--> Running
//	                                       \--probe failed--> Stopped
//
// On a ThinkerCallEvent at LLM_error level it publishes PauseAllEvent before
// returning from the handler, then probes the reported model on its own
// goroutine and publishes either ResumeAllEvent or StopEvent. Other levels
// are ignored.
//
// The probe is looked up in a probe.Table; unknown model names fail without
// building a client. A probe that errors, panics or exceeds the timeout is a
// failure. The probe goroutine ignores cancellation of the publisher's
// context: once started, recovery always ends with resume_all or stop.
type ThinkerFailure struct {
	sessionID string
	publisher vigil.Publisher
	probes    *probe.Table
	timeout   time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer

	mu       sync.Mutex
	idle     *sync.Cond
	inflight int
}

// NewThinkerFailure creates a failure-recovery validator for sessionID.
func NewThinkerFailure(
	sessionID string,
	publisher vigil.Publisher,
	probes *probe.Table,
) *ThinkerFailure {
	v := &ThinkerFailure{
		sessionID: sessionID,
		publisher: publisher,
		probes:    probes,
		timeout:   DefaultProbeTimeout,
		logger:    discardLogger(),
		tracer:    otel.Tracer(tracerName),
	}
	v.idle = sync.NewCond(&v.mu)
	return v
}

// WithTimeout bounds each probe. Zero disables the bound.
func (v *ThinkerFailure) WithTimeout(d time.Duration) *ThinkerFailure {
	v.timeout = d
	return v
}

// WithLogger sets the logger. Returns the validator for chaining.
func (v *ThinkerFailure) WithLogger(logger *slog.Logger) *ThinkerFailure {
	v.logger = logger
	return v
}

// WithTracer overrides the tracer used for probe spans.
func (v *ThinkerFailure) WithTracer(tracer trace.Tracer) *ThinkerFailure {
	v.tracer = tracer
	return v
}

// Wait blocks until no recovery is in flight. It may be called while events
// are still being published; a recovery started during the wait extends it.
// For a final result, call Wait after the runtime stops publishing.
func (v *ThinkerFailure) Wait() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for v.inflight > 0 {
		v.idle.Wait()
	}
}

// OnThinkerCall implements vigil.ThinkerCallSubscriber.
func (v *ThinkerFailure) OnThinkerCall(ctx context.Context, event *vigil.ThinkerCallEvent) {
	if event.Level != vigil.ThinkerLevelLLMError {
		return
	}

	v.logger.Warn("LLM failure reported, pausing agent",
		slog.String("session_id", v.sessionID),
		slog.String("model", event.Model),
		slog.String("message", event.Message),
	)
	v.publisher.Publish(ctx, &vigil.PauseAllEvent{})

	v.mu.Lock()
	v.inflight++
	v.mu.Unlock()
	go v.recoverModel(context.WithoutCancel(ctx), event.Model)
}

// recoverModel probes model and publishes the outcome.
func (v *ThinkerFailure) recoverModel(ctx context.Context, model string) {
	defer func() {
		v.mu.Lock()
		v.inflight--
		if v.inflight == 0 {
			v.idle.Broadcast()
		}
		v.mu.Unlock()
	}()

	if v.probe(ctx, model) {
		v.logger.Info("model probe passed, resuming agent",
			slog.String("session_id", v.sessionID),
			slog.String("model", model),
		)
		v.publisher.Publish(ctx, &vigil.ResumeAllEvent{})
		return
	}

	v.logger.Warn("model probe failed, stopping session",
		slog.String("session_id", v.sessionID),
		slog.String("model", model),
	)
	v.publisher.Publish(ctx, &vigil.StopEvent{
		Message:   fmt.Sprintf("Invalid model %q for session %s", model, v.sessionID),
		SessionID: v.sessionID,
	})
}

type probeResult struct {
	ok  bool
	err error
}

// probe runs the model's capability and converts every fault into false.
func (v *ThinkerFailure) probe(ctx context.Context, model string) bool {
	ctx, span := v.tracer.Start(ctx, "vigil.thinker.probe",
		trace.WithAttributes(
			attribute.String("vigil.session_id", v.sessionID),
			attribute.String("vigil.model", model),
		),
	)
	defer span.End()

	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	capability := v.probes.Resolve(model)
	done := make(chan probeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- probeResult{err: fmt.Errorf("probe panicked: %v", r)}
			}
		}()
		ok, err := capability.Probe(ctx, v.sessionID)
		done <- probeResult{ok: ok, err: err}
	}()

	var res probeResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = probeResult{err: fmt.Errorf("probe did not finish within %s: %w", v.timeout, ctx.Err())}
	}

	if res.err != nil {
		v.logger.Error("model probe fault",
			slog.String("session_id", v.sessionID),
			slog.String("model", model),
			slog.Any("error", res.err),
		)
		span.RecordError(res.err)
		span.SetStatus(codes.Error, res.err.Error())
		return false
	}

	span.SetAttributes(attribute.Bool("vigil.probe.ok", res.ok))
	return res.ok
}

var _ vigil.ThinkerCallSubscriber = (*ThinkerFailure)(nil)
