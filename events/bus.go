package events

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/rickchristie/vigil"
	"github.com/rickchristie/vigil/internal/buffer"
)

// Bus is the in-process publish/subscribe channel shared by the agent
// runtime and the validators.
//
// # Overview
//
// Bus is the central coordination point for subscribers. It:
//   - Stores registered subscribers in order
//   - Stamps each event with a timestamp before dispatch
//   - Dispatches events to subscribers that implement the relevant interface
//   - Streams a copy of every event to taps
//   - Guards against unbounded publish recursion
//
// Subscribers can implement any combination of subscriber interfaces - they
// only receive events for the interfaces they implement.
//
// # Creating and Using
//
//	bus := events.NewBus()
//	spam, err := validators.NewActionSpam(bus, validators.DefaultSpamWindowSize)
//	if err != nil {
//	    return err
//	}
//	sub := bus.Subscribe(spam)
//	defer bus.Unsubscribe(sub)
//
//	bus.Publish(ctx, &vigil.ActionStartedEvent{Action: vigil.Action{Step: "search"}})
//
// # Delivery
//
// Publish delivers synchronously on the caller's goroutine, in subscription
// order. A handler that publishes (e.g. a validator emitting a warning)
// triggers a nested dispatch that completes before Publish returns to the
// handler. Handlers that need to do slow work start their own goroutine and
// publish from there.
//
// A panicking subscriber is recovered and logged; remaining subscribers still
// receive the event.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Subscribing or unsubscribing
// during a dispatch takes effect from the next Publish.
type Bus struct {
	mu           sync.RWMutex
	nextID       uint64
	subscribers  []subscription
	taps         map[uint64]*buffer.Queue[vigil.Event]
	timeProvider vigil.TimeProvider
	maxRecursion int
	logger       *slog.Logger
}

// DefaultMaxRecursion is the default maximum nested publish depth.
const DefaultMaxRecursion = 10

// Subscription identifies a registration returned by Subscribe.
type Subscription struct {
	id uint64
}

type subscription struct {
	id         uint64
	subscriber any
}

type depthKey struct{}

// NewBus creates an empty Bus using the system clock and a discard logger.
func NewBus() *Bus {
	return &Bus{
		taps:         make(map[uint64]*buffer.Queue[vigil.Event]),
		timeProvider: vigil.NewDefaultTimeProvider(),
		maxRecursion: DefaultMaxRecursion,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithTimeProvider sets the clock used to stamp events.
func (b *Bus) WithTimeProvider(tp vigil.TimeProvider) *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timeProvider = tp
	return b
}

// WithLogger sets the logger used to report recovered subscriber panics.
func (b *Bus) WithLogger(logger *slog.Logger) *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
	return b
}

// SetMaxRecursion sets the maximum nested publish depth.
// If a subscriber publishes an event that triggers another subscriber
// that publishes an event, etc., this limit prevents infinite loops.
//
// Default is 10. Publish panics when a publish exceeds this depth.
func (b *Bus) SetMaxRecursion(max int) *Bus {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.maxRecursion = max
	return b
}

// MaxRecursion returns the configured maximum recursion depth.
func (b *Bus) MaxRecursion() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.maxRecursion
}

// Subscribe adds a subscriber. The subscriber can implement any combination
// of subscriber interfaces (vigil.ActionStartedSubscriber,
// vigil.StopSubscriber, etc.).
//
// Subscribers are called in the order they are registered.
func (b *Bus) Subscribe(subscriber any) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.subscribers = append(b.subscribers, subscription{
		id:         b.nextID,
		subscriber: subscriber,
	})
	return Subscription{id: b.nextID}
}

// Unsubscribe removes a subscription. It returns false if the subscription
// was not registered (or was already removed).
func (b *Bus) Unsubscribe(sub Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s.id == sub.id {
			kept := make([]subscription, 0, len(b.subscribers)-1)
			kept = append(kept, b.subscribers[:i]...)
			kept = append(kept, b.subscribers[i+1:]...)
			b.subscribers = kept
			return true
		}
	}
	return false
}

// Tap returns a channel that receives every event published from now on,
// in publish order, without ever blocking the publisher.
//
// Calling the returned stop function ends the tap gracefully: events already
// published are still delivered and the channel closes once they drain, so
// the caller must keep reading until it closes. When ctx is done before stop
// is called, the tap is discarded instead: pending events are dropped and the
// channel closes whether or not anyone reads it.
func (b *Bus) Tap(ctx context.Context) (<-chan vigil.Event, func()) {
	q := buffer.NewQueue[vigil.Event]()

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.taps[id] = q
	b.mu.Unlock()

	remove := func() {
		b.mu.Lock()
		delete(b.taps, id)
		b.mu.Unlock()
	}
	cancelDiscard := context.AfterFunc(ctx, func() {
		remove()
		q.Discard()
	})

	var once sync.Once
	stop := func() {
		once.Do(func() {
			if !cancelDiscard() {
				// Already discarded.
				return
			}
			remove()
			q.Close()
		})
	}
	return q.Out(), stop
}

// Publish stamps the event (if its timestamp is unset) and dispatches it to
// all matching subscribers. Implements vigil.Publisher.
func (b *Bus) Publish(ctx context.Context, event vigil.Event) {
	if event == nil {
		return
	}

	b.mu.RLock()
	maxRecursion := b.maxRecursion
	now := b.timeProvider.Now()
	subscribers := b.subscribers
	taps := make([]*buffer.Queue[vigil.Event], 0, len(b.taps))
	for _, q := range b.taps {
		taps = append(taps, q)
	}
	b.mu.RUnlock()

	depth, _ := ctx.Value(depthKey{}).(int)
	depth++
	if depth > maxRecursion {
		panic(fmt.Sprintf(
			"vigil: publish of %s exceeded max recursion depth %d",
			event.EventName(), maxRecursion,
		))
	}
	ctx = context.WithValue(ctx, depthKey{}, depth)

	if base := event.Base(); base.Timestamp.IsZero() {
		base.Timestamp = now
	}

	for _, q := range taps {
		q.Push(event)
	}

	for _, s := range subscribers {
		b.deliver(ctx, s.subscriber, event)
	}
}

// deliver sends one event to one subscriber, recovering any panic.
func (b *Bus) deliver(ctx context.Context, subscriber any, event vigil.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.mu.RLock()
			logger := b.logger
			b.mu.RUnlock()
			logger.Error("subscriber panicked",
				slog.String("event", event.EventName()),
				slog.String("subscriber", fmt.Sprintf("%T", subscriber)),
				slog.Any("panic", r),
			)
		}
	}()
	Dispatch(ctx, subscriber, event)
}

// Dispatch calls the handler methods subscriber implements for event.
// It does not recover panics.
func Dispatch(ctx context.Context, subscriber any, event vigil.Event) {
	switch e := event.(type) {
	case *vigil.ActionStartedEvent:
		if sub, ok := subscriber.(vigil.ActionStartedSubscriber); ok {
			sub.OnActionStarted(ctx, e)
		}
	case *vigil.LLMCallEvent:
		if sub, ok := subscriber.(vigil.LLMCallSubscriber); ok {
			sub.OnLLMCall(ctx, e)
		}
	case *vigil.ThinkerCallEvent:
		if sub, ok := subscriber.(vigil.ThinkerCallSubscriber); ok {
			sub.OnThinkerCall(ctx, e)
		}
	case *vigil.ValidatorWarningEvent:
		if sub, ok := subscriber.(vigil.ValidatorWarningSubscriber); ok {
			sub.OnValidatorWarning(ctx, e)
		}
	case *vigil.PauseAllEvent:
		if sub, ok := subscriber.(vigil.PauseAllSubscriber); ok {
			sub.OnPauseAll(ctx, e)
		}
	case *vigil.ResumeAllEvent:
		if sub, ok := subscriber.(vigil.ResumeAllSubscriber); ok {
			sub.OnResumeAll(ctx, e)
		}
	case *vigil.StopEvent:
		if sub, ok := subscriber.(vigil.StopSubscriber); ok {
			sub.OnStop(ctx, e)
		}
	}

	if sub, ok := subscriber.(vigil.AnyEventSubscriber); ok {
		sub.OnEvent(ctx, event)
	}
}

// Len returns the number of registered subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Clear removes all registered subscribers. Taps are left open.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = nil
}

// Compile-time check.
var _ vigil.Publisher = (*Bus)(nil)
