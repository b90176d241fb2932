package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
)

var (
	// ErrUnsupportedModel is returned by Unsupported.Probe.
	ErrUnsupportedModel = errors.New("unsupported model")

	// ErrProberClosed is returned by TestModel after Close.
	ErrProberClosed = errors.New("prober closed")
)

// Prober is a single-use model check. Callers invoke TestModel once and then
// Close it.
type Prober interface {
	// TestModel sends a minimal request to the model and reports whether it
	// answered. A non-nil error is a fault; callers treat it as failure.
	TestModel(ctx context.Context) (bool, error)

	// Close releases the prober's resources.
	Close() error
}

// Factory builds a fresh Prober scoped to a session.
type Factory func(sessionID string) (Prober, error)

// Capability probes one kind of model backend.
type Capability interface {
	Probe(ctx context.Context, sessionID string) (bool, error)
}

// -----------------------------------------------------------------------------
// Capability variants
// -----------------------------------------------------------------------------

// Unsupported is the capability returned for model names with no table
// entry. It always fails and never contacts anything.
type Unsupported struct {
	Model string
}

// Probe implements Capability.
func (u Unsupported) Probe(context.Context, string) (bool, error) {
	return false, fmt.Errorf("%w: %q", ErrUnsupportedModel, u.Model)
}

// FactoryCapability builds, tests and releases a Prober on every Probe call.
//
// The result of TestModel alone decides the outcome. A Close error is logged
// and never turns a passing probe into a failure.
type FactoryCapability struct {
	factory Factory
	logger  *slog.Logger
}

// FromFactory returns a Capability backed by f.
func FromFactory(f Factory) *FactoryCapability {
	return &FactoryCapability{
		factory: f,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithLogger sets the logger that receives release failures.
func (c *FactoryCapability) WithLogger(logger *slog.Logger) *FactoryCapability {
	c.logger = logger
	return c
}

// Probe implements Capability.
func (c *FactoryCapability) Probe(ctx context.Context, sessionID string) (bool, error) {
	p, err := c.factory(sessionID)
	if err != nil {
		return false, fmt.Errorf("create prober: %w", err)
	}
	defer func() {
		if cerr := p.Close(); cerr != nil {
			c.logger.Warn("failed to release prober",
				slog.String("session_id", sessionID),
				slog.Any("error", cerr),
			)
		}
	}()

	return p.TestModel(ctx)
}

// -----------------------------------------------------------------------------
// Table
// -----------------------------------------------------------------------------

// Table maps model names to capabilities. Safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	entries map[string]Capability
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{entries: make(map[string]Capability)}
}

// Register adds or replaces the capability for model.
// Returns the table for chaining.
func (t *Table) Register(model string, c Capability) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[model] = c
	return t
}

// Resolve returns the capability registered for model, or Unsupported.
func (t *Table) Resolve(model string) Capability {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if c, ok := t.entries[model]; ok {
		return c
	}
	return Unsupported{Model: model}
}

// Supports reports whether model has a registered capability.
func (t *Table) Supports(model string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[model]
	return ok
}

// Models returns the registered model names, sorted.
func (t *Table) Models() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
