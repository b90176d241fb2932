package tt

import (
	"context"
	"sync"

	"github.com/rickchristie/vigil/probe"
)

// -----------------------------------------------------------------------------
// MockProber - implements probe.Prober
// -----------------------------------------------------------------------------

// MockProber is a configurable probe.Prober.
type MockProber struct {
	ok    bool
	err   error
	panic any
	hang  chan struct{}

	closeErr error

	mu     sync.Mutex
	tested int
	closed int
}

// NewMockProber creates a prober whose TestModel returns ok.
func NewMockProber(ok bool) *MockProber {
	return &MockProber{ok: ok}
}

// WithError makes TestModel return err.
func (p *MockProber) WithError(err error) *MockProber {
	p.err = err
	return p
}

// WithPanic makes TestModel panic with v.
func (p *MockProber) WithPanic(v any) *MockProber {
	p.panic = v
	return p
}

// WithCloseError makes Close return err.
func (p *MockProber) WithCloseError(err error) *MockProber {
	p.closeErr = err
	return p
}

// WithHang makes TestModel block until release is closed, ignoring context
// cancellation.
func (p *MockProber) WithHang(release chan struct{}) *MockProber {
	p.hang = release
	return p
}

// TestModel implements probe.Prober.
func (p *MockProber) TestModel(context.Context) (bool, error) {
	p.mu.Lock()
	p.tested++
	p.mu.Unlock()

	if p.hang != nil {
		<-p.hang
	}
	if p.panic != nil {
		panic(p.panic)
	}
	return p.ok, p.err
}

// Close implements probe.Prober.
func (p *MockProber) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return p.closeErr
}

// Tested returns how many times TestModel was called.
func (p *MockProber) Tested() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tested
}

// Closed returns how many times Close was called.
func (p *MockProber) Closed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// -----------------------------------------------------------------------------
// MockFactory - counts prober construction
// -----------------------------------------------------------------------------

// MockFactory hands out the same MockProber and records the sessions it was
// built for.
type MockFactory struct {
	prober *MockProber

	mu       sync.Mutex
	sessions []string
}

// NewMockFactory creates a factory returning prober.
func NewMockFactory(prober *MockProber) *MockFactory {
	return &MockFactory{prober: prober}
}

// New implements probe.Factory.
func (f *MockFactory) New(sessionID string) (probe.Prober, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, sessionID)
	return f.prober, nil
}

// Built returns how many probers were constructed.
func (f *MockFactory) Built() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// Sessions returns the session ids probers were built for.
func (f *MockFactory) Sessions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sessions))
	copy(out, f.sessions)
	return out
}

// Table returns a probe.Table with this factory registered under model.
func (f *MockFactory) Table(model string) *probe.Table {
	return probe.NewTable().Register(model, probe.FromFactory(f.New))
}
