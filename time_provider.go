package vigil

import (
	"sync"
	"time"
)

// TimeProvider is the clock the bus and log sinks read when stamping events
// and entries.
type TimeProvider interface {
	Now() time.Time
}

// DefaultTimeProvider reads the wall clock.
type DefaultTimeProvider struct{}

func NewDefaultTimeProvider() *DefaultTimeProvider { return &DefaultTimeProvider{} }

func (*DefaultTimeProvider) Now() time.Time { return time.Now() }

// MockTimeProvider is a manually driven clock. It only moves on SetTime or
// Advance, so stamped events compare exactly in tests.
type MockTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

func NewMockTimeProvider(start time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: start}
}

func (m *MockTimeProvider) SetTime(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

var (
	_ TimeProvider = (*DefaultTimeProvider)(nil)
	_ TimeProvider = (*MockTimeProvider)(nil)
)
