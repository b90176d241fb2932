package logsink

import (
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/rickchristie/vigil"
)

// Registry owns the sinks of all sessions in the process.
//
// # Lifecycle
//
// Create one Registry at process start and pass it to every component that
// logs per session. Sinks are created on first GetOrCreate and live until
// the process exits.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	sinks  map[string]*Sink
	logger *slog.Logger
	echo   io.Writer
	clock  vigil.TimeProvider
}

// NewRegistry creates an empty Registry with a discard logger and no echo
// writer.
func NewRegistry() *Registry {
	return &Registry{
		sinks:  make(map[string]*Sink),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  vigil.NewDefaultTimeProvider(),
	}
}

// WithLogger sets the slog logger that sinks created afterwards write to.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
	return r
}

// WithEcho sets the writer that receives entries logged with echo=true.
func (r *Registry) WithEcho(w io.Writer) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.echo = w
	return r
}

// WithTimeProvider sets the clock used to timestamp entries.
func (r *Registry) WithTimeProvider(tp vigil.TimeProvider) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = tp
	return r
}

// GetOrCreate returns the sink for sessionID, creating it if absent.
// Repeated calls with the same id return the same *Sink.
func (r *Registry) GetOrCreate(sessionID string) *Sink {
	r.mu.RLock()
	s, ok := r.sinks[sessionID]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sinks[sessionID]; ok {
		return s
	}
	s = &Sink{
		sessionID: sessionID,
		logger:    r.logger.With(slog.String("session_id", sessionID)),
		clock:     r.clock,
		echo:      r.echo,
	}
	r.sinks[sessionID] = s
	return s
}

// Get returns the sink for sessionID without creating it.
func (r *Registry) Get(sessionID string) (*Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sinks[sessionID]
	return s, ok
}

// Sessions returns the ids of all sessions with a sink, sorted.
func (r *Registry) Sessions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sinks))
	for id := range r.sinks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
