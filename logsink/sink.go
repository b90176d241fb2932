package logsink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rickchristie/vigil"
)

// Entry is one line written to a Sink.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
	Echo    bool
}

// Sink collects log lines and a token counter for one session.
//
// Entries are append-only and the token counter only accumulates, so writes
// from concurrent validators commute.
type Sink struct {
	sessionID string
	logger    *slog.Logger
	clock     vigil.TimeProvider

	mu      sync.Mutex
	echo    io.Writer
	entries []Entry
	tokens  int64
}

// SessionID returns the session the sink belongs to.
func (s *Sink) SessionID() string {
	return s.sessionID
}

// Log records message at level. When echo is true the line is also written
// to the registry's echo writer, if one is configured.
func (s *Sink) Log(message string, level Level, echo bool) {
	entry := Entry{
		Time:    s.clock.Now(),
		Level:   level,
		Message: message,
		Echo:    echo,
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	if echo && s.echo != nil {
		fmt.Fprintf(s.echo, "%s [%s] %s: %s\n",
			entry.Time.Format("15:04:05.000"), level, s.sessionID, message)
	}
	s.mu.Unlock()

	s.logger.Log(context.Background(), level.slogLevel(), message)
}

// UpdateTokenCounter adds delta to the session's display token counter.
func (s *Sink) UpdateTokenCounter(delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens += delta
}

// TokenCount returns the accumulated display token count.
func (s *Sink) TokenCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

// Entries returns a copy of all entries, oldest first.
func (s *Sink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Messages returns the messages of all entries at level, oldest first.
func (s *Sink) Messages(level Level) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.entries {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}
