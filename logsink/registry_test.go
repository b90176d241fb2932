package logsink

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rickchristie/vigil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetOrCreate_Idempotent(t *testing.T) {
	r := NewRegistry()

	a := r.GetOrCreate("s1")
	b := r.GetOrCreate("s1")
	c := r.GetOrCreate("s2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "s1", a.SessionID())
	assert.Equal(t, []string{"s1", "s2"}, r.Sessions())
}

func TestRegistry_Get_DoesNotCreate(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("missing")
	assert.False(t, ok)
	assert.Empty(t, r.Sessions())

	created := r.GetOrCreate("present")
	got, ok := r.Get("present")
	require.True(t, ok)
	assert.Same(t, created, got)
}

func TestRegistry_ConcurrentGetOrCreate(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	sinks := make([]*Sink, 20)
	for i := range sinks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sinks[i] = r.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for _, s := range sinks {
		assert.Same(t, sinks[0], s)
	}
}

func TestSink_Log(t *testing.T) {
	ts := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)
	var logs, echo bytes.Buffer

	r := NewRegistry().
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))).
		WithEcho(&echo).
		WithTimeProvider(vigil.NewMockTimeProvider(ts))
	s := r.GetOrCreate("s1")

	s.Log("quiet line", LevelInfo, false)
	s.Log("loud line", LevelWarn, true)

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Time: ts, Level: LevelInfo, Message: "quiet line"}, entries[0])
	assert.Equal(t, Entry{Time: ts, Level: LevelWarn, Message: "loud line", Echo: true}, entries[1])

	assert.Equal(t, []string{"quiet line"}, s.Messages(LevelInfo))
	assert.Equal(t, []string{"loud line"}, s.Messages(LevelWarn))

	assert.Contains(t, logs.String(), "session_id=s1")
	assert.Contains(t, logs.String(), `msg="quiet line"`)
	assert.Contains(t, logs.String(), `msg="loud line"`)

	assert.NotContains(t, echo.String(), "quiet line")
	assert.True(t, strings.Contains(echo.String(), "[WARN] s1: loud line"))
}

func TestSink_UpdateTokenCounter(t *testing.T) {
	s := NewRegistry().GetOrCreate("s1")

	s.UpdateTokenCounter(150)
	s.UpdateTokenCounter(210)

	assert.Equal(t, int64(360), s.TokenCount())
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{Level(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.level.String())
	}
}
