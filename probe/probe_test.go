package probe

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProber struct {
	ok      bool
	err     error
	tested  int
	closed  int
	closeFn func() error
}

func (p *stubProber) TestModel(context.Context) (bool, error) {
	p.tested++
	return p.ok, p.err
}

func (p *stubProber) Close() error {
	p.closed++
	if p.closeFn != nil {
		return p.closeFn()
	}
	return nil
}

func TestTable_Resolve(t *testing.T) {
	known := FromFactory(func(string) (Prober, error) { return &stubProber{ok: true}, nil })
	table := NewTable().Register("gemini", known)

	tests := []struct {
		name        string
		model       string
		supported   bool
		expectedErr error
	}{
		{name: "registered model", model: "gemini", supported: true},
		{name: "unknown model", model: "unknown", expectedErr: ErrUnsupportedModel},
		{name: "empty model", model: "", expectedErr: ErrUnsupportedModel},
		{name: "case sensitive", model: "Gemini", expectedErr: ErrUnsupportedModel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.supported, table.Supports(tt.model))

			ok, err := table.Resolve(tt.model).Probe(context.Background(), "s1")
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestTable_Models(t *testing.T) {
	table := NewTable().
		Register("zeta", Unsupported{}).
		Register("alpha", Unsupported{})

	assert.Equal(t, []string{"alpha", "zeta"}, table.Models())
}

func TestFactoryCapability_ScopesAndReleases(t *testing.T) {
	tests := []struct {
		name       string
		prober     *stubProber
		expectedOK bool
		expectErr  bool
	}{
		{name: "probe passes", prober: &stubProber{ok: true}, expectedOK: true},
		{name: "probe fails", prober: &stubProber{ok: false}},
		{name: "probe faults", prober: &stubProber{err: errors.New("boom")}, expectErr: true},
		{
			name: "close error does not fail a passing model",
			prober: &stubProber{ok: true, closeFn: func() error {
				return errors.New("close failed")
			}},
			expectedOK: true,
		},
		{
			name: "close error does not mask a fault",
			prober: &stubProber{err: errors.New("boom"), closeFn: func() error {
				return errors.New("close failed")
			}},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSession string
			c := FromFactory(func(sessionID string) (Prober, error) {
				gotSession = sessionID
				return tt.prober, nil
			})

			ok, err := c.Probe(context.Background(), "session-42")

			assert.Equal(t, "session-42", gotSession)
			assert.Equal(t, tt.expectedOK, ok)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, 1, tt.prober.tested)
			assert.Equal(t, 1, tt.prober.closed)
		})
	}
}

func TestFactoryCapability_LogsCloseError(t *testing.T) {
	var logs bytes.Buffer
	prober := &stubProber{ok: true, closeFn: func() error {
		return errors.New("close failed")
	}}
	c := FromFactory(func(string) (Prober, error) { return prober, nil }).
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil)))

	ok, err := c.Probe(context.Background(), "session-42")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, logs.String(), "failed to release prober")
	assert.Contains(t, logs.String(), "close failed")
	assert.Contains(t, logs.String(), "session_id=session-42")
}

func TestFactoryCapability_FactoryError(t *testing.T) {
	c := FromFactory(func(string) (Prober, error) {
		return nil, ErrMissingAPIKey
	})

	ok, err := c.Probe(context.Background(), "s1")

	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
