package validators

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rickchristie/vigil"
	"github.com/rickchristie/vigil/logsink"
)

// LLMUsage tracks token usage and estimated cost for one session.
//
// On every LLMCallEvent it adds the call's tokens to the session totals,
// writes a per-call line and a cumulative line to the session's log sink,
// and forwards the call's total tokens to the sink's token counter.
//
// Negative token counts are clamped to zero (and logged) so the session
// totals never decrease.
type LLMUsage struct {
	sessionID string
	sinks     *logsink.Registry
	rates     vigil.CostRates
	usage     *vigil.TokenUsage
	logger    *slog.Logger
}

// NewLLMUsage creates a usage validator for sessionID using the default
// cost rates.
func NewLLMUsage(sessionID string, sinks *logsink.Registry) *LLMUsage {
	return &LLMUsage{
		sessionID: sessionID,
		sinks:     sinks,
		rates:     vigil.DefaultCostRates(),
		usage:     vigil.NewTokenUsage(),
		logger:    discardLogger(),
	}
}

// WithRates overrides the per-token prices.
func (v *LLMUsage) WithRates(rates vigil.CostRates) *LLMUsage {
	v.rates = rates
	return v
}

// WithLogger sets the logger. Returns the validator for chaining.
func (v *LLMUsage) WithLogger(logger *slog.Logger) *LLMUsage {
	v.logger = logger
	return v
}

// Usage returns the session's token accumulator.
func (v *LLMUsage) Usage() *vigil.TokenUsage {
	return v.usage
}

// Rates returns the configured per-token prices.
func (v *LLMUsage) Rates() vigil.CostRates {
	return v.rates
}

// TotalCost returns the estimated cost of all tokens seen so far.
func (v *LLMUsage) TotalCost() float64 {
	return v.rates.Cost(v.usage.PromptTokens(), v.usage.ResponseTokens())
}

// OnLLMCall implements vigil.LLMCallSubscriber.
func (v *LLMUsage) OnLLMCall(_ context.Context, event *vigil.LLMCallEvent) {
	prompt := v.clamp("prompt", event.PromptTokens)
	resp := v.clamp("response", event.RespTokens)

	totalPrompt, totalResp := v.usage.Add(prompt, resp)

	sink := v.sinks.GetOrCreate(v.sessionID)
	sink.Log(
		formatUsage("LLM call ("+event.ModelName+")", prompt, resp, v.rates),
		logsink.LevelInfo, false,
	)
	sink.Log(
		formatUsage("Session total", totalPrompt, totalResp, v.rates),
		logsink.LevelInfo, false,
	)
	sink.UpdateTokenCounter(prompt + resp)
}

func (v *LLMUsage) clamp(field string, n int64) int64 {
	if n >= 0 {
		return n
	}
	v.logger.Warn("negative token count clamped to zero",
		slog.String("session_id", v.sessionID),
		slog.String("field", field),
		slog.Int64("value", n),
	)
	return 0
}

func formatUsage(label string, prompt, resp int64, rates vigil.CostRates) string {
	return fmt.Sprintf(
		"%s: prompt tokens %d, response tokens %d, total tokens %d, estimated cost $%.6f",
		label, prompt, resp, prompt+resp, rates.Cost(prompt, resp),
	)
}

var _ vigil.LLMCallSubscriber = (*LLMUsage)(nil)
