package vigil

import "sync"

// Default per-token prices in USD.
const (
	DefaultInputCostPerToken  = 0.0000003
	DefaultOutputCostPerToken = 0.0000025
)

// CostRates holds per-token prices used to estimate LLM spend.
// Input tokens are normally cheaper than output tokens.
type CostRates struct {
	InputPerToken  float64
	OutputPerToken float64
}

// DefaultCostRates returns the default input/output prices.
func DefaultCostRates() CostRates {
	return CostRates{
		InputPerToken:  DefaultInputCostPerToken,
		OutputPerToken: DefaultOutputCostPerToken,
	}
}

// Cost estimates the price of the given prompt and response token counts.
func (r CostRates) Cost(promptTokens, respTokens int64) float64 {
	return float64(promptTokens)*r.InputPerToken +
		float64(respTokens)*r.OutputPerToken
}

// TokenUsage accumulates prompt and response token counts for one session.
//
// Counters are monotonically increasing: Add panics on a negative delta, so
// callers sanitize untrusted input first.
//
// # Thread Safety
//
// All methods are safe for concurrent use.
type TokenUsage struct {
	mu       sync.RWMutex
	prompt   int64
	response int64
}

// NewTokenUsage creates an empty accumulator.
func NewTokenUsage() *TokenUsage {
	return &TokenUsage{}
}

// Add increments both counters and returns the new cumulative totals.
func (u *TokenUsage) Add(promptTokens, respTokens int64) (prompt, response int64) {
	if promptTokens < 0 || respTokens < 0 {
		panic("vigil: TokenUsage.Add called with negative delta")
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prompt += promptTokens
	u.response += respTokens
	return u.prompt, u.response
}

// PromptTokens returns the cumulative prompt token count.
func (u *TokenUsage) PromptTokens() int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.prompt
}

// ResponseTokens returns the cumulative response token count.
func (u *TokenUsage) ResponseTokens() int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.response
}

// TotalTokens returns prompt plus response tokens.
func (u *TokenUsage) TotalTokens() int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.prompt + u.response
}
