package probe

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// DefaultPrompt is the message sent by LLMProber.
const DefaultPrompt = "Reply with the single word: pong"

// LLMProber implements Prober on top of a langchaingo llms.Model.
// The model passes if it returns a non-empty completion without error.
//
// Example usage:
//
//	llm, _ := openai.New(openai.WithToken(apiKey))
//	p := probe.NewLLMProber(llm).WithPrompt("ping")
//	defer p.Close()
//	ok, err := p.TestModel(ctx)
type LLMProber struct {
	model     llms.Model
	prompt    string
	maxTokens int
	release   func()

	mu     sync.Mutex
	closed bool
}

// NewLLMProber creates a prober for model.
func NewLLMProber(model llms.Model) *LLMProber {
	return &LLMProber{
		model:     model,
		prompt:    DefaultPrompt,
		maxTokens: 16,
	}
}

// WithPrompt overrides the probe prompt.
func (p *LLMProber) WithPrompt(prompt string) *LLMProber {
	p.prompt = prompt
	return p
}

// WithMaxTokens caps the completion length requested by the probe.
func (p *LLMProber) WithMaxTokens(n int) *LLMProber {
	p.maxTokens = n
	return p
}

// WithRelease sets a function called once by Close, e.g. to drop idle HTTP
// connections owned by the prober.
func (p *LLMProber) WithRelease(release func()) *LLMProber {
	p.release = release
	return p
}

// TestModel implements Prober.
func (p *LLMProber) TestModel(ctx context.Context) (bool, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return false, ErrProberClosed
	}

	opts := []llms.CallOption{}
	if p.maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(p.maxTokens))
	}

	completion, err := llms.GenerateFromSinglePrompt(ctx, p.model, p.prompt, opts...)
	if err != nil {
		return false, fmt.Errorf("generate: %w", err)
	}
	return strings.TrimSpace(completion) != "", nil
}

// Close implements Prober. Safe to call more than once.
func (p *LLMProber) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.release != nil {
		p.release()
	}
	return nil
}

var _ Prober = (*LLMProber)(nil)
