package probe

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tmc/langchaingo/llms/openai"
)

const (
	// GeminiModelName is the table key for Gemini.
	GeminiModelName = "gemini"

	// GeminiBaseURL is Gemini's OpenAI-compatible endpoint. The chat
	// completions endpoint is at {baseURL}/chat/completions.
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

	// DefaultGeminiModel is the backend model probed when none is configured.
	DefaultGeminiModel = "gemini-2.0-flash"
)

// ErrMissingAPIKey is returned when a Gemini prober is built without a key.
var ErrMissingAPIKey = errors.New("gemini api key is required")

// GeminiConfig configures NewGeminiFactory.
type GeminiConfig struct {
	APIKey string

	// Model is the backend model name, e.g. "gemini-2.0-flash".
	Model string

	// BaseURL overrides GeminiBaseURL (useful for proxies and tests).
	BaseURL string

	// Prompt overrides DefaultPrompt.
	Prompt string
}

// NewGeminiFactory returns a Factory that builds a Gemini prober through
// the OpenAI-compatible API. Each prober owns its own HTTP transport, so
// closing it drops its connections.
//
// Additional openai.Option values customise the underlying LangChainGo
// client and are applied after the defaults.
func NewGeminiFactory(cfg GeminiConfig, opts ...openai.Option) Factory {
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = GeminiBaseURL
	}

	return func(sessionID string) (Prober, error) {
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}

		transport := http.DefaultTransport.(*http.Transport).Clone()
		client := &http.Client{Transport: transport}

		baseOpts := []openai.Option{
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
			openai.WithHTTPClient(client),
		}
		llm, err := openai.New(append(baseOpts, opts...)...)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to create Gemini client for session %s: %w",
				sessionID, err,
			)
		}

		p := NewLLMProber(llm).WithRelease(transport.CloseIdleConnections)
		if cfg.Prompt != "" {
			p.WithPrompt(cfg.Prompt)
		}
		return p, nil
	}
}
