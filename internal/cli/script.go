package cli

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rickchristie/vigil"
)

var (
	// ErrInvalidScript is wrapped by every script parse or conversion error.
	ErrInvalidScript = errors.New("invalid event script")

	// ErrUnknownEventType is returned for event types a script may not publish.
	ErrUnknownEventType = errors.New("unknown event type")
)

// Script is a recorded agent run: the inbound events a runtime would
// publish, in order.
//
//	session: demo
//	events:
//	  - type: action_started
//	    action: {step: search, args: {q: weather}}
//	    repeat: 3
//	  - type: llm_call
//	    model_name: gemini
//	    prompt_tokens: 100
//	    resp_tokens: 20
//	  - type: thinker_call
//	    level: LLM_error
//	    model: gemini
//	    message: 404 model not found
type Script struct {
	Session string        `yaml:"session"`
	Events  []ScriptEvent `yaml:"events"`
}

// ScriptEvent is one entry of a Script. Only the fields of its Type are read.
type ScriptEvent struct {
	Type string `yaml:"type"`

	// action_started
	Action *vigil.Action `yaml:"action,omitempty"`

	// llm_call
	ModelName    string `yaml:"model_name,omitempty"`
	PromptTokens int64  `yaml:"prompt_tokens,omitempty"`
	RespTokens   int64  `yaml:"resp_tokens,omitempty"`

	// thinker_call
	Message string             `yaml:"message,omitempty"`
	Model   string             `yaml:"model,omitempty"`
	Level   vigil.ThinkerLevel `yaml:"level,omitempty"`

	// Repeat publishes the event this many times. Zero means once.
	Repeat int `yaml:"repeat,omitempty"`
}

// ParseScript decodes a YAML script and checks every event converts.
func ParseScript(r io.Reader) (*Script, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var script Script
	if err := dec.Decode(&script); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty script", ErrInvalidScript)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if _, err := script.InboundEvents(); err != nil {
		return nil, err
	}
	return &script, nil
}

// InboundEvents expands the script into fresh events, repeats included.
func (s *Script) InboundEvents() ([]vigil.Event, error) {
	var out []vigil.Event
	for i, se := range s.Events {
		if se.Repeat < 0 {
			return nil, fmt.Errorf("%w: event %d: negative repeat %d",
				ErrInvalidScript, i, se.Repeat)
		}
		n := max(se.Repeat, 1)
		for range n {
			event, err := se.Event()
			if err != nil {
				return nil, fmt.Errorf("%w: event %d: %w", ErrInvalidScript, i, err)
			}
			out = append(out, event)
		}
	}
	return out, nil
}

// Event converts the entry into a new vigil event.
func (se ScriptEvent) Event() (vigil.Event, error) {
	switch se.Type {
	case vigil.EventNameActionStarted:
		if se.Action == nil || se.Action.Step == "" {
			return nil, errors.New("action_started requires action.step")
		}
		return &vigil.ActionStartedEvent{Action: *se.Action}, nil

	case vigil.EventNameLLMCall:
		return &vigil.LLMCallEvent{
			ModelName:    se.ModelName,
			PromptTokens: se.PromptTokens,
			RespTokens:   se.RespTokens,
		}, nil

	case vigil.EventNameThinkerCall:
		if !se.Level.Valid() {
			return nil, fmt.Errorf("thinker_call has invalid level %q", se.Level)
		}
		return &vigil.ThinkerCallEvent{
			Message: se.Message,
			Model:   se.Model,
			Level:   se.Level,
		}, nil

	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownEventType, se.Type)
	}
}
