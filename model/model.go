package model

import (
	"context"
	"fmt"
	"sync"
)

// Request captures the normalized model input an agent assembles per turn.
type Request struct {
	// Instructions is the system prompt: the agent's persona plus the
	// standing rules of the sandbox.
	Instructions string `json:"instructions"`

	// Prompt is the rendered conversation window, recalled memories and
	// any per-turn cue, in plain text.
	Prompt string `json:"prompt"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the final completion for a Request.
type Response struct {
	Text  string      `json:"text"`
	Usage *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal interface required by agents to drive generation.
// Complete may suspend arbitrarily long; callers must pass a context they
// are prepared to wait on.
type Model interface {
	Complete(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// It records the last request and can be primed with canned completions or
// a forced error.
type MockModel struct {
	info Info

	mu        sync.Mutex
	responses map[string]string
	fallback  string
	lastReq   Request
	err       error
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetDefaultResponse sets the completion returned when no canned response
// matches the prompt.
func (m *MockModel) SetDefaultResponse(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = text
}

// FailWith makes every subsequent Complete call return err.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// LastRequest returns the most recent request passed to Complete.
func (m *MockModel) LastRequest() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}

// Complete implements Model; returns the canned completion for the prompt
// or a generic echo when none is registered.
func (m *MockModel) Complete(ctx context.Context, req Request) (Response, error) {
	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	default:
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastReq = req
	if m.err != nil {
		return Response{}, m.err
	}
	if full, ok := m.responses[req.Prompt]; ok {
		return Response{Text: full}, nil
	}
	if m.fallback != "" {
		return Response{Text: m.fallback}, nil
	}
	return Response{Text: fmt.Sprintf("Mock response to: %s", req.Prompt)}, nil
}

// Info implements the Model interface.
func (m *MockModel) Info() Info { return m.info }
