package model

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Conversation roles shared by all providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn in normalized form.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Model is the minimal synchronous interface a transition function needs to
// drive generation. Complete receives the full conversation so far and
// returns the next assistant message.
type Model interface {
	Complete(ctx context.Context, messages []Message) (Message, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Responses are keyed by the content of the last message; unknown prompts
// get a deterministic echo reply.
type MockModel struct {
	info    Info
	latency time.Duration

	mu        sync.Mutex
	responses map[string]string
	calls     int
}

// NewMockModel constructs a MockModel identifying as the given name.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetLatency makes every completion sleep for d, simulating provider delay.
func (m *MockModel) SetLatency(d time.Duration) { m.latency = d }

// Calls reports how many completions have been served.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, messages []Message) (Message, error) {
	if len(messages) == 0 {
		return Message{}, fmt.Errorf("no messages provided")
	}
	if m.latency > 0 {
		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-time.After(m.latency):
		}
	}

	prompt := messages[len(messages)-1].Content

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	reply, ok := m.responses[prompt]
	if !ok {
		reply = fmt.Sprintf("Mock response to: %s", prompt)
	}
	return Message{Role: RoleAssistant, Content: reply}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
