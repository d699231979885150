package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockProvider is a Provider implementation for tests and offline runs.
type MockProvider struct {
	mu            sync.Mutex
	mode          MockMode
	responses     []string
	responseIndex int
	delay         time.Duration
	errorAfter    int
	callCount     int

	// Requests records every ChatRequest the provider received, in order.
	Requests []ChatRequest
}

// MockMode defines the operation mode of the mock provider.
type MockMode int

const (
	// MockModeEcho returns the last user message back.
	MockModeEcho MockMode = iota
	// MockModeFixed always returns the first configured response.
	MockModeFixed
	// MockModeFixtures returns configured responses in rotation.
	MockModeFixtures
	// MockModeError always returns an error.
	MockModeError
)

// MockConfig holds configuration for the mock provider.
type MockConfig struct {
	Mode       MockMode
	Responses  []string
	Delay      time.Duration
	ErrorAfter int // successful calls before errors start; 0 means never
}

// NewMockProvider creates a mock provider with the given configuration.
func NewMockProvider(cfg MockConfig) *MockProvider {
	return &MockProvider{
		mode:       cfg.Mode,
		responses:  cfg.Responses,
		delay:      cfg.Delay,
		errorAfter: cfg.ErrorAfter,
	}
}

// NewEchoProvider creates a mock provider that echoes user messages.
func NewEchoProvider() *MockProvider {
	return NewMockProvider(MockConfig{Mode: MockModeEcho})
}

// NewFixedProvider creates a mock provider that always returns response.
func NewFixedProvider(response string) *MockProvider {
	return NewMockProvider(MockConfig{Mode: MockModeFixed, Responses: []string{response}})
}

// NewFixturesProvider creates a mock provider that cycles through responses.
func NewFixturesProvider(responses []string) *MockProvider {
	return NewMockProvider(MockConfig{Mode: MockModeFixtures, Responses: responses})
}

// NewErrorProvider creates a mock provider that always fails.
func NewErrorProvider() *MockProvider {
	return NewMockProvider(MockConfig{Mode: MockModeError})
}

// Chat implements the Provider interface.
func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.Requests = append(m.Requests, req)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.mode == MockModeError {
		return nil, fmt.Errorf("mock provider error")
	}
	if m.errorAfter > 0 && m.callCount > m.errorAfter {
		return nil, fmt.Errorf("mock provider error after %d calls", m.errorAfter)
	}

	var response string
	switch m.mode {
	case MockModeEcho:
		response = "Echo: " + lastUserMessage(req)
	case MockModeFixed:
		if len(m.responses) > 0 {
			response = m.responses[0]
		}
	case MockModeFixtures:
		if len(m.responses) > 0 {
			response = m.responses[m.responseIndex%len(m.responses)]
			m.responseIndex++
		}
	}

	return &ChatResponse{
		Content:      response,
		FinishReason: FinishReasonStop,
		Model:        m.GetDefaultModel(),
	}, nil
}

// GetDefaultModel implements the Provider interface.
func (m *MockProvider) GetDefaultModel() string {
	return "mock"
}

// CallCount returns how many Chat calls the provider has served.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

func lastUserMessage(req ChatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}
