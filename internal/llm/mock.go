package llm

import (
	"context"
	"sync"
)

// MockProvider is a configurable backend for testing and offline runs.
// Queued responses are consumed first, then Response is returned.
type MockProvider struct {
	mu sync.Mutex

	name      string
	Response  string
	Err       error
	responses []string
	errs      []error

	// Call tracking for assertions
	Calls []Request
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		name:     name,
		Response: "Mock response",
	}
}

func (m *MockProvider) Name() string {
	return m.name
}

// QueueResponse makes the next unanswered call return text.
func (m *MockProvider) QueueResponse(text string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, text)
	m.errs = append(m.errs, nil)
	return m
}

// QueueError makes the next unanswered call fail with err.
func (m *MockProvider) QueueError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, "")
	m.errs = append(m.errs, err)
	return m
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)
	if len(m.responses) > 0 {
		text, err := m.responses[0], m.errs[0]
		m.responses, m.errs = m.responses[1:], m.errs[1:]
		return text, err
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// CallCount returns how many times Generate was called.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent request, or the zero Request.
func (m *MockProvider) LastCall() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return Request{}
	}
	return m.Calls[len(m.Calls)-1]
}

// Reset clears recorded calls and queued responses.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.responses = nil
	m.errs = nil
	m.Err = nil
	m.Response = "Mock response"
}
