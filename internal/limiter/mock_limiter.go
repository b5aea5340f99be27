package limiter

import (
	"context"
	"sync"
)

// MockLimiter is a test double for the Limiter interface
type MockLimiter struct {
	mu sync.Mutex

	AllowResult bool  // What Allow returns
	CloseError  error // What Close returns

	allowCalls  []string
	closeCalled bool
}

// NewMockLimiter creates a mock that allows (or denies) everything
func NewMockLimiter(allowResult bool) *MockLimiter {
	return &MockLimiter{AllowResult: allowResult}
}

// Allow implements the Limiter interface
func (m *MockLimiter) Allow(_ context.Context, client string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allowCalls = append(m.allowCalls, client)
	return m.AllowResult
}

// Close implements the Limiter interface
func (m *MockLimiter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalled = true
	return m.CloseError
}

// AllowCalls returns the clients Allow was called with
func (m *MockLimiter) AllowCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.allowCalls...)
}

// CloseCalled reports whether Close was called
func (m *MockLimiter) CloseCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalled
}
