package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/newsnest/nest-agent/internal/domain"
)

// MockClient is a scripted CompletionClient for development and tests.
// GenerateFunc, when set, handles every call; otherwise a canned echo reply
// is returned.
type MockClient struct {
	GenerateFunc func(ctx context.Context, req domain.CompletionRequest) (string, error)

	mu    sync.Mutex
	calls []domain.CompletionRequest
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, req domain.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return fmt.Sprintf("I hear you! You said %q. Want to dig into that together?", req.Prompt), nil
}

// Calls returns a copy of every request seen so far.
func (m *MockClient) Calls() []domain.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount reports how many times Generate has been invoked.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
