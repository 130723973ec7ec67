package inference

import (
	"context"
	"sync"
	"time"
)

// Mock implements Model for testing.
type Mock struct {
	// GenerateFunc is called when Generate is invoked.
	GenerateFunc func(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation.
type MockCall struct {
	Method  string
	Prompt  string
	Profile Profile
	Time    time.Time
}

// NewMock creates a mock that always answers with text.
func NewMock(text string) *Mock {
	return &Mock{
		GenerateFunc: func(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
			return &GenerateResponse{
				Text:         text,
				FinishReason: "STOP",
				Model:        "mock",
				Usage:        Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
			}, nil
		},
	}
}

// WithError creates a mock that always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		GenerateFunc: func(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
			return nil, err
		},
	}
}

// FailingFirst creates a mock that fails n times with err, then answers with text.
func FailingFirst(n int, err error, text string) *Mock {
	m := &Mock{}
	ok := NewMock(text).GenerateFunc
	m.GenerateFunc = func(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
		if m.CallCount("Generate") <= n {
			return nil, err
		}
		return ok(ctx, req)
	}
	return m
}

// Generate calls GenerateFunc and records the call.
func (m *Mock) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	m.record(MockCall{Method: "Generate", Prompt: req.Prompt, Profile: req.Profile})
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return nil, WrapError("mock", ErrProviderUnavailable)
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record(MockCall{Method: "Close"})
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) record(call MockCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call.Time = time.Now()
	m.calls = append(m.calls, call)
}

// Calls returns all recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.calls))
	copy(result, m.calls)
	return result
}

// CallCount returns the number of times a method was called.
func (m *Mock) CallCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.calls {
		if c.Method == method {
			count++
		}
	}
	return count
}

// Verify Mock implements Model at compile time.
var _ Model = (*Mock)(nil)
