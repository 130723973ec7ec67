package stt

import (
	"context"
	"sync"
	"time"
)

// Mock implements Recognizer for testing.
type Mock struct {
	// RecognizeFunc is called when Recognize is invoked.
	// If nil, returns ErrProviderUnavailable.
	RecognizeFunc func(ctx context.Context, req *Request) (*Result, error)

	// CloseFunc is called when Close is invoked.
	CloseFunc func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a method invocation for verification.
type MockCall struct {
	Method   string
	Language string
	Bytes    int
	Time     time.Time
}

// NewMock returns a mock that recognizes every request as text.
func NewMock(text string) *Mock {
	return &Mock{
		RecognizeFunc: func(ctx context.Context, req *Request) (*Result, error) {
			return &Result{Text: text, Confidence: 0.9, LatencyMs: 1}, nil
		},
	}
}

// WithError returns a mock whose Recognize always fails with err.
func WithError(err error) *Mock {
	return &Mock{
		RecognizeFunc: func(ctx context.Context, req *Request) (*Result, error) {
			return nil, err
		},
	}
}

// Recognize calls RecognizeFunc and records the call.
func (m *Mock) Recognize(ctx context.Context, req *Request) (*Result, error) {
	m.record("Recognize", req)
	if m.RecognizeFunc != nil {
		return m.RecognizeFunc(ctx, req)
	}
	return nil, WrapError("mock", ErrProviderUnavailable)
}

// Close calls CloseFunc and records the call.
func (m *Mock) Close() error {
	m.record("Close", nil)
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *Mock) record(method string, req *Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := MockCall{Method: method, Time: time.Now()}
	if req != nil {
		call.Language = req.Language.String()
		call.Bytes = len(req.Audio)
	}
	m.calls = append(m.calls, call)
}

// Calls returns all recorded method calls.
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

// Verify Mock implements Recognizer at compile time.
var _ Recognizer = (*Mock)(nil)
