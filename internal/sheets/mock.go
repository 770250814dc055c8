package sheets

import (
	"context"
	"sync"
)

// MockWriter is a mock implementation of ReportWriter for testing.
type MockWriter struct {
	WriteFunc  func(ctx context.Context, report Report) error
	LastReport *Report
	WriteCalls []WriteCall
	mu         sync.Mutex
}

// WriteCall represents a single call to Write.
type WriteCall struct {
	Error  error
	Report Report
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{WriteCalls: make([]WriteCall, 0)}
}

// Write implements the ReportWriter interface.
func (m *MockWriter) Write(ctx context.Context, report Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastReport = &report

	var err error
	if m.WriteFunc != nil {
		err = m.WriteFunc(ctx, report)
	}
	m.WriteCalls = append(m.WriteCalls, WriteCall{Report: report, Error: err})
	return err
}

// GetWriteCalls returns a copy of all write calls.
func (m *MockWriter) GetWriteCalls() []WriteCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]WriteCall, len(m.WriteCalls))
	copy(calls, m.WriteCalls)
	return calls
}

// SetWriteError makes every later Write call fail with err.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, Report) error {
		return err
	}
}
