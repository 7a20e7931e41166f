package transport

import (
	"errors"
	"sync"
)

// MockDevice replays queued responses and records everything written to it.
type MockDevice struct {
	mu        sync.Mutex
	responses [][]byte
	written   [][]byte

	// EmptyReads is the number of zero-length reads returned before each
	// queued response is handed out.
	EmptyReads int
	// WriteErr, when set, is returned from every Write.
	WriteErr error
	// ReadErr, when set, is returned from every Read.
	ReadErr error

	pendingEmpty int
	closed       bool
}

func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// Emit queues a response for a later Read.
func (m *MockDevice) Emit(resp []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := make([]byte, len(resp))
	copy(b, resp)
	m.responses = append(m.responses, b)
}

// Written returns copies of the byte slices passed to Write, in order.
func (m *MockDevice) Written() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.written))
	copy(out, m.written)
	return out
}

func (m *MockDevice) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, errors.New("mock device closed")
	}
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	b := make([]byte, len(p))
	copy(b, p)
	m.written = append(m.written, b)
	m.pendingEmpty = m.EmptyReads
	return len(p), nil
}

// Read hands out the next queued response, truncated to len(p). With nothing
// queued it behaves like an idle line and returns 0.
func (m *MockDevice) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, errors.New("mock device closed")
	}
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	if m.pendingEmpty > 0 {
		m.pendingEmpty--
		return 0, nil
	}
	if len(m.responses) == 0 {
		return 0, nil
	}
	n := copy(p, m.responses[0])
	m.responses = m.responses[1:]
	return n, nil
}

func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
