package serial

import (
	"sync"
	"time"
)

// Mock is an in-memory Port backed by an unbounded byte queue, standing in
// for a real device.
// Writes made with Inject simulate bytes arriving from the wire; Written
// captures everything sent through Write/WriteAll.
type Mock struct {
	mu      sync.Mutex
	inbound []byte
	written []byte
	status  ModemStatus
	closed  bool
}

// NewMock returns a Mock with an empty inbound queue.
func NewMock() *Mock { return &Mock{} }

// Inject appends data to the simulated inbound queue, as if it had just
// arrived on the wire.
func (m *Mock) Inject(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbound = append(m.inbound, data...)
}

// Written returns everything written to the port so far.
func (m *Mock) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.written))
	copy(out, m.written)
	return out
}

func (m *Mock) Read(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	n := copy(buf, m.inbound)
	m.inbound = m.inbound[n:]
	return n, nil
}

func (m *Mock) Write(data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	m.written = append(m.written, data...)
	return len(data), nil
}

func (m *Mock) WriteAll(data []byte) error {
	_, err := m.Write(data)
	return err
}

func (m *Mock) SendBreak() error { return nil }

func (m *Mock) SetDTR(state bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.DTR = state
	return nil
}

func (m *Mock) SetRTS(state bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.RTS = state
	return nil
}

func (m *Mock) ModemStatus() (ModemStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, nil
}

func (m *Mock) FlushInput() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbound = nil
	return nil
}

func (m *Mock) FlushOutput() error { return nil }

func (m *Mock) Flush() error {
	if err := m.FlushInput(); err != nil {
		return err
	}
	return m.FlushOutput()
}

func (m *Mock) BytesAvailable() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inbound)
}

func (m *Mock) WaitForData(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if m.BytesAvailable() > 0 {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ Port = (*Mock)(nil)
