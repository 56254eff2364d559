package transport

import (
	"errors"
	"sync"
)

// ErrPortClosed indicates a Send on a closed port.
var ErrPortClosed = errors.New("port is closed")

// Pipe is an in-memory Port for tests. Outbound frames are recorded and
// optionally handed to an OnSend hook; the test injects inbound frames
// with Deliver.
type Pipe struct {
	mu      sync.Mutex
	handler ReportHandler
	sent    [][]byte
	sendErr error
	closed  bool

	// OnSend, if set, is called with a copy of every outbound frame
	// after it is recorded. Useful for scripting device replies.
	OnSend func(frame []byte)
}

// NewPipe creates an in-memory port.
func NewPipe() *Pipe {
	return &Pipe{}
}

// Send records a copy of the frame and invokes the OnSend hook.
func (p *Pipe) Send(frame []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPortClosed
	}
	if p.sendErr != nil {
		err := p.sendErr
		p.mu.Unlock()
		return err
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	p.sent = append(p.sent, cp)
	hook := p.OnSend
	p.mu.Unlock()

	if hook != nil {
		hook(cp)
	}
	return nil
}

// SetHandler implements Port.
func (p *Pipe) SetHandler(h ReportHandler) {
	p.mu.Lock()
	p.handler = h
	p.mu.Unlock()
}

// Close implements Port.
func (p *Pipe) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// Deliver injects an inbound frame, invoking the registered handler
// synchronously. Frames delivered with no handler set are dropped,
// matching real port behavior.
func (p *Pipe) Deliver(data []byte) {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()
	if h != nil {
		h.HandleReport(data)
	}
}

// Sent returns copies of all frames sent so far, in order.
func (p *Pipe) Sent() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.sent))
	copy(out, p.sent)
	return out
}

// SentCount returns the number of frames sent so far.
func (p *Pipe) SentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

// FailSends makes subsequent Send calls return err (nil restores
// normal operation).
func (p *Pipe) FailSends(err error) {
	p.mu.Lock()
	p.sendErr = err
	p.mu.Unlock()
}
