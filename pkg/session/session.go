package session

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/clink-protocol/clink-go/pkg/log"
	"github.com/clink-protocol/clink-go/pkg/transport"
	"github.com/clink-protocol/clink-go/pkg/wire"
)

// DefaultTimeout bounds how long a round trip waits for a reply. The
// device normally answers within a few milliseconds; a miss at this
// bound means the reply was lost, not delayed.
const DefaultTimeout = 300 * time.Millisecond

// Option configures a Session at attach time.
type Option func(*Session)

// WithTimeout overrides the per-request reply timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger installs the protocol event logger.
func WithLogger(l log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session owns one attached device: the port, the staging frame buffer,
// the shared response storage, and the synchronizer that pairs each
// outbound frame with the next inbound one.
type Session struct {
	port    transport.Port
	logger  log.Logger
	id      string
	name    string
	timeout time.Duration

	// mu serializes requests; at most one frame is in flight.
	mu    sync.Mutex
	frame wire.Builder
	resp  [wire.FrameSize]byte

	// waitMu guards the completion state shared with the delivery
	// callback. Separate from mu so the callback never contends with
	// the request lock.
	waitMu   sync.Mutex
	awaiting bool
	done     chan struct{}
	stale    uint64

	closed atomic.Bool
}

// Attach binds a session to a port and reads the device name. The name
// read exercises the full request path; if it fails the device is not
// usable and no session is returned.
func Attach(ctx context.Context, port transport.Port, opts ...Option) (*Session, error) {
	s := &Session{
		port:    port,
		logger:  log.NoopLogger{},
		id:      uuid.NewString(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	port.SetHandler(transport.ReportHandlerFunc(s.handleReport))

	resp, err := s.Roundtrip(ctx, wire.ReadRegister(wire.RegDeviceName))
	if err != nil {
		port.SetHandler(nil)
		return nil, fmt.Errorf("reading device name: %w", err)
	}
	if err := resp.Status().Err(); err != nil {
		port.SetHandler(nil)
		return nil, fmt.Errorf("reading device name: %w", err)
	}
	name := parseName(resp)
	if name == "" {
		port.SetHandler(nil)
		return nil, fmt.Errorf("device returned an empty name")
	}
	s.name = name

	s.emit(log.Event{
		Layer:    log.LayerSession,
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: "DETACHED",
			NewState: "ATTACHED",
		},
	})
	return s, nil
}

// parseName extracts the display name from a name-register response:
// up to 16 bytes after the echoed register, cut at the first NUL and
// trimmed of padding.
func parseName(resp wire.Response) string {
	raw := resp.Payload()[1 : 1+wire.NameLength]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(string(raw))
}

// ID returns the session UUID.
func (s *Session) ID() string {
	return s.id
}

// Name returns the device display name read at attach.
func (s *Session) Name() string {
	return s.name
}

// StaleReports returns how many inbound frames were discarded because
// no request was awaiting a reply.
func (s *Session) StaleReports() uint64 {
	s.waitMu.Lock()
	defer s.waitMu.Unlock()
	return s.stale
}

// Tx is a handle on the held request lock. Operations that must issue
// several dependent round trips without interleaving (rail select
// followed by a register read) run them through one Tx.
type Tx struct {
	s *Session
}

// Roundtrip sends one command within the transaction and waits for its
// reply.
func (tx *Tx) Roundtrip(ctx context.Context, cmd wire.Command) (wire.Response, error) {
	return tx.s.roundtrip(ctx, cmd)
}

// Do runs fn while holding the request lock, so every round trip fn
// issues reaches the device back to back with nothing interleaved.
func (s *Session) Do(ctx context.Context, fn func(tx *Tx) error) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&Tx{s: s})
}

// Roundtrip sends one command and waits for the reply. It is the
// single-command form of Do.
func (s *Session) Roundtrip(ctx context.Context, cmd wire.Command) (wire.Response, error) {
	var resp wire.Response
	err := s.Do(ctx, func(tx *Tx) error {
		var err error
		resp, err = tx.Roundtrip(ctx, cmd)
		return err
	})
	return resp, err
}

// roundtrip runs one exchange with the request lock already held.
func (s *Session) roundtrip(ctx context.Context, cmd wire.Command) (wire.Response, error) {
	s.frame.Reset()
	s.frame.AppendCommand(cmd)
	if s.frame.Overflowed() {
		return wire.Response{}, ErrFrameOverflow
	}

	done := s.arm()
	frame := s.frame.Bytes()
	s.emit(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		Frame:     &log.FrameEvent{Size: len(frame), Data: trimPadding(frame)},
	})

	start := time.Now()
	if err := s.port.Send(frame); err != nil {
		s.disarm()
		terr := &TransportError{Err: err}
		s.emitError(log.LayerTransport, terr, "sending command frame")
		return wire.Response{}, terr
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-done:
		resp := wire.NewResponse(s.resp[:])
		elapsed := time.Since(start)
		status := resp.Status()
		s.emit(log.Event{
			Direction: log.DirectionIn,
			Layer:     log.LayerWire,
			Category:  log.CategoryMessage,
			Command: &log.CommandEvent{
				Op:      cmd.Op,
				Reg:     cmd.Reg,
				Args:    cmd.Args,
				Status:  &status,
				Elapsed: &elapsed,
			},
		})
		return resp, nil
	case <-ctx.Done():
		s.disarm()
		return wire.Response{}, ctx.Err()
	case <-timer.C:
		s.disarm()
		s.emitError(log.LayerSession, ErrTimeout,
			fmt.Sprintf("op 0x%02X reg 0x%02X", cmd.Op, cmd.Reg))
		return wire.Response{}, ErrTimeout
	}
}

// arm installs a fresh completion signal and marks a reply as expected.
// A new channel per request means a reply can complete each request at
// most once.
func (s *Session) arm() chan struct{} {
	s.waitMu.Lock()
	defer s.waitMu.Unlock()
	s.done = make(chan struct{})
	s.awaiting = true
	return s.done
}

// disarm withdraws the expectation after a timeout, cancellation, or
// send failure, so a late reply is discarded instead of completing a
// request that already returned.
func (s *Session) disarm() {
	s.waitMu.Lock()
	s.awaiting = false
	s.waitMu.Unlock()
}

// handleReport is the port delivery callback. It runs on the transport
// goroutine and must not block.
func (s *Session) handleReport(data []byte) {
	s.waitMu.Lock()
	if !s.awaiting {
		s.stale++
		s.waitMu.Unlock()
		s.emit(log.Event{
			Direction: log.DirectionIn,
			Layer:     log.LayerTransport,
			Category:  log.CategoryStale,
			Frame:     &log.FrameEvent{Size: len(data), Data: trimPadding(data)},
		})
		return
	}
	s.resp = [wire.FrameSize]byte{}
	copy(s.resp[:], data)
	s.awaiting = false
	close(s.done)
	s.waitMu.Unlock()

	s.emit(log.Event{
		Direction: log.DirectionIn,
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		Frame:     &log.FrameEvent{Size: len(data), Data: trimPadding(data)},
	})
}

// Close detaches the session and closes the underlying port. A request
// blocked on a reply times out normally; later requests fail with
// ErrSessionClosed. Close is idempotent.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.emit(log.Event{
		Layer:    log.LayerSession,
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: "ATTACHED",
			NewState: "DETACHED",
		},
	})
	s.port.SetHandler(nil)
	return s.port.Close()
}

// emit stamps and forwards an event to the session logger.
func (s *Session) emit(ev log.Event) {
	ev.Timestamp = time.Now()
	ev.SessionID = s.id
	ev.DeviceName = s.name
	s.logger.Log(ev)
}

func (s *Session) emitError(layer log.Layer, err error, context string) {
	s.emit(log.Event{
		Layer:    layer,
		Category: log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: context,
		},
	})
}

// trimPadding drops trailing zero padding for compact log capture.
func trimPadding(frame []byte) []byte {
	end := len(frame)
	for end > 0 && frame[end-1] == 0 {
		end--
	}
	out := make([]byte, end)
	copy(out, frame[:end])
	return out
}
