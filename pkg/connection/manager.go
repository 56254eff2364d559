package connection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/clink-protocol/clink-go/pkg/log"
)

// Manager errors.
var (
	ErrManagerClosed   = errors.New("connection manager closed")
	ErrAlreadyAttached = errors.New("already attached")
)

// attachTimeout bounds one reattach attempt: opening the device node
// plus the attach-time name read.
const attachTimeout = 10 * time.Second

// State is the attach state of the managed device.
type State uint8

const (
	// StateDetached indicates no device is attached.
	StateDetached State = iota

	// StateAttaching indicates a foreground attach is in progress.
	StateAttaching

	// StateAttached indicates a live session.
	StateAttached

	// StateReattaching indicates the device was lost and background
	// reattach is running.
	StateReattaching

	// StateClosed indicates the manager has been shut down.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDetached:
		return "DETACHED"
	case StateAttaching:
		return "ATTACHING"
	case StateAttached:
		return "ATTACHED"
	case StateReattaching:
		return "REATTACHING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// AttachFunc opens the device and establishes a session. It is called
// for the initial attach and for every reattach attempt.
type AttachFunc func(ctx context.Context) error

// Manager tracks attach state and reattaches with backoff after a
// device loss.
type Manager struct {
	mu sync.RWMutex

	state    State
	attachFn AttachFunc
	backoff  *Backoff
	logger   log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	reattachCh chan struct{}

	onStateChange func(from, to State)
	onAttached    func()
	onReattaching func(attempt int, delay time.Duration)
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithBackoff overrides the reattach backoff schedule.
func WithBackoff(b *Backoff) ManagerOption {
	return func(m *Manager) {
		if b != nil {
			m.backoff = b
		}
	}
}

// WithLogger installs a protocol event logger for state changes.
func WithLogger(l log.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a manager around an attach function and starts the
// background reattach loop.
func NewManager(attachFn AttachFunc, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		state:      StateDetached,
		attachFn:   attachFn,
		backoff:    NewBackoff(),
		logger:     log.NoopLogger{},
		ctx:        ctx,
		cancel:     cancel,
		reattachCh: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.wg.Add(1)
	go m.reattachLoop()
	return m
}

// State returns the current attach state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsAttached reports whether a session is live.
func (m *Manager) IsAttached() bool {
	return m.State() == StateAttached
}

// Attach performs the initial foreground attach.
func (m *Manager) Attach(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateAttached:
		m.mu.Unlock()
		return ErrAlreadyAttached
	case StateClosed:
		m.mu.Unlock()
		return ErrManagerClosed
	}
	m.transitionLocked(StateAttaching, "attach requested")
	m.mu.Unlock()

	if err := m.attachFn(ctx); err != nil {
		m.mu.Lock()
		m.transitionLocked(StateDetached, err.Error())
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.backoff.Reset()
	m.transitionLocked(StateAttached, "")
	m.mu.Unlock()

	if fn := m.onAttached; fn != nil {
		fn()
	}
	return nil
}

// NotifyLost reports a device loss (unplug, repeated timeouts, port
// error) and starts background reattach.
func (m *Manager) NotifyLost(reason string) {
	m.mu.Lock()
	if m.state != StateAttached {
		m.mu.Unlock()
		return
	}
	m.transitionLocked(StateReattaching, reason)
	m.mu.Unlock()

	select {
	case m.reattachCh <- struct{}{}:
	default:
	}
}

// Close shuts the manager down. Pending reattach attempts are
// cancelled.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	m.transitionLocked(StateClosed, "")
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

// OnStateChange registers a state transition callback.
func (m *Manager) OnStateChange(fn func(from, to State)) {
	m.mu.Lock()
	m.onStateChange = fn
	m.mu.Unlock()
}

// OnAttached registers a callback fired after every successful attach,
// initial or background.
func (m *Manager) OnAttached(fn func()) {
	m.mu.Lock()
	m.onAttached = fn
	m.mu.Unlock()
}

// OnReattaching registers a callback fired before each backoff wait.
func (m *Manager) OnReattaching(fn func(attempt int, delay time.Duration)) {
	m.mu.Lock()
	m.onReattaching = fn
	m.mu.Unlock()
}

// Attempts returns the reattach attempts since the last success.
func (m *Manager) Attempts() int {
	return m.backoff.Attempts()
}

// transitionLocked changes state and emits the change. Caller holds
// m.mu.
func (m *Manager) transitionLocked(to State, reason string) {
	from := m.state
	if from == to {
		return
	}
	m.state = to

	m.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerSession,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})
	if fn := m.onStateChange; fn != nil {
		// Callbacks run outside the lock would reorder transitions
		// under concurrency; keep them short instead.
		fn(from, to)
	}
}

func (m *Manager) reattachLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.reattachCh:
			m.reattach()
		}
	}
}

// reattach retries the attach function with backoff until it succeeds
// or the manager closes.
func (m *Manager) reattach() {
	for {
		if s := m.State(); s != StateReattaching {
			return
		}

		delay := m.backoff.Next()
		if fn := m.onReattaching; fn != nil {
			fn(m.backoff.Attempts(), delay)
		}

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(delay):
		}

		if s := m.State(); s != StateReattaching {
			return
		}

		ctx, cancel := context.WithTimeout(m.ctx, attachTimeout)
		err := m.attachFn(ctx)
		cancel()
		if err != nil {
			continue
		}

		m.mu.Lock()
		if m.state != StateReattaching {
			m.mu.Unlock()
			return
		}
		m.backoff.Reset()
		m.transitionLocked(StateAttached, "")
		m.mu.Unlock()

		if fn := m.onAttached; fn != nil {
			fn()
		}
		return
	}
}
