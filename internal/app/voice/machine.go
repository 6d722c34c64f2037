package voice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PabloGalante/healthai-agent/internal/observability"
)

type State string

const (
	StateIdle      State = "IDLE"
	StateListening State = "LISTENING"
	StateSpeaking  State = "SPEAKING"
)

// Snapshot is the process-local voice session state. At most one flag is true.
type Snapshot struct {
	Listening bool `json:"listening"`
	Speaking  bool `json:"speaking"`
}

var (
	ErrStopped       = errors.New("voice machine is not running")
	ErrNothingToSay  = errors.New("nothing to play")
	ErrAlreadyActive = errors.New("voice machine already running")
)

const queueSize = 32

type op int

const (
	opStartCapture op = iota
	opStartPlayback
	opRelease
	opDevice
)

type envelope struct {
	op    op
	text  string
	gen   uint64
	event Event
	reply chan error
}

// Machine owns one capture device and one playback device. All transitions
// happen on the goroutine running Run; commands and device events share a
// single queue, so they are applied in arrival order.
type Machine struct {
	capturer Capturer
	player   Player
	locale   string
	observer func(from, to State)

	queue chan envelope
	done  chan struct{}
	once  sync.Once

	mu      sync.RWMutex
	state   State
	pending string

	// owned by Run
	gen    uint64
	runCtx context.Context
}

type Option func(*Machine)

// WithObserver registers a callback invoked on the Run goroutine after
// every state change.
func WithObserver(fn func(from, to State)) Option {
	return func(m *Machine) { m.observer = fn }
}

func NewMachine(capturer Capturer, player Player, locale string, opts ...Option) *Machine {
	m := &Machine{
		capturer: capturer,
		player:   player,
		locale:   locale,
		queue:    make(chan envelope, queueSize),
		done:     make(chan struct{}),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run processes commands and device events until ctx is done. On exit any
// in-flight capture or playback is cancelled. Run may be called once.
func (m *Machine) Run(ctx context.Context) error {
	first := false
	m.once.Do(func() { first = true })
	if !first {
		return ErrAlreadyActive
	}

	m.runCtx = ctx
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			m.release()
			return ctx.Err()
		case env := <-m.queue:
			err := m.apply(env)
			if env.reply != nil {
				env.reply <- err
			}
		}
	}
}

// StartCapture begins listening. While listening it stops the capture
// instead; while speaking it cancels playback first.
func (m *Machine) StartCapture(ctx context.Context) error {
	return m.submit(ctx, envelope{op: opStartCapture})
}

// StartPlayback speaks text. While speaking it cancels the current playback
// and returns to idle instead of queueing; while listening it cancels the
// capture first.
func (m *Machine) StartPlayback(ctx context.Context, text string) error {
	return m.submit(ctx, envelope{op: opStartPlayback, text: text})
}

// Release cancels whatever is in flight and returns to idle.
func (m *Machine) Release(ctx context.Context) error {
	return m.submit(ctx, envelope{op: opRelease})
}

func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Machine) Snapshot() Snapshot {
	s := m.State()
	return Snapshot{
		Listening: s == StateListening,
		Speaking:  s == StateSpeaking,
	}
}

// PendingInput is the last capture result. It is never sent automatically.
func (m *Machine) PendingInput() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending
}

// TakePendingInput returns the last capture result and clears it.
func (m *Machine) TakePendingInput() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.pending
	m.pending = ""
	return p
}

// submit queues a command and waits for Run to apply it. Commands queued
// before Run starts are applied once it does.
func (m *Machine) submit(ctx context.Context, env envelope) error {
	env.reply = make(chan error, 1)
	select {
	case m.queue <- env:
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-env.reply:
		return err
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Machine) apply(env envelope) error {
	switch env.op {
	case opStartCapture:
		return m.startCapture()
	case opStartPlayback:
		return m.startPlayback(env.text)
	case opRelease:
		m.release()
		return nil
	case opDevice:
		m.deviceEvent(env.gen, env.event)
		return nil
	default:
		return fmt.Errorf("unknown voice op %d", env.op)
	}
}

func (m *Machine) startCapture() error {
	switch m.State() {
	case StateListening:
		m.capturer.CancelCapture()
		m.gen++
		m.setState(StateIdle)
		return nil
	case StateSpeaking:
		m.player.CancelPlayback()
	}

	m.gen++
	if err := m.capturer.StartCapture(m.runCtx, m.locale, &boundSink{m: m, gen: m.gen}); err != nil {
		observability.Logger().Warn("voice capture failed to start", "error", err)
		m.setState(StateIdle)
		return fmt.Errorf("start capture: %w", err)
	}
	m.setState(StateListening)
	return nil
}

func (m *Machine) startPlayback(text string) error {
	switch m.State() {
	case StateSpeaking:
		m.player.CancelPlayback()
		m.gen++
		m.setState(StateIdle)
		return nil
	case StateListening:
		m.capturer.CancelCapture()
		m.gen++
	}

	if strings.TrimSpace(text) == "" {
		m.setState(StateIdle)
		return ErrNothingToSay
	}

	m.gen++
	if err := m.player.StartPlayback(m.runCtx, text, m.locale, &boundSink{m: m, gen: m.gen}); err != nil {
		observability.Logger().Warn("voice playback failed to start", "error", err)
		m.setState(StateIdle)
		return fmt.Errorf("start playback: %w", err)
	}
	m.setState(StateSpeaking)
	return nil
}

func (m *Machine) release() {
	switch m.State() {
	case StateListening:
		m.capturer.CancelCapture()
	case StateSpeaking:
		m.player.CancelPlayback()
	}
	m.gen++
	m.setState(StateIdle)
}

func (m *Machine) deviceEvent(gen uint64, ev Event) {
	if gen != m.gen {
		return
	}

	switch m.State() {
	case StateListening:
		switch ev.Kind {
		case EventCaptureResult:
			m.mu.Lock()
			m.pending = ev.Text
			m.mu.Unlock()
			m.setState(StateIdle)
		case EventCaptureError:
			observability.Logger().Warn("voice capture error", "error", ev.Err)
			m.setState(StateIdle)
		case EventCaptureEnd:
			m.setState(StateIdle)
		}
	case StateSpeaking:
		if ev.Kind == EventPlaybackEnd {
			m.setState(StateIdle)
		}
	}
}

func (m *Machine) setState(to State) {
	m.mu.Lock()
	from := m.state
	m.state = to
	m.mu.Unlock()

	if from != to && m.observer != nil {
		m.observer(from, to)
	}
}

type boundSink struct {
	m   *Machine
	gen uint64
}

func (s *boundSink) Post(ev Event) {
	select {
	case s.m.queue <- envelope{op: opDevice, gen: s.gen, event: ev}:
	case <-s.m.done:
	}
}
