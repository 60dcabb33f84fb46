package engine

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oiascix/ble-app/pkg/gatt"
	"github.com/oiascix/ble-app/pkg/log"
	"github.com/oklog/ulid/v2"
)

// Engine runs unlock sessions, one at a time.
type Engine struct {
	cfg     Config
	adapter gatt.Adapter
	logger  *slog.Logger
	trace   log.Logger

	box     *mailbox
	stopped chan struct{}
	closed  atomic.Bool

	// state mirrors the current session state for State().
	state atomic.Uint32

	cbMu            sync.RWMutex
	onOutcome       func(Outcome)
	onDiagnostic    func(string)
	onAdvertisement func(gatt.Advertisement)

	// Owned by the run goroutine.
	desc        gatt.ServiceDescriptor
	configured  bool
	debugFilter string
	gen         uint64
	sess        *session
	scanTimer   *time.Timer
	stepTimer   *time.Timer
}

// New creates an engine and starts its event goroutine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		adapter: cfg.Adapter,
		logger:  cfg.Logger.With("component", "engine"),
		trace:   cfg.TraceLogger,
		box:     newMailbox(),
		stopped: make(chan struct{}),
	}
	go e.run()
	return e, nil
}

// Configure sets the lock interface and the debug name filter for the
// sessions started after it. An empty debugFilter scans with the service
// filter; a non-empty one scans unfiltered, reports every advertisement to
// OnAdvertisement and connects only to peripherals whose name contains it.
func (e *Engine) Configure(desc gatt.ServiceDescriptor, debugFilter string) error {
	if err := desc.Validate(); err != nil {
		return err
	}
	if !e.box.post(configureEvent{desc: desc, debugFilter: debugFilter}) {
		return ErrClosed
	}
	return nil
}

// Start begins a new session, cancelling the active one first. It returns
// the session ID; the result arrives through OnOutcome.
func (e *Engine) Start(clock int64, source KeySource) (string, error) {
	return e.start(startEvent{clock: clock, source: source})
}

// StartFromStore begins a session with the clock value, and for
// Preconfigured mode the secret, read from st. Missing values end the
// session with NotConfigured.
func (e *Engine) StartFromStore(st SecretStore, mode KeyMode) (string, error) {
	ev := startEvent{source: KeySource{Mode: mode}}

	clock, ok, err := st.ClockValue()
	switch {
	case err != nil:
		ev.preflight = err
	case !ok:
		ev.preflight = ErrNoClockValue
	default:
		ev.clock = clock
	}

	if ev.preflight == nil && mode == Preconfigured {
		secret, err := st.PersistedSecret()
		switch {
		case err != nil:
			ev.preflight = err
		case len(secret) == 0:
			ev.preflight = ErrNoSecret
		default:
			ev.source.Secret = secret
			defer clear(secret)
		}
	}
	return e.start(ev)
}

func (e *Engine) start(ev startEvent) (string, error) {
	if e.closed.Load() {
		return "", ErrClosed
	}
	ev.id = ulid.Make().String()
	ev.source.Secret = bytes.Clone(ev.source.Secret)
	if !e.box.post(ev) {
		return "", ErrClosed
	}
	return ev.id, nil
}

// Cancel ends the active session, if any. The scan is stopped and the
// connection closed; no further operations are issued for it.
func (e *Engine) Cancel() {
	e.box.post(cancelEvent{})
}

// State returns the current engine state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// OnOutcome sets the callback receiving each session's outcome.
func (e *Engine) OnOutcome(fn func(Outcome)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onOutcome = fn
}

// OnDiagnostic sets the callback receiving human-readable step messages.
func (e *Engine) OnDiagnostic(fn func(string)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onDiagnostic = fn
}

// OnAdvertisement sets the callback receiving every advertisement seen
// while a debug filter is configured.
func (e *Engine) OnAdvertisement(fn func(gatt.Advertisement)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onAdvertisement = fn
}

// Close cancels the active session and stops the engine. It must not be
// called from an engine callback.
func (e *Engine) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		<-e.stopped
		return
	}
	e.box.closeWith(closeEvent{})
	<-e.stopped
}

func (e *Engine) run() {
	defer close(e.stopped)
	for range e.box.ready {
		for _, ev := range e.box.drain() {
			if !e.dispatch(ev) {
				return
			}
		}
	}
}

// dispatch handles one event and reports whether the loop continues.
func (e *Engine) dispatch(ev event) bool {
	if gen, ok := generation(ev); ok {
		if e.sess == nil || gen != e.sess.gen {
			e.logger.Debug("dropping stale event", "type", fmt.Sprintf("%T", ev), "gen", gen, "current", e.gen)
			return true
		}
	}

	switch ev := ev.(type) {
	case configureEvent:
		e.desc = ev.desc
		e.debugFilter = ev.debugFilter
		e.configured = true
	case startEvent:
		e.handleStart(ev)
	case cancelEvent:
		e.handleCancel(ErrCancelled)
	case closeEvent:
		e.handleCancel(ErrClosed)
		return false
	case scanMatchEvent:
		e.handleScanMatch(ev.adv)
	case scanErrorEvent:
		e.handleScanError(ev.err)
	case scanTimeoutEvent:
		e.handleScanTimeout()
	case stepTimeoutEvent:
		e.handleStepTimeout(ev.state)
	case connStateEvent:
		e.handleConnState(ev.state)
	case servicesEvent:
		e.handleServices(ev.services, ev.err)
	case charReadEvent:
		e.handleCharRead(ev.id, ev.value, ev.err)
	case charWriteEvent:
		e.handleCharWrite(ev.id, ev.err)
	}
	return true
}

func (e *Engine) emitOutcome(o Outcome) {
	e.cbMu.RLock()
	fn := e.onOutcome
	e.cbMu.RUnlock()
	if fn != nil {
		fn(o)
	}
}

func (e *Engine) emitAdvertisement(adv gatt.Advertisement) {
	e.cbMu.RLock()
	fn := e.onAdvertisement
	e.cbMu.RUnlock()
	if fn != nil {
		fn(adv)
	}
}

func (e *Engine) diag(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	e.logger.Debug(msg)

	e.cbMu.RLock()
	fn := e.onDiagnostic
	e.cbMu.RUnlock()
	if fn != nil {
		fn(msg)
	}
}
