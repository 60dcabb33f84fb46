package engine

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oiascix/ble-app/pkg/codec"
	"github.com/oiascix/ble-app/pkg/gatt"
	"github.com/oiascix/ble-app/pkg/log"
	"github.com/oiascix/ble-app/pkg/token"
)

func (e *Engine) handleStart(ev startEvent) {
	if e.sess != nil {
		e.diag("session %s replaced by %s", e.sess.id, ev.id)
		e.handleCancel(ErrSuperseded)
	}

	e.gen++
	now := time.Now()
	s := &session{
		id:          ev.id,
		gen:         e.gen,
		state:       Idle,
		desc:        e.desc,
		debugFilter: e.debugFilter,
		clock:       ev.clock,
		source:      ev.source,
		startedAt:   now,
	}
	e.sess = s
	e.logger.Info("session started", "session", s.id, "gen", s.gen, "key_source", s.source.Mode.String())

	switch {
	case ev.preflight != nil:
		e.finish(NotConfigured, ev.preflight)
		return
	case !e.configured:
		e.finish(NotConfigured, ErrNoDescriptor)
		return
	case ev.clock < 0:
		e.finish(NotConfigured, fmt.Errorf("%w: %d", ErrNoClockValue, ev.clock))
		return
	case s.source.Mode == Preconfigured:
		key := bytes.TrimSpace(s.source.Secret)
		if len(codec.Base32Decode(string(key))) == 0 {
			e.finish(NotConfigured, ErrNoSecret)
			return
		}
		s.sharedKey = bytes.Clone(key)
	}

	if err := e.adapter.Ready(); err != nil {
		e.finish(TransportUnavailable, err)
		return
	}
	e.enterScanning(s)
}

func (e *Engine) handleCancel(cause error) {
	s := e.sess
	if s == nil {
		return
	}
	// The unlock was already acknowledged; only the teardown is cut short.
	if s.state == Completed {
		s.linkOpen = false
		e.finish(None, nil)
		return
	}
	e.diag("cancelling session in %s", s.state)
	e.finish(Cancelled, cause)
}

// Scanning

func (e *Engine) enterScanning(s *session) {
	var filter *uuid.UUID
	detail := s.desc.Service.String()
	if s.debugFilter == "" {
		svc := s.desc.Service
		filter = &svc
	} else {
		detail = "name~" + s.debugFilter
	}

	e.setState(s, Scanning, "")
	s.scanStartedAt = time.Now()
	gen := s.gen
	e.traceOp(s, log.DirectionOut, log.OpScan, uuid.Nil, 0, detail, false)

	err := e.adapter.Scan(filter, gatt.ScanCallbacks{
		OnMatch: func(adv gatt.Advertisement) { e.box.post(scanMatchEvent{gen: gen, adv: adv}) },
		OnError: func(err error) { e.box.post(scanErrorEvent{gen: gen, err: err}) },
	})
	if err != nil {
		e.finish(TransportUnavailable, err)
		return
	}

	e.scanTimer = time.AfterFunc(e.cfg.ScanTimeout, func() {
		e.box.post(scanTimeoutEvent{gen: gen})
	})
	e.diag("scanning for %s (timeout %s)", detail, e.cfg.ScanTimeout)
}

func (e *Engine) handleScanMatch(adv gatt.Advertisement) {
	s := e.sess
	if s.state != Scanning {
		return
	}
	e.traceOp(s, log.DirectionIn, log.OpAdvertisement, uuid.Nil, 0, adv.Peripheral.String(), false)

	if s.debugFilter != "" {
		e.emitAdvertisement(adv)
		if !adv.Peripheral.NameContains(s.debugFilter) {
			return
		}
	}

	e.stopScanTimer()
	e.stopScan(s)
	s.peripheral = adv.Peripheral
	e.diag("found %s rssi=%d", adv.Peripheral, adv.RSSI)
	e.enterConnecting(s)
}

func (e *Engine) handleScanError(err error) {
	s := e.sess
	if s.state != Scanning {
		return
	}
	e.traceError(s, log.LayerGATT, err, "scan")
	e.finish(TransportUnavailable, err)
}

func (e *Engine) handleScanTimeout() {
	s := e.sess
	if s.state != Scanning {
		return
	}
	e.finish(ScanTimeout, ErrScanTimeout)
}

// Connection

func (e *Engine) enterConnecting(s *session) {
	e.setState(s, Connecting, "")
	gen := s.gen
	e.traceOp(s, log.DirectionOut, log.OpConnect, uuid.Nil, 0, s.peripheral.ID, false)

	s.linkOpen = true
	err := e.adapter.Connect(s.peripheral, gatt.ConnCallbacks{
		OnStateChange: func(st gatt.ConnState) {
			e.box.post(connStateEvent{gen: gen, state: st})
		},
		OnServicesReady: func(m gatt.ServiceMap, err error) {
			e.box.post(servicesEvent{gen: gen, services: m, err: err})
		},
		OnCharRead: func(id uuid.UUID, value []byte, err error) {
			e.box.post(charReadEvent{gen: gen, id: id, value: bytes.Clone(value), err: err})
		},
		OnCharWrite: func(id uuid.UUID, err error) {
			e.box.post(charWriteEvent{gen: gen, id: id, err: err})
		},
	})
	if err != nil {
		s.linkOpen = false
		e.finish(ConnectFailed, err)
		return
	}
	e.armStep(s)
}

func (e *Engine) handleConnState(st gatt.ConnState) {
	s := e.sess
	e.traceOp(s, log.DirectionIn, log.OpConnState, uuid.Nil, 0, st.String(), false)

	switch st {
	case gatt.Connected:
		if s.state != Connecting {
			return
		}
		e.diag("connected to %s", s.peripheral)
		e.enterDiscovering(s)

	case gatt.Disconnected:
		s.linkOpen = false
		if s.state == Completed {
			e.finish(None, nil)
			return
		}
		if s.state.connected() {
			e.finish(s.state.failure(), ErrUnexpectedDisconnect)
		}
	}
}

// Service discovery

func (e *Engine) enterDiscovering(s *session) {
	e.setState(s, DiscoveringServices, "")
	e.traceOp(s, log.DirectionOut, log.OpDiscover, uuid.Nil, 0, "", false)
	if err := e.adapter.DiscoverServices(); err != nil {
		e.finish(ServiceMismatch, err)
		return
	}
	e.armStep(s)
}

func (e *Engine) handleServices(m gatt.ServiceMap, err error) {
	s := e.sess
	if s.state != DiscoveringServices {
		return
	}
	e.traceOp(s, log.DirectionIn, log.OpServices, uuid.Nil, len(m), "", err != nil)

	if err != nil {
		e.finish(ServiceMismatch, err)
		return
	}
	if !m.Has(s.desc.Service, s.requiredChars()...) {
		e.finish(ServiceMismatch, ErrServiceMissing)
		return
	}
	e.diag("service %s ready", s.desc.Service)

	if s.source.Mode == Preconfigured {
		e.enterComputingAuth(s)
		return
	}
	e.enterReadingKey(s)
}

// Key retrieval

func (e *Engine) enterReadingKey(s *session) {
	e.setState(s, ReadingKey, "")
	e.traceOp(s, log.DirectionOut, log.OpRead, s.desc.KeyChar, 0, "", false)
	if err := e.adapter.ReadCharacteristic(s.desc.KeyChar); err != nil {
		e.finish(KeyReadFailed, err)
		return
	}
	e.armStep(s)
}

func (e *Engine) handleCharRead(id uuid.UUID, value []byte, err error) {
	s := e.sess
	defer clear(value)

	if s.state != ReadingKey || id != s.desc.KeyChar {
		e.diag("ignoring read of %s in %s", id, s.state)
		return
	}
	e.traceOp(s, log.DirectionIn, log.OpRead, id, len(value), "", err != nil)

	if err != nil {
		e.finish(KeyReadFailed, err)
		return
	}
	key := bytes.TrimSpace(value)
	if len(key) == 0 {
		e.finish(KeyReadFailed, ErrEmptyKey)
		return
	}
	if len(codec.Base32Decode(string(key))) == 0 {
		e.finish(KeyReadFailed, ErrKeyNotBase32)
		return
	}
	s.sharedKey = bytes.Clone(key)
	e.diag("key received: %s... (%d chars)", keyPrefix(s.sharedKey), len(s.sharedKey))
	e.enterComputingAuth(s)
}

// Token and command writes

func (e *Engine) enterComputingAuth(s *session) {
	e.setState(s, ComputingAuth, "")

	tok, err := token.SignedToken(s.sharedKey, e.cfg.Subject, e.cfg.Now().Unix(), int64(e.cfg.TokenTTL/time.Second))
	if err != nil {
		e.finish(AuthWriteFailed, err)
		return
	}
	payload := []byte(tok)
	e.traceOp(s, log.DirectionOut, log.OpWrite, s.desc.AuthChar, len(payload), "token", false)
	if err := e.adapter.WriteCharacteristic(s.desc.AuthChar, payload); err != nil {
		e.finish(AuthWriteFailed, err)
		return
	}
	e.armStep(s)
}

func (e *Engine) enterSendingCommand(s *session) {
	e.setState(s, SendingCommand, "")

	code := token.TimeOTP(codec.Base32Decode(string(s.sharedKey)), s.clock, e.cfg.Digits)
	payload := []byte(token.UnlockCommand(code, s.clock))
	e.traceOp(s, log.DirectionOut, log.OpWrite, s.desc.CommandChar, len(payload), "command", false)
	if err := e.adapter.WriteCharacteristic(s.desc.CommandChar, payload); err != nil {
		e.finish(CommandWriteFailed, err)
		return
	}
	e.armStep(s)
}

// handleCharWrite routes a write completion by characteristic, since the
// token and command acknowledgments share one callback.
func (e *Engine) handleCharWrite(id uuid.UUID, err error) {
	s := e.sess

	switch {
	case id == s.desc.AuthChar && s.state == ComputingAuth:
		e.traceOp(s, log.DirectionIn, log.OpWrite, id, 0, "token", err != nil)
		if err != nil {
			e.finish(AuthWriteFailed, err)
			return
		}
		e.diag("token accepted")
		e.enterSendingCommand(s)

	case id == s.desc.CommandChar && s.state == SendingCommand:
		e.traceOp(s, log.DirectionIn, log.OpWrite, id, 0, "command", err != nil)
		if err != nil {
			e.finish(CommandWriteFailed, err)
			return
		}
		e.diag("unlock command accepted")
		e.enterCompleted(s)

	default:
		e.diag("ignoring write ack for %s in %s", id, s.state)
	}
}

// Teardown

func (e *Engine) enterCompleted(s *session) {
	e.setState(s, Completed, "")
	e.disconnect(s)
	if !s.linkOpen {
		e.finish(None, nil)
		return
	}
	e.armStep(s)
}

func (e *Engine) handleStepTimeout(st State) {
	s := e.sess
	if s.state != st {
		return
	}
	if st == Completed {
		s.linkOpen = false
		e.finish(None, nil)
		return
	}
	e.finish(st.failure(), fmt.Errorf("%w: %s", ErrStepTimeout, st))
}

// finish ends the active session: timers stopped, scan stopped and
// connection closed best-effort, key material wiped, state back to Idle,
// then exactly one outcome delivered.
func (e *Engine) finish(kind ErrorKind, cause error) {
	s := e.sess
	if s == nil {
		return
	}
	e.stopScanTimer()
	e.stopStepTimer()

	if s.state == Scanning {
		e.stopScan(s)
	}
	if s.linkOpen {
		e.disconnect(s)
	}

	reason := kind.String()
	if cause != nil {
		reason = cause.Error()
	}
	e.setState(s, Idle, reason)
	s.wipe()
	e.sess = nil

	o := Outcome{
		SessionID:  s.id,
		Peripheral: s.peripheral,
		Kind:       kind,
		Cause:      cause,
		Duration:   time.Since(s.startedAt),
	}
	e.trace.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  s.id,
		Layer:      log.LayerEngine,
		Category:   log.CategoryOutcome,
		Peripheral: s.peripheral.ID,
		Generation: s.gen,
		Outcome:    &log.OutcomeEvent{Result: kind.String(), Duration: o.Duration},
	})

	if o.Success() {
		e.logger.Info("session succeeded", "session", s.id, "peripheral", s.peripheral.String(), "duration", o.Duration)
		e.diag("door unlocked")
	} else {
		e.logger.Warn("session failed", "session", s.id, "kind", kind.String(), "error", cause)
		e.diag("session failed: %s", reason)
	}
	e.emitOutcome(o)
}

func (e *Engine) stopScan(s *session) {
	e.traceOp(s, log.DirectionOut, log.OpStopScan, uuid.Nil, 0, "", false)
	if err := e.adapter.StopScan(); err != nil {
		e.logger.Debug("stop scan failed", "error", err)
	}
}

func (e *Engine) disconnect(s *session) {
	e.traceOp(s, log.DirectionOut, log.OpDisconnect, uuid.Nil, 0, "", false)
	if err := e.adapter.Disconnect(); err != nil {
		e.logger.Debug("disconnect failed", "error", err)
		s.linkOpen = false
		return
	}
	// Completed waits for the Disconnected event; every other caller is
	// tearing the session down and will not see it.
	if s.state != Completed {
		s.linkOpen = false
	}
}

// Timers

func (e *Engine) armStep(s *session) {
	e.stopStepTimer()
	if e.cfg.StepTimeout < 0 {
		return
	}
	gen, st := s.gen, s.state
	s.deadline = time.Now().Add(e.cfg.StepTimeout)
	e.stepTimer = time.AfterFunc(e.cfg.StepTimeout, func() {
		e.box.post(stepTimeoutEvent{gen: gen, state: st})
	})
}

func (e *Engine) stopScanTimer() {
	if e.scanTimer != nil {
		e.scanTimer.Stop()
		e.scanTimer = nil
	}
}

func (e *Engine) stopStepTimer() {
	if e.stepTimer != nil {
		e.stepTimer.Stop()
		e.stepTimer = nil
	}
}

func (e *Engine) setState(s *session, to State, reason string) {
	from := s.state
	s.state = to
	e.state.Store(uint32(to))
	if from == to && reason == "" {
		return
	}
	e.trace.Log(log.Event{
		Timestamp:   time.Now(),
		SessionID:   s.id,
		Layer:       log.LayerEngine,
		Category:    log.CategoryState,
		Peripheral:  s.peripheral.ID,
		Generation:  s.gen,
		StateChange: &log.StateChangeEvent{OldState: from.String(), NewState: to.String(), Reason: reason},
	})
}

// Tracing

func (e *Engine) traceOp(s *session, dir log.Direction, op log.Op, char uuid.UUID, size int, detail string, failed bool) {
	ev := &log.OperationEvent{Op: op, Size: size, Detail: detail, Failed: failed}
	if char != uuid.Nil {
		ev.Characteristic = char.String()
	}
	e.trace.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  s.id,
		Direction:  dir,
		Layer:      log.LayerGATT,
		Category:   log.CategoryOperation,
		Peripheral: s.peripheral.ID,
		Generation: s.gen,
		Operation:  ev,
	})
}

func (e *Engine) traceError(s *session, layer log.Layer, err error, context string) {
	e.trace.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  s.id,
		Layer:      layer,
		Category:   log.CategoryError,
		Peripheral: s.peripheral.ID,
		Generation: s.gen,
		Error:      &log.ErrorEventData{Layer: layer, Message: err.Error(), Context: context},
	})
}

// keyPrefix returns at most the first 8 characters of a key.
func keyPrefix(key []byte) string {
	n := len(key)
	if n > keyPrefixLen {
		n = keyPrefixLen
	}
	return string(key[:n])
}
