package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oiascix/ble-app/pkg/ble"
	"github.com/oiascix/ble-app/pkg/config"
	"github.com/oiascix/ble-app/pkg/connection"
	"github.com/oiascix/ble-app/pkg/discovery"
	"github.com/oiascix/ble-app/pkg/engine"
	"github.com/oiascix/ble-app/pkg/gatt"
	"github.com/oiascix/ble-app/pkg/log"
	"github.com/oiascix/ble-app/pkg/store"
	"github.com/oiascix/ble-app/pkg/transport"
)

// ErrInvalidSecret is returned by SetSecret for keys that are not Base32.
var ErrInvalidSecret = errors.New("secret must be a non-empty Base32 string")

// appOptions configures an App.
type appOptions struct {
	// Retries is the number of extra sessions after a retryable failure.
	Retries int

	// Backoff spaces the retries (default: connection.NewBackoff()).
	Backoff *connection.Backoff

	// Out receives diagnostics and command output.
	Out io.Writer

	Logger *slog.Logger

	// Adapter overrides the transport built from the configuration.
	Adapter gatt.Adapter
}

// App runs client commands against one engine, adapter and store.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	adapter gatt.Adapter
	engine  *engine.Engine
	store   *store.FileStore
	trace   *log.FileLogger
	retries int
	backoff *connection.Backoff

	out      *syncWriter
	outcomes chan engine.Outcome
}

// syncWriter serializes writes from the engine goroutine and the caller.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *syncWriter) set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}

// newApp builds the trace logger, transport, store and engine described
// by cfg.
func newApp(cfg *config.Config, opts appOptions) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	a := &App{
		cfg:      cfg,
		logger:   logger,
		retries:  opts.Retries,
		backoff:  opts.Backoff,
		out:      &syncWriter{w: opts.Out},
		outcomes: make(chan engine.Outcome, 8),
	}

	var trace log.Logger = log.NewSlogAdapter(logger)
	if cfg.TraceFile != "" {
		fl, err := log.NewFileLogger(cfg.TraceFile)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		a.trace = fl
		trace = log.NewMultiLogger(fl, trace)
	}

	a.adapter = opts.Adapter
	if a.adapter == nil {
		adapter, err := buildAdapter(cfg, logger, trace)
		if err != nil {
			a.closeTrace()
			return nil, err
		}
		a.adapter = adapter
	}

	var storeOpts []store.FileOption
	if cfg.Passphrase != "" {
		storeOpts = append(storeOpts, store.WithPassphrase([]byte(cfg.Passphrase)))
	}
	a.store = store.NewFileStore(cfg.StateDir, storeOpts...)

	e, err := engine.New(engine.Config{
		Adapter:     a.adapter,
		ScanTimeout: cfg.ScanTimeout,
		StepTimeout: cfg.StepTimeout,
		Digits:      cfg.Digits,
		Subject:     cfg.Subject,
		TokenTTL:    cfg.TokenTTL,
		Logger:      logger,
		TraceLogger: trace,
	})
	if err != nil {
		a.closeTrace()
		return nil, err
	}
	if err := e.Configure(gatt.DoorLock, cfg.DebugFilter); err != nil {
		e.Close()
		a.closeTrace()
		return nil, err
	}
	e.OnDiagnostic(func(msg string) {
		fmt.Fprintf(a.out, "  %s\n", msg)
	})
	e.OnAdvertisement(func(adv gatt.Advertisement) {
		fmt.Fprintf(a.out, "  seen %s rssi=%d\n", adv.Peripheral, adv.RSSI)
	})
	e.OnOutcome(func(o engine.Outcome) {
		select {
		case a.outcomes <- o:
		default:
			logger.Warn("outcome dropped", "session", o.SessionID, "kind", o.Kind)
		}
	})
	a.engine = e
	return a, nil
}

// buildAdapter returns the BLE adapter or the TCP client for cfg.
func buildAdapter(cfg *config.Config, logger *slog.Logger, trace log.Logger) (gatt.Adapter, error) {
	switch cfg.Transport {
	case config.TransportTCP:
		peers, err := parsePeers(cfg.Peers)
		if err != nil {
			return nil, err
		}
		cc := transport.ClientConfig{
			Peers:       peers,
			Logger:      logger,
			TraceLogger: trace,
		}
		if cfg.Browse {
			cc.Source = discovery.NewMDNSBrowser(discovery.BrowserConfig{})
		}
		return transport.NewClient(cc), nil
	case config.TransportBLE:
		return ble.NewAdapter(ble.Config{Logger: logger}), nil
	default:
		return nil, fmt.Errorf("%w: transport %q", config.ErrInvalid, cfg.Transport)
	}
}

// SetOutput redirects diagnostics and command output.
func (a *App) SetOutput(w io.Writer) {
	a.out.set(w)
}

// Unlock runs sessions until one succeeds, a failure is not worth
// retrying or the retries are used up.
func (a *App) Unlock(ctx context.Context) error {
	mode := engine.DeviceSupplied
	if a.cfg.KeySource == config.KeySourceStored {
		mode = engine.Preconfigured
	}
	if a.backoff != nil {
		a.backoff.Reset()
	}

	err := connection.Retry(ctx, connection.RetryConfig{
		MaxAttempts: a.retries + 1,
		Backoff:     a.backoff,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			a.logger.Warn("unlock failed, retrying", "attempt", attempt, "delay", delay, "error", err)
			fmt.Fprintf(a.out, "Attempt %d failed, retrying in %s\n", attempt, delay.Round(time.Millisecond))
		},
	}, func(ctx context.Context, attempt int) error {
		if err := ctx.Err(); err != nil {
			return connection.Permanent(err)
		}
		id, err := a.engine.StartFromStore(a.store, mode)
		if err != nil {
			return connection.Permanent(err)
		}
		fmt.Fprintf(a.out, "Session %s (%s key)\n", id, strings.ToLower(mode.String()))

		o, err := a.await(ctx, id)
		if err != nil {
			return connection.Permanent(err)
		}
		if o.Success() {
			fmt.Fprintf(a.out, "Unlocked %s in %s\n", o.Peripheral, o.Duration.Round(time.Millisecond))
			return nil
		}
		switch o.Kind {
		case engine.NotConfigured, engine.TransportUnavailable, engine.Cancelled:
			return connection.Permanent(o.Err())
		}
		return o.Err()
	})
	if err != nil {
		fmt.Fprintf(a.out, "Unlock failed: %v\n", err)
	}
	return err
}

// await waits for the outcome of session id. When ctx ends first the
// session is cancelled and ctx's error returned.
func (a *App) await(ctx context.Context, id string) (engine.Outcome, error) {
	for {
		select {
		case o := <-a.outcomes:
			if o.SessionID == id {
				return o, nil
			}
		case <-ctx.Done():
			a.engine.Cancel()
			return a.drain(id), ctx.Err()
		}
	}
}

// drain consumes the outcome of a cancelled session so it is not
// mistaken for a later one.
func (a *App) drain(id string) engine.Outcome {
	timer := time.NewTimer(time.Second)
	defer timer.Stop()
	for {
		select {
		case o := <-a.outcomes:
			if o.SessionID == id {
				return o
			}
		case <-timer.C:
			return engine.Outcome{SessionID: id, Kind: engine.Cancelled}
		}
	}
}

// Scan lists the locks advertising during the scan timeout. With a debug
// filter every peripheral is listed and matches are marked.
func (a *App) Scan(ctx context.Context, w io.Writer) error {
	if err := a.adapter.Ready(); err != nil {
		return err
	}

	var filter *uuid.UUID
	if a.cfg.DebugFilter == "" {
		svc := gatt.DoorLock.Service
		filter = &svc
	}

	found := make(chan gatt.Advertisement, 64)
	failed := make(chan error, 1)
	err := a.adapter.Scan(filter, gatt.ScanCallbacks{
		OnMatch: func(adv gatt.Advertisement) {
			select {
			case found <- adv:
			default:
			}
		},
		OnError: func(err error) {
			select {
			case failed <- err:
			default:
			}
		},
	})
	if err != nil {
		return err
	}
	defer a.adapter.StopScan()

	fmt.Fprintf(w, "Scanning for %s...\n", a.cfg.ScanTimeout)
	timer := time.NewTimer(a.cfg.ScanTimeout)
	defer timer.Stop()

	seen := make(map[string]bool)
	for {
		select {
		case adv := <-found:
			if seen[adv.Peripheral.ID] {
				continue
			}
			seen[adv.Peripheral.ID] = true
			mark := ""
			if a.cfg.DebugFilter != "" && adv.Peripheral.NameContains(a.cfg.DebugFilter) {
				mark = " *"
			}
			fmt.Fprintf(w, "  %s rssi=%d%s\n", adv.Peripheral, adv.RSSI, mark)
		case err := <-failed:
			return err
		case <-timer.C:
			fmt.Fprintf(w, "%d peripheral(s) found\n", len(seen))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Status prints the configuration and what the store holds.
func (a *App) Status(w io.Writer) error {
	fmt.Fprintf(w, "Transport:   %s\n", a.cfg.Transport)
	if a.cfg.Transport == config.TransportTCP {
		fmt.Fprintf(w, "Peers:       %d (mdns %v)\n", len(a.cfg.Peers), a.cfg.Browse)
	}
	fmt.Fprintf(w, "Key source:  %s\n", a.cfg.KeySource)
	fmt.Fprintf(w, "Digits:      %d\n", a.cfg.Digits)
	fmt.Fprintf(w, "State dir:   %s\n", a.store.Dir())

	clock, ok, err := a.store.ClockValue()
	switch {
	case err != nil:
		return fmt.Errorf("read clock value: %w", err)
	case ok:
		fmt.Fprintf(w, "Clock value: %d\n", clock)
	default:
		fmt.Fprintln(w, "Clock value: not configured")
	}

	secret, err := a.store.PersistedSecret()
	switch {
	case err != nil:
		fmt.Fprintf(w, "Secret:      unreadable (%v)\n", err)
	case len(secret) > 0:
		fmt.Fprintln(w, "Secret:      stored")
		clear(secret)
	default:
		fmt.Fprintln(w, "Secret:      none")
	}

	fmt.Fprintf(w, "Engine:      %s\n", a.engine.State())
	return nil
}

// SetClock stores the clock value sent in unlock commands.
func (a *App) SetClock(clock int64) error {
	if clock == store.FactoryClock {
		a.logger.Warn("clock value equals the factory default and counts as not configured")
	}
	return a.store.SetClockValue(clock)
}

// SetSecret validates and stores the Base32 key for stored-key sessions.
func (a *App) SetSecret(secret string) error {
	secret = strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "="))
	if !validSecret(secret) {
		return ErrInvalidSecret
	}
	return a.store.SetPersistedSecret([]byte(secret))
}

// Reset clears the store.
func (a *App) Reset() error {
	return a.store.Clear()
}

// Close stops the engine and closes the trace file.
func (a *App) Close() {
	a.engine.Close()
	a.closeTrace()
}

func (a *App) closeTrace() {
	if a.trace != nil {
		a.trace.Close()
	}
}

// validSecret reports whether s is a non-empty string of Base32 symbols
// encoding at least one byte.
func validSecret(s string) bool {
	if len(s) < 2 {
		return false
	}
	for _, c := range s {
		if !(c >= 'A' && c <= 'Z' || c >= '2' && c <= '7') {
			return false
		}
	}
	return true
}

// parseClock parses a clock value argument.
func parseClock(s string) (int64, error) {
	clock, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	if clock < 0 {
		return 0, store.ErrInvalidClock
	}
	return clock, nil
}
