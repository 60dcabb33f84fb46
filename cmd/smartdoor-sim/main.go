// Command smartdoor-sim runs a simulated smart door lock.
//
// The lock serves the door-lock GATT service over the TCP transport, so
// smartdoor can unlock it with -transport tcp. It can advertise itself
// with mDNS and serves Prometheus metrics and a JSON status page.
//
// Usage:
//
//	smartdoor-sim [flags]
//
// Examples:
//
//	# Lock with a fixed key that accepts any clock value
//	smartdoor-sim -key JBSWY3DPEHPK3PXP
//
//	# Simplified lock expecting clock 1700000000, advertised with mDNS
//	smartdoor-sim -digits 6 -clock 1700000000 -mdns
//
//	# Metrics and status
//	curl localhost:9420/metrics
//	curl localhost:9420/status
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/oiascix/ble-app/pkg/codec"
	"github.com/oiascix/ble-app/pkg/config"
	"github.com/oiascix/ble-app/pkg/discovery"
	"github.com/oiascix/ble-app/pkg/gatt"
	"github.com/oiascix/ble-app/pkg/log"
	"github.com/oiascix/ble-app/pkg/simulator"
	"github.com/oiascix/ble-app/pkg/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// keyEnv names the environment variable holding the lock key.
const keyEnv = config.EnvPrefix + "LOCK_KEY"

// simOptions are the simulator settings outside the shared configuration.
type simOptions struct {
	Key        string
	ClockValue int64
	Lenient    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("smartdoor-sim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	key := fs.String("key", "", "Base32 key the lock hands out (default: $"+keyEnv+" or random)")
	clock := fs.Int64("clock", 0, "Clock value the lock expects in commands (0 accepts any)")
	lenient := fs.Bool("lenient", false, "Acknowledge rejected writes, as the hardware does")

	cfg, err := config.Load(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "smartdoor-sim: %v\n", err)
		return 2
	}

	opts := simOptions{Key: *key, ClockValue: *clock, Lenient: *lenient}
	if opts.Key == "" {
		lookup, err := config.EnvLookup(".env")
		if err != nil {
			fmt.Fprintf(stderr, "smartdoor-sim: %v\n", err)
			return 2
		}
		opts.Key, _ = lookup(keyEnv)
	}

	logger := cfg.NewLogger(stderr)
	sim, err := newSim(cfg, opts, logger)
	if err != nil {
		fmt.Fprintf(stderr, "smartdoor-sim: %v\n", err)
		return 1
	}
	if err := sim.start(ctx); err != nil {
		sim.stop()
		fmt.Fprintf(stderr, "smartdoor-sim: %v\n", err)
		return 1
	}

	<-ctx.Done()
	logger.Info("shutting down")
	sim.stop()
	return 0
}

// sim is a running lock with its transport server, advertiser and admin
// endpoint.
type sim struct {
	cfg    *config.Config
	logger *slog.Logger
	trace  *log.FileLogger

	lock  *simulator.Lock
	srv   *transport.Server
	adv   *discovery.MDNSAdvertiser
	admin *http.Server
	done  chan struct{}

	adminAddr net.Addr
}

// newSim builds the lock and its server. An empty key is replaced by a
// random 10-byte key.
func newSim(cfg *config.Config, opts simOptions, logger *slog.Logger) (*sim, error) {
	if opts.Key == "" {
		buf := make([]byte, 10)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		opts.Key = codec.Base32Encode(buf)
		logger.Info("generated lock key", "key", opts.Key)
	}

	s := &sim{cfg: cfg, logger: logger}

	var trace log.Logger
	if cfg.TraceFile != "" {
		fl, err := log.NewFileLogger(cfg.TraceFile)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		s.trace = fl
		trace = fl
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	lock, err := simulator.New(simulator.Config{
		Name:        cfg.LockName,
		Key:         opts.Key,
		ClockValue:  opts.ClockValue,
		Digits:      cfg.Digits,
		Lenient:     opts.Lenient,
		Registry:    reg,
		Logger:      logger,
		TraceLogger: trace,
		OnEvent: func(e simulator.Event) {
			attrs := []any{"event", e.Type.String(), "conn", e.ConnID, "remote", e.Remote}
			if e.Reason != "" {
				attrs = append(attrs, "reason", e.Reason)
			}
			if e.Type == simulator.EventUnlocked {
				attrs = append(attrs, "clock", e.Clock)
			}
			logger.Info("lock event", attrs...)
		},
	})
	if err != nil {
		s.closeTrace()
		return nil, err
	}
	s.lock = lock

	srv, err := transport.NewServer(transport.ServerConfig{
		Address:     cfg.Listen,
		Table:       lock,
		Logger:      logger,
		TraceLogger: trace,
	})
	if err != nil {
		s.closeTrace()
		return nil, err
	}
	s.srv = srv
	return s, nil
}

// start opens the listener, then the admin endpoint and the mDNS
// advertisement when configured.
func (s *sim) start(ctx context.Context) error {
	if err := s.srv.Start(ctx); err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	addr := s.srv.Addr().(*net.TCPAddr)
	s.logger.Info("lock listening", "name", s.lock.Name(), "addr", addr.String())

	if s.cfg.MetricsAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.cfg.MetricsAddr, err)
		}
		s.admin = &http.Server{
			Handler:           simulator.NewAdminHandler(s.lock),
			ReadHeaderTimeout: 5 * time.Second,
		}
		s.adminAddr = ln.Addr()
		s.done = make(chan struct{})
		go func() {
			defer close(s.done)
			if err := s.admin.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("admin server failed", "error", err)
			}
		}()
		s.logger.Info("admin endpoint listening", "addr", ln.Addr().String())
	}

	if s.cfg.Browse {
		s.adv = discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
		err := s.adv.Advertise(&discovery.LockInfo{
			Name:     s.lock.Name(),
			Port:     uint16(addr.Port),
			Services: []uuid.UUID{gatt.DoorLock.Service},
		})
		if err != nil {
			return err
		}
		s.logger.Info("advertising", "service", discovery.ServiceType)
	}
	return nil
}

func (s *sim) stop() {
	if s.adv != nil {
		s.adv.Stop()
	}
	if s.admin != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		s.admin.Shutdown(ctx)
		cancel()
		<-s.done
	}
	s.srv.Stop()
	s.closeTrace()
}

func (s *sim) closeTrace() {
	if s.trace != nil {
		s.trace.Close()
	}
}
