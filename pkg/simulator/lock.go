package simulator

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oiascix/ble-app/pkg/codec"
	"github.com/oiascix/ble-app/pkg/gatt"
	"github.com/oiascix/ble-app/pkg/log"
	"github.com/oiascix/ble-app/pkg/token"
	"github.com/oiascix/ble-app/pkg/transport"
	"github.com/prometheus/client_golang/prometheus"
)

// Lock errors.
var (
	ErrInvalidKey    = errors.New("simulator: key must be a non-empty Base32 string")
	ErrInvalidDigits = errors.New("simulator: digits must be 6 to 8")
	ErrNotAuthorized = errors.New("simulator: no accepted token on this connection")
	ErrClockMismatch = errors.New("simulator: command clock does not match the lock")
)

// Rejection reasons, used as the metrics label.
const (
	ReasonUnauthorized = "unauthorized"
	ReasonMalformed    = "malformed"
	ReasonBadCode      = "bad_code"
	ReasonWrongClock   = "wrong_clock"
)

// Config configures a Lock.
type Config struct {
	// Name is the advertised lock name.
	Name string

	// Key is the Base32 key string the key characteristic returns.
	Key string

	// ClockValue is the clock the lock expects in commands. Zero accepts
	// any clock value.
	ClockValue int64

	// Digits is the one-time code width (default 8).
	Digits int

	// Descriptor names the service and characteristics (default
	// gatt.DoorLock).
	Descriptor gatt.ServiceDescriptor

	// Lenient accepts rejected writes without reporting an error to the
	// client, as the hardware does. The door simply stays shut.
	Lenient bool

	// Now is the wall clock used for token expiry (default time.Now).
	Now func() time.Time

	// Registry receives the lock metrics (default: a new registry).
	Registry *prometheus.Registry

	// Logger receives operational logs. Default: slog.Default().
	Logger *slog.Logger

	// TraceLogger receives GATT operation events (optional).
	TraceLogger log.Logger

	// OnEvent is called for connection, token and command events.
	OnEvent func(Event)
}

// EventType identifies a lock event.
type EventType uint8

const (
	EventConnected EventType = iota
	EventDisconnected
	EventTokenAccepted
	EventTokenRejected
	EventUnlocked
	EventCommandRejected
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventConnected:
		return "CONNECTED"
	case EventDisconnected:
		return "DISCONNECTED"
	case EventTokenAccepted:
		return "TOKEN_ACCEPTED"
	case EventTokenRejected:
		return "TOKEN_REJECTED"
	case EventUnlocked:
		return "UNLOCKED"
	case EventCommandRejected:
		return "COMMAND_REJECTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

// Event is one lock event.
type Event struct {
	Type   EventType
	ConnID string
	Remote string
	Time   time.Time

	// Clock is the command clock value for unlock events.
	Clock int64

	// Reason explains a rejection.
	Reason string
}

// Status is a snapshot of the lock.
type Status struct {
	Name        string     `json:"name"`
	Service     string     `json:"service"`
	ClockValue  int64      `json:"clock_value,omitempty"`
	Digits      int        `json:"digits"`
	Connections int        `json:"connections"`
	Unlocks     int        `json:"unlocks"`
	LastUnlock  *time.Time `json:"last_unlock,omitempty"`
}

// Lock is a simulated door lock. It implements transport.GATTTable.
type Lock struct {
	config    Config
	logger    *slog.Logger
	trace     log.Logger
	tokenKey  []byte
	otpSecret []byte
	metrics   *metrics

	mu          sync.Mutex
	connections int
	unlocks     int
	lastUnlock  time.Time
}

var _ transport.GATTTable = (*Lock)(nil)

// New creates a lock.
func New(config Config) (*Lock, error) {
	config.Key = strings.TrimSpace(config.Key)
	secret := codec.Base32Decode(config.Key)
	if len(secret) == 0 {
		return nil, ErrInvalidKey
	}
	if config.Digits == 0 {
		config.Digits = token.DefaultDigits
	}
	if config.Digits < token.SimplifiedDigits || config.Digits > token.DefaultDigits {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDigits, config.Digits)
	}
	if config.Descriptor == (gatt.ServiceDescriptor{}) {
		config.Descriptor = gatt.DoorLock
	}
	if err := config.Descriptor.Validate(); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = "SmartDoor"
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m, err := newMetrics(config.Registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	return &Lock{
		config:    config,
		logger:    logger.With("component", "lock", "name", config.Name),
		trace:     log.OrNoop(config.TraceLogger),
		tokenKey:  []byte(config.Key),
		otpSecret: secret,
		metrics:   m,
	}, nil
}

// Name returns the lock name.
func (l *Lock) Name() string {
	return l.config.Name
}

// Registry returns the registry holding the lock metrics.
func (l *Lock) Registry() *prometheus.Registry {
	return l.config.Registry
}

// Services implements transport.GATTTable.
func (l *Lock) Services() gatt.ServiceMap {
	d := l.config.Descriptor
	return gatt.ServiceMap{d.Service: d.Characteristics()}
}

// Open implements transport.GATTTable.
func (l *Lock) Open(conn transport.ConnInfo) transport.GATTSession {
	l.mu.Lock()
	l.connections++
	l.mu.Unlock()
	l.metrics.connections.Inc()

	l.logger.Info("client connected", "conn", conn.ID, "remote", conn.RemoteAddr)
	l.emit(Event{Type: EventConnected, ConnID: conn.ID, Remote: conn.RemoteAddr})
	return &session{lock: l, conn: conn}
}

// Status returns a snapshot of the lock.
func (l *Lock) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Status{
		Name:        l.config.Name,
		Service:     l.config.Descriptor.Service.String(),
		ClockValue:  l.config.ClockValue,
		Digits:      l.config.Digits,
		Connections: l.connections,
		Unlocks:     l.unlocks,
	}
	if !l.lastUnlock.IsZero() {
		t := l.lastUnlock
		s.LastUnlock = &t
	}
	return s
}

func (l *Lock) emit(e Event) {
	if e.Time.IsZero() {
		e.Time = l.config.Now()
	}
	if l.config.OnEvent != nil {
		l.config.OnEvent(e)
	}
}

func (l *Lock) traceOp(conn transport.ConnInfo, dir log.Direction, op log.Op, char uuid.UUID, size int, failed bool) {
	l.trace.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  conn.ID,
		Direction:  dir,
		Layer:      log.LayerGATT,
		Category:   log.CategoryOperation,
		LocalRole:  log.RoleLock,
		Peripheral: conn.RemoteAddr,
		Operation:  &log.OperationEvent{Op: op, Characteristic: char.String(), Size: size, Failed: failed},
	})
}

// session is the per-connection state. The server serializes its calls.
type session struct {
	lock       *Lock
	conn       transport.ConnInfo
	authorized bool
}

func (s *session) Read(char uuid.UUID) ([]byte, error) {
	d := s.lock.config.Descriptor
	switch char {
	case d.KeyChar:
		s.lock.traceOp(s.conn, log.DirectionIn, log.OpRead, char, len(s.lock.config.Key), false)
		return []byte(s.lock.config.Key), nil
	case d.AuthChar, d.CommandChar:
		s.lock.traceOp(s.conn, log.DirectionIn, log.OpRead, char, 0, true)
		return nil, fmt.Errorf("%w: %s is write-only", gatt.ErrNotPermitted, char)
	default:
		return nil, fmt.Errorf("%w: %s", gatt.ErrUnknownCharacteristic, char)
	}
}

func (s *session) Write(char uuid.UUID, value []byte) error {
	d := s.lock.config.Descriptor
	var err error
	switch char {
	case d.AuthChar:
		err = s.authorize(string(value))
	case d.CommandChar:
		err = s.command(string(value))
	case d.KeyChar:
		s.lock.traceOp(s.conn, log.DirectionIn, log.OpWrite, char, len(value), true)
		return fmt.Errorf("%w: %s is read-only", gatt.ErrNotPermitted, char)
	default:
		return fmt.Errorf("%w: %s", gatt.ErrUnknownCharacteristic, char)
	}

	s.lock.traceOp(s.conn, log.DirectionIn, log.OpWrite, char, len(value), err != nil)
	if err != nil && !s.lock.config.Lenient {
		return fmt.Errorf("%w: %w", gatt.ErrNotPermitted, err)
	}
	return nil
}

func (s *session) Close() {
	l := s.lock
	l.mu.Lock()
	l.connections--
	l.mu.Unlock()
	l.metrics.connections.Dec()

	l.logger.Info("client disconnected", "conn", s.conn.ID)
	l.emit(Event{Type: EventDisconnected, ConnID: s.conn.ID, Remote: s.conn.RemoteAddr})
}

func (s *session) authorize(compact string) error {
	l := s.lock
	claims, err := token.VerifyToken(strings.TrimSpace(compact), l.tokenKey, l.config.Now())
	if err != nil {
		l.metrics.tokensRejected.Inc()
		l.logger.Warn("token rejected", "conn", s.conn.ID, "error", err)
		l.emit(Event{Type: EventTokenRejected, ConnID: s.conn.ID, Remote: s.conn.RemoteAddr, Reason: err.Error()})
		return err
	}

	s.authorized = true
	l.metrics.tokensAccepted.Inc()
	l.logger.Debug("token accepted", "conn", s.conn.ID, "subject", claims.Subject)
	l.emit(Event{Type: EventTokenAccepted, ConnID: s.conn.ID, Remote: s.conn.RemoteAddr})
	return nil
}

func (s *session) command(cmd string) error {
	l := s.lock
	reject := func(reason string, err error) error {
		l.metrics.commandsRejected.WithLabelValues(reason).Inc()
		l.logger.Warn("command rejected", "conn", s.conn.ID, "reason", reason)
		l.emit(Event{Type: EventCommandRejected, ConnID: s.conn.ID, Remote: s.conn.RemoteAddr, Reason: reason})
		return err
	}

	if !s.authorized {
		return reject(ReasonUnauthorized, ErrNotAuthorized)
	}

	clock, err := token.VerifyCommand(strings.TrimSpace(cmd), l.otpSecret, l.config.Digits)
	switch {
	case errors.Is(err, token.ErrMalformedCommand):
		return reject(ReasonMalformed, err)
	case err != nil:
		return reject(ReasonBadCode, err)
	}
	if l.config.ClockValue != 0 && clock != l.config.ClockValue {
		return reject(ReasonWrongClock, fmt.Errorf("%w: got %d", ErrClockMismatch, clock))
	}

	// One token opens the door once.
	s.authorized = false

	now := l.config.Now()
	l.mu.Lock()
	l.unlocks++
	l.lastUnlock = now
	l.mu.Unlock()
	l.metrics.unlocks.Inc()

	l.logger.Info("door opened", "conn", s.conn.ID, "clock", clock)
	l.emit(Event{Type: EventUnlocked, ConnID: s.conn.ID, Remote: s.conn.RemoteAddr, Time: now, Clock: clock})
	return nil
}
