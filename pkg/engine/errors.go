package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/oiascix/ble-app/pkg/gatt"
)

// ErrorKind classifies the terminal result of a session.
type ErrorKind uint8

const (
	// None marks a successful session.
	None ErrorKind = iota
	ScanTimeout
	ConnectFailed
	ServiceMismatch
	KeyReadFailed
	AuthWriteFailed
	CommandWriteFailed
	TransportUnavailable
	NotConfigured

	// Cancelled marks a session ended by Cancel, Close or a newer Start.
	Cancelled
)

var kindNames = [...]string{
	None:                 "SUCCESS",
	ScanTimeout:          "SCAN_TIMEOUT",
	ConnectFailed:        "CONNECT_FAILED",
	ServiceMismatch:      "SERVICE_MISMATCH",
	KeyReadFailed:        "KEY_READ_FAILED",
	AuthWriteFailed:      "AUTH_WRITE_FAILED",
	CommandWriteFailed:   "COMMAND_WRITE_FAILED",
	TransportUnavailable: "TRANSPORT_UNAVAILABLE",
	NotConfigured:        "NOT_CONFIGURED",
	Cancelled:            "CANCELLED",
}

// String returns the kind name.
func (k ErrorKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("UNKNOWN(%d)", k)
}

// Engine errors. Most are session failure causes carried in Outcome.Cause.
var (
	ErrClosed               = errors.New("engine closed")
	ErrNoAdapter            = errors.New("no transport adapter")
	ErrInvalidConfig        = errors.New("invalid engine configuration")
	ErrNoDescriptor         = errors.New("service descriptor not configured")
	ErrNoClockValue         = errors.New("clock value not configured")
	ErrNoSecret             = errors.New("no usable preconfigured secret")
	ErrEmptyKey             = errors.New("key characteristic empty")
	ErrKeyNotBase32         = errors.New("key characteristic is not base32")
	ErrServiceMissing       = errors.New("expected service or characteristic missing")
	ErrScanTimeout          = errors.New("no matching peripheral found")
	ErrStepTimeout          = errors.New("transport did not answer in time")
	ErrUnexpectedDisconnect = errors.New("peripheral disconnected")
	ErrCancelled            = errors.New("session cancelled")
	ErrSuperseded           = errors.New("session replaced by a new start")
)

// SessionError is the error form of a failed Outcome.
type SessionError struct {
	SessionID string
	Kind      ErrorKind
	Cause     error
}

func (e *SessionError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("session %s: %s", e.SessionID, e.Kind)
	}
	return fmt.Sprintf("session %s: %s: %v", e.SessionID, e.Kind, e.Cause)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// Outcome is the single terminal notification of a session.
type Outcome struct {
	SessionID  string
	Peripheral gatt.PeripheralHandle
	Kind       ErrorKind
	Cause      error
	Duration   time.Duration
}

// Success reports whether the lock acknowledged the unlock command.
func (o Outcome) Success() bool {
	return o.Kind == None
}

// Err returns nil on success and a *SessionError otherwise.
func (o Outcome) Err() error {
	if o.Success() {
		return nil
	}
	return &SessionError{SessionID: o.SessionID, Kind: o.Kind, Cause: o.Cause}
}
