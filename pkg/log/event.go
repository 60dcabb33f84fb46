package log

import "time"

// Event is one entry of a session trace. CBOR encoding uses integer keys.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the unlock session (ULID) or, for a lock
	// simulator, the connection.
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates whether the event leaves or enters the local side.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole is the side that recorded the event.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// Peripheral is the remote address (MAC, platform id or host:port).
	Peripheral string `cbor:"7,keyasint,omitempty"`

	// Generation is the engine session generation the event belongs to.
	Generation uint64 `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	Operation   *OperationEvent   `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Outcome     *OutcomeEvent     `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction indicates the direction of flow.
type Direction uint8

const (
	// DirectionIn is a result or notification arriving from the transport.
	DirectionIn Direction = 0
	// DirectionOut is an operation issued to the transport.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the framing layer of the TCP transport.
	LayerTransport Layer = 0
	// LayerGATT is the scan/connect/read/write layer.
	LayerGATT Layer = 1
	// LayerEngine is the protocol state machine.
	LayerEngine Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerGATT:
		return "GATT"
	case LayerEngine:
		return "ENGINE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryOperation is a GATT operation or its completion.
	CategoryOperation Category = 0
	// CategoryFrame is a raw transport frame.
	CategoryFrame Category = 1
	// CategoryState is an engine state transition.
	CategoryState Category = 2
	// CategoryError is an error at any layer.
	CategoryError Category = 3
	// CategoryOutcome is the terminal result of a session.
	CategoryOutcome Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryOperation:
		return "OPERATION"
	case CategoryFrame:
		return "FRAME"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryOutcome:
		return "OUTCOME"
	default:
		return "UNKNOWN"
	}
}

// Role indicates which side recorded the event.
type Role uint8

const (
	// RoleClient is the unlocking client.
	RoleClient Role = 0
	// RoleLock is a lock or lock simulator.
	RoleLock Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleClient:
		return "CLIENT"
	case RoleLock:
		return "LOCK"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures a transport frame. Frame contents are never stored;
// they may carry key material.
type FrameEvent struct {
	// Size is the frame size in bytes (including length prefix).
	Size int `cbor:"1,keyasint"`

	// MsgType is the decoded message type, when known.
	MsgType string `cbor:"2,keyasint,omitempty"`
}

// Op names a GATT operation.
type Op uint8

const (
	OpScan Op = iota
	OpStopScan
	OpAdvertisement
	OpConnect
	OpDisconnect
	OpConnState
	OpDiscover
	OpServices
	OpRead
	OpWrite
)

var opNames = [...]string{
	OpScan:          "SCAN",
	OpStopScan:      "STOP_SCAN",
	OpAdvertisement: "ADVERTISEMENT",
	OpConnect:       "CONNECT",
	OpDisconnect:    "DISCONNECT",
	OpConnState:     "CONN_STATE",
	OpDiscover:      "DISCOVER",
	OpServices:      "SERVICES",
	OpRead:          "READ",
	OpWrite:         "WRITE",
}

// String returns the operation name.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "UNKNOWN"
}

// OperationEvent captures a GATT operation (OUT) or its result (IN).
type OperationEvent struct {
	Op Op `cbor:"1,keyasint"`

	// Characteristic is the UUID for read and write operations.
	Characteristic string `cbor:"2,keyasint,omitempty"`

	// Size is the value length in bytes. Values themselves are not traced.
	Size int `cbor:"3,keyasint,omitempty"`

	// Detail is an operation specific note (filter, conn state, name).
	Detail string `cbor:"4,keyasint,omitempty"`

	// Failed marks a result that reported an error.
	Failed bool `cbor:"5,keyasint,omitempty"`
}

// StateChangeEvent captures an engine state transition.
type StateChangeEvent struct {
	OldState string `cbor:"1,keyasint,omitempty"`
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// OutcomeEvent captures the terminal result of a session.
type OutcomeEvent struct {
	// Result is "SUCCESS" or an error kind name.
	Result string `cbor:"1,keyasint"`

	// Duration from session start to outcome.
	Duration time.Duration `cbor:"2,keyasint"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
