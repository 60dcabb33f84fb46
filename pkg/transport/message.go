package transport

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/oiascix/ble-app/pkg/gatt"
)

// MsgType identifies a transport message.
type MsgType uint8

const (
	MsgDiscover    MsgType = 1
	MsgServices    MsgType = 2
	MsgRead        MsgType = 3
	MsgReadResult  MsgType = 4
	MsgWrite       MsgType = 5
	MsgWriteResult MsgType = 6
	MsgError       MsgType = 7
)

// String returns the message type name.
func (t MsgType) String() string {
	switch t {
	case MsgDiscover:
		return "DISCOVER"
	case MsgServices:
		return "SERVICES"
	case MsgRead:
		return "READ"
	case MsgReadResult:
		return "READ_RESULT"
	case MsgWrite:
		return "WRITE"
	case MsgWriteResult:
		return "WRITE_RESULT"
	case MsgError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(t))
	}
}

// Status is the failure code carried by an Error message.
type Status uint8

const (
	StatusFailure               Status = 1
	StatusUnknownCharacteristic Status = 2
	StatusNotPermitted          Status = 3
	StatusBadRequest            Status = 4
)

// Message errors.
var (
	ErrInvalidMessage = errors.New("invalid transport message")
	ErrRemote         = errors.New("remote error")
)

// Message is one request or response. Requests carry an ID that the
// matching response echoes.
type Message struct {
	Type     MsgType        `cbor:"1,keyasint"`
	ID       uint32         `cbor:"2,keyasint"`
	Char     uuid.UUID      `cbor:"3,keyasint"`
	Value    []byte         `cbor:"4,keyasint,omitempty"`
	Services []ServiceEntry `cbor:"5,keyasint,omitempty"`
	Status   Status         `cbor:"6,keyasint,omitempty"`
	Text     string         `cbor:"7,keyasint,omitempty"`
}

// ServiceEntry lists the characteristics of one service.
type ServiceEntry struct {
	Service         uuid.UUID   `cbor:"1,keyasint"`
	Characteristics []uuid.UUID `cbor:"2,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// EncodeMessage encodes m to CBOR.
func EncodeMessage(m *Message) ([]byte, error) {
	return encMode.Marshal(m)
}

// DecodeMessage decodes and validates a message.
func DecodeMessage(data []byte) (*Message, error) {
	var m Message
	if err := decMode.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if m.Type < MsgDiscover || m.Type > MsgError {
		return nil, fmt.Errorf("%w: type %d", ErrInvalidMessage, m.Type)
	}
	return &m, nil
}

// PeekType returns the message type without decoding the rest.
func PeekType(data []byte) (MsgType, error) {
	var head struct {
		Type MsgType `cbor:"1,keyasint"`
	}
	if err := decMode.Unmarshal(data, &head); err != nil {
		return 0, err
	}
	return head.Type, nil
}

// ServicesToEntries converts a service map to its wire form.
func ServicesToEntries(m gatt.ServiceMap) []ServiceEntry {
	entries := make([]ServiceEntry, 0, len(m))
	for svc, chars := range m {
		entries = append(entries, ServiceEntry{Service: svc, Characteristics: chars})
	}
	return entries
}

// EntriesToServices converts the wire form back to a service map.
func EntriesToServices(entries []ServiceEntry) gatt.ServiceMap {
	m := make(gatt.ServiceMap, len(entries))
	for _, e := range entries {
		m[e.Service] = append(m[e.Service], e.Characteristics...)
	}
	return m
}

// StatusFor maps a GATT table error to a wire status.
func StatusFor(err error) Status {
	switch {
	case errors.Is(err, gatt.ErrUnknownCharacteristic):
		return StatusUnknownCharacteristic
	case errors.Is(err, gatt.ErrNotPermitted):
		return StatusNotPermitted
	default:
		return StatusFailure
	}
}

// RemoteError is the client side form of an Error message.
type RemoteError struct {
	Status Status
	Text   string
}

func (e *RemoteError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("remote error (status %d)", e.Status)
	}
	return fmt.Sprintf("remote error (status %d): %s", e.Status, e.Text)
}

// Is matches ErrRemote and the GATT error the status stands for.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemote:
		return true
	case gatt.ErrUnknownCharacteristic:
		return e.Status == StatusUnknownCharacteristic
	case gatt.ErrNotPermitted:
		return e.Status == StatusNotPermitted
	}
	return false
}
