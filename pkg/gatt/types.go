package gatt

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// PeripheralHandle identifies a discovered peripheral.
type PeripheralHandle struct {
	// ID is the transport address (MAC, platform UUID or host:port).
	ID string

	// Name is the advertised local name, possibly empty.
	Name string
}

// String returns "name (id)" or just the ID when unnamed.
func (p PeripheralHandle) String() string {
	if p.Name == "" {
		return p.ID
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.ID)
}

// NameContains reports whether the advertised name contains sub,
// ignoring case.
func (p PeripheralHandle) NameContains(sub string) bool {
	return strings.Contains(strings.ToLower(p.Name), strings.ToLower(sub))
}

// Advertisement is one scan result.
type Advertisement struct {
	Peripheral PeripheralHandle
	RSSI       int16

	// Services lists advertised service UUIDs, when the transport knows them.
	Services []uuid.UUID
}

// ConnState is the link state reported by OnStateChange.
type ConnState uint8

const (
	Disconnected ConnState = iota
	Connected
)

// String returns the state name.
func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connected:
		return "CONNECTED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// ServiceMap maps each discovered service to its characteristics.
type ServiceMap map[uuid.UUID][]uuid.UUID

// Has reports whether service exists and exposes every listed characteristic.
func (m ServiceMap) Has(service uuid.UUID, chars ...uuid.UUID) bool {
	present, ok := m[service]
	if !ok {
		return false
	}
	for _, want := range chars {
		if !slices.Contains(present, want) {
			return false
		}
	}
	return true
}

// ScanCallbacks receive scan results.
type ScanCallbacks struct {
	OnMatch func(Advertisement)
	OnError func(error)
}

// ConnCallbacks receive the results of operations on a connection.
type ConnCallbacks struct {
	OnStateChange   func(ConnState)
	OnServicesReady func(ServiceMap, error)
	OnCharRead      func(id uuid.UUID, value []byte, err error)
	OnCharWrite     func(id uuid.UUID, err error)
}
