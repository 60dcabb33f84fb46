package gatt

import (
	"errors"

	"github.com/google/uuid"
)

// Adapter errors.
var (
	ErrNotReady              = errors.New("gatt: adapter not ready")
	ErrNotConnected          = errors.New("gatt: not connected")
	ErrAlreadyScanning       = errors.New("gatt: scan already in progress")
	ErrUnknownCharacteristic = errors.New("gatt: unknown characteristic")
	ErrNotPermitted          = errors.New("gatt: operation not permitted")
)

// Adapter is a transport able to reach GATT peripherals.
type Adapter interface {
	// Ready reports whether the transport can be used at all.
	Ready() error

	// Scan starts reporting advertisements. A nil filter reports every
	// peripheral; otherwise only those advertising the service.
	Scan(filter *uuid.UUID, cb ScanCallbacks) error

	// StopScan ends a running scan. Stopping an idle adapter is not an error.
	StopScan() error

	// Connect opens a connection, replacing any existing one.
	Connect(p PeripheralHandle, cb ConnCallbacks) error

	// Disconnect closes the connection. OnStateChange(Disconnected) follows
	// if a connection was open.
	Disconnect() error

	// DiscoverServices enumerates services; the result arrives via
	// OnServicesReady.
	DiscoverServices() error

	ReadCharacteristic(id uuid.UUID) error
	WriteCharacteristic(id uuid.UUID, data []byte) error
}
