package discovery

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Service type constants for mDNS.
const (
	// ServiceType is the DNS-SD service type of a lock.
	ServiceType = "_smartdoor._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default lock port.
	DefaultPort = 7420

	// ProtocolVersion is advertised in the ver TXT record.
	ProtocolVersion = "1"
)

// TXT record keys.
const (
	TXTKeyName     = "name"
	TXTKeyServices = "svc"
	TXTKeyVersion  = "ver"
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63

	// DefaultTTL is the record TTL used when none is configured.
	DefaultTTL = 120 * time.Second
)

// Errors.
var (
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrInvalidTXT          = errors.New("invalid TXT record")
	ErrNoAddress           = errors.New("service entry has no address")
)

// Peer is a lock reachable over the network.
type Peer struct {
	// Name is the advertised peripheral name.
	Name string

	// Addr is the dialable host:port.
	Addr string

	// Services are the advertised GATT services.
	Services []uuid.UUID
}

// LockInfo is what a lock advertises.
type LockInfo struct {
	Name     string
	Port     uint16
	Services []uuid.UUID
}
