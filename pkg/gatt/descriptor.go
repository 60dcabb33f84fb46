package gatt

import (
	"errors"

	"github.com/google/uuid"
)

// ServiceDescriptor names the remote interface a lock exposes.
type ServiceDescriptor struct {
	Service     uuid.UUID
	KeyChar     uuid.UUID // read: Base32 key string
	AuthChar    uuid.UUID // write: compact signed token
	CommandChar uuid.UUID // write: unlock command
}

// DoorLock is the smartdoor lock service.
var DoorLock = ServiceDescriptor{
	Service:     uuid.MustParse("12345678-1234-5678-1234-56789abcdef0"),
	KeyChar:     uuid.MustParse("12345678-1234-5678-1234-56789abcdef1"),
	AuthChar:    uuid.MustParse("12345678-1234-5678-1234-56789abcdef2"),
	CommandChar: uuid.MustParse("12345678-1234-5678-1234-56789abcdef3"),
}

// ErrInvalidDescriptor is returned for incomplete or ambiguous descriptors.
var ErrInvalidDescriptor = errors.New("gatt: invalid service descriptor")

// Validate checks that every identifier is set and the write targets differ.
func (d ServiceDescriptor) Validate() error {
	if d.Service == uuid.Nil || d.KeyChar == uuid.Nil || d.AuthChar == uuid.Nil || d.CommandChar == uuid.Nil {
		return ErrInvalidDescriptor
	}
	if d.AuthChar == d.CommandChar {
		return ErrInvalidDescriptor
	}
	return nil
}

// Characteristics returns the key, auth and command identifiers.
func (d ServiceDescriptor) Characteristics() []uuid.UUID {
	return []uuid.UUID{d.KeyChar, d.AuthChar, d.CommandChar}
}
