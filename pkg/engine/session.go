package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/oiascix/ble-app/pkg/gatt"
)

// session is the single in-flight unlock attempt. Only the engine
// goroutine touches it.
type session struct {
	id    string
	gen   uint64
	state State

	desc        gatt.ServiceDescriptor
	debugFilter string

	clock  int64
	source KeySource

	peripheral gatt.PeripheralHandle

	// sharedKey is the Base32 key string as bytes. The token is keyed by
	// these bytes, the one-time code by their Base32 decoding.
	sharedKey []byte

	// linkOpen is set once Connect was issued and cleared when the
	// transport reports Disconnected or the engine disconnects.
	linkOpen bool

	startedAt     time.Time
	scanStartedAt time.Time
	deadline      time.Time
}

// wipe zeroes all key material held by the session.
func (s *session) wipe() {
	clear(s.sharedKey)
	clear(s.source.Secret)
	s.sharedKey = nil
	s.source.Secret = nil
}

// requiredChars lists the characteristics the session will use.
func (s *session) requiredChars() []uuid.UUID {
	if s.source.Mode == Preconfigured {
		return []uuid.UUID{s.desc.AuthChar, s.desc.CommandChar}
	}
	return s.desc.Characteristics()
}
