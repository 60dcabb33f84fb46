package store

import (
	"errors"
	"sync"
)

// FactoryClock is the clock value shipped as the default. A store holding
// it counts as not configured.
const FactoryClock int64 = 1640995200

// Store errors.
var (
	ErrInvalidClock = errors.New("store: clock value must not be negative")
	ErrEmptySecret  = errors.New("store: empty secret")
	ErrUnseal       = errors.New("store: cannot unseal secret")
	ErrCorrupt      = errors.New("store: sealed secret is corrupt")
)

// Store is the secret/config store used by the client.
type Store interface {
	// ClockValue returns the configured clock value; ok is false when it
	// is unset or still the factory default.
	ClockValue() (clock int64, ok bool, err error)

	// SetClockValue stores the clock value.
	SetClockValue(clock int64) error

	// PersistedSecret returns a copy of the stored key, nil when absent.
	PersistedSecret() ([]byte, error)

	// SetPersistedSecret stores the key.
	SetPersistedSecret(secret []byte) error

	// Clear removes everything the store holds.
	Clear() error
}

// MemoryStore is a Store that keeps its values in memory.
type MemoryStore struct {
	mu       sync.Mutex
	clock    int64
	hasClock bool
	secret   []byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// ClockValue implements Store.
func (m *MemoryStore) ClockValue() (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasClock || m.clock == FactoryClock {
		return 0, false, nil
	}
	return m.clock, true, nil
}

// SetClockValue implements Store.
func (m *MemoryStore) SetClockValue(clock int64) error {
	if clock < 0 {
		return ErrInvalidClock
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
	m.hasClock = true
	return nil
}

// PersistedSecret implements Store.
func (m *MemoryStore) PersistedSecret() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.secret == nil {
		return nil, nil
	}
	return append([]byte(nil), m.secret...), nil
}

// SetPersistedSecret implements Store.
func (m *MemoryStore) SetPersistedSecret(secret []byte) error {
	if len(secret) == 0 {
		return ErrEmptySecret
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.secret)
	m.secret = append([]byte(nil), secret...)
	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.secret)
	m.secret = nil
	m.clock = 0
	m.hasClock = false
	return nil
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)
