package engine

// KeyMode selects where a session gets its shared key.
type KeyMode uint8

const (
	// DeviceSupplied reads the key from the lock's key characteristic.
	DeviceSupplied KeyMode = iota

	// Preconfigured uses a key loaded from the secret store; the
	// ReadingKey state is skipped.
	Preconfigured
)

// String returns the mode name.
func (m KeyMode) String() string {
	switch m {
	case DeviceSupplied:
		return "DEVICE_SUPPLIED"
	case Preconfigured:
		return "PRECONFIGURED"
	default:
		return "UNKNOWN"
	}
}

// KeySource is the key capability a session is started with.
type KeySource struct {
	Mode KeyMode

	// Secret is the Base32 key string for Preconfigured sessions.
	Secret []byte
}

// FromDevice returns a DeviceSupplied key source.
func FromDevice() KeySource {
	return KeySource{Mode: DeviceSupplied}
}

// FromSecret returns a Preconfigured key source. Start copies the secret
// and wipes its copy when the session ends.
func FromSecret(secret []byte) KeySource {
	return KeySource{Mode: Preconfigured, Secret: secret}
}

// SecretStore is the part of the secret/config store the engine reads.
type SecretStore interface {
	// ClockValue returns the configured clock value; ok is false when unset.
	ClockValue() (clock int64, ok bool, err error)

	// PersistedSecret returns the stored key, nil when absent.
	PersistedSecret() ([]byte, error)
}
