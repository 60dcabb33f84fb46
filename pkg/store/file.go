package store

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
)

// File names inside the store directory.
const (
	ConfigFile    = "config.json"
	SecretFile    = "secret.sealed"
	MasterKeyFile = "master.key"
)

// configVersion is the current config.json format.
const configVersion = 1

// fileConfig is the content of config.json.
type fileConfig struct {
	Version    int       `json:"version"`
	SavedAt    time.Time `json:"saved_at"`
	ClockValue *int64    `json:"clock_value,omitempty"`
}

// FileStore persists the store in a directory.
type FileStore struct {
	mu         sync.Mutex
	dir        string
	passphrase []byte
	params     KDFParams
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithPassphrase seals the secret with a key derived from passphrase
// instead of the master key file.
func WithPassphrase(passphrase []byte) FileOption {
	return func(s *FileStore) {
		s.passphrase = append([]byte(nil), passphrase...)
	}
}

// WithKDFParams overrides the Argon2id cost used for new seals.
func WithKDFParams(p KDFParams) FileOption {
	return func(s *FileStore) {
		s.params = p
	}
}

// NewFileStore creates a store rooted at dir. Nothing is written until a
// value is set.
func NewFileStore(dir string, opts ...FileOption) *FileStore {
	s := &FileStore{dir: dir, params: DefaultKDFParams}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// ClockValue implements Store.
func (s *FileStore) ClockValue() (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.loadConfig()
	if err != nil {
		return 0, false, err
	}
	if cfg.ClockValue == nil || *cfg.ClockValue == FactoryClock {
		return 0, false, nil
	}
	return *cfg.ClockValue, true, nil
}

// SetClockValue implements Store.
func (s *FileStore) SetClockValue(clock int64) error {
	if clock < 0 {
		return ErrInvalidClock
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	cfg.ClockValue = &clock
	return s.saveConfig(cfg)
}

// PersistedSecret implements Store.
func (s *FileStore) PersistedSecret() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(SecretFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec, err := unmarshalSealed(data)
	if err != nil {
		return nil, err
	}

	sl, err := s.sealer(false)
	if err != nil {
		return nil, err
	}
	return sl.open(rec)
}

// SetPersistedSecret implements Store.
func (s *FileStore) SetPersistedSecret(secret []byte) error {
	if len(secret) == 0 {
		return ErrEmptySecret
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	sl, err := s.sealer(true)
	if err != nil {
		return err
	}
	rec, err := sl.seal(secret)
	if err != nil {
		return err
	}
	data, err := marshalSealed(rec)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path(SecretFile), data, 0600)
}

// Clear implements Store. The master key file is removed as well.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, name := range []string{ConfigFile, SecretFile, MasterKeyFile} {
		if err := os.Remove(s.path(name)); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *FileStore) loadConfig() (*fileConfig, error) {
	data, err := os.ReadFile(s.path(ConfigFile))
	if os.IsNotExist(err) {
		return &fileConfig{}, nil
	}
	if err != nil {
		return nil, err
	}
	cfg := &fileConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", ConfigFile, err)
	}
	return cfg, nil
}

func (s *FileStore) saveConfig(cfg *fileConfig) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return err
	}
	cfg.Version = configVersion
	cfg.SavedAt = time.Now()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path(ConfigFile), data, 0600)
}

// sealer picks the passphrase sealer when a passphrase is set and the
// master key sealer otherwise. create allows generating the master key.
func (s *FileStore) sealer(create bool) (sealer, error) {
	if len(s.passphrase) > 0 {
		return passphraseSealer{passphrase: s.passphrase, params: s.params}, nil
	}
	key, err := s.masterKey(create)
	if err != nil {
		return nil, err
	}
	return masterKeySealer{key: key}, nil
}

func (s *FileStore) masterKey(create bool) ([]byte, error) {
	path := s.path(MasterKeyFile)
	key, err := os.ReadFile(path)
	if err == nil {
		if len(key) != chacha20poly1305.KeySize {
			return nil, fmt.Errorf("%w: master key has %d bytes", ErrCorrupt, len(key))
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	if !create {
		return nil, fmt.Errorf("%w: master key missing", ErrUnseal)
	}

	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(path, key, 0600); err != nil {
		return nil, err
	}
	return key, nil
}

// writeFileAtomic writes through a temp file and rename so readers never
// see a partial file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}
