package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names.
const (
	TransportBLE = "ble"
	TransportTCP = "tcp"
)

// Key source names.
const (
	KeySourceDevice = "device"
	KeySourceStored = "stored"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all settings.
type Config struct {
	// Transport selects the radio: "ble" or "tcp".
	Transport string `yaml:"transport"`

	// Peers are lock addresses for the tcp transport.
	Peers []string `yaml:"peers,omitempty"`

	// Browse enables mDNS discovery of locks for the tcp transport.
	Browse bool `yaml:"mdns"`

	// DebugFilter scans unfiltered and connects to names containing it.
	DebugFilter string `yaml:"debug_filter,omitempty"`

	ScanTimeout time.Duration `yaml:"scan_timeout"`
	StepTimeout time.Duration `yaml:"step_timeout"`

	// KeySource is "device" or "stored".
	KeySource string `yaml:"key_source"`

	Digits   int           `yaml:"digits"`
	Subject  string        `yaml:"subject"`
	TokenTTL time.Duration `yaml:"token_ttl"`

	// StateDir holds config.json, secret.sealed and master.key.
	StateDir string `yaml:"state_dir"`

	// Passphrase seals the stored secret. Never read from YAML.
	Passphrase string `yaml:"-"`

	// TraceFile receives CBOR session traces when set.
	TraceFile string `yaml:"trace_file,omitempty"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Listen, MetricsAddr and LockName configure the simulator.
	Listen      string `yaml:"listen,omitempty"`
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
	LockName    string `yaml:"lock_name,omitempty"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Transport:   TransportBLE,
		ScanTimeout: 10 * time.Second,
		StepTimeout: 15 * time.Second,
		KeySource:   KeySourceDevice,
		Digits:      8,
		Subject:     "arduino",
		TokenTTL:    time.Hour,
		StateDir:    defaultStateDir(),
		LogLevel:    "info",
		LogFormat:   "text",
		Listen:      ":7420",
		MetricsAddr: ":9420",
		LockName:    "SmartDoor",
	}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "smartdoor")
	}
	return ".smartdoor"
}

// LoadFile overlays the YAML file at path onto c. Keys missing from the
// file keep their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	var errs []error
	switch c.Transport {
	case TransportBLE, TransportTCP:
	default:
		errs = append(errs, fmt.Errorf("%w: transport %q", ErrInvalid, c.Transport))
	}
	switch c.KeySource {
	case KeySourceDevice, KeySourceStored:
	default:
		errs = append(errs, fmt.Errorf("%w: key source %q", ErrInvalid, c.KeySource))
	}
	if c.Digits < 1 || c.Digits > 10 {
		errs = append(errs, fmt.Errorf("%w: digits %d", ErrInvalid, c.Digits))
	}
	if c.ScanTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: scan timeout %s", ErrInvalid, c.ScanTimeout))
	}
	if c.TokenTTL < time.Second {
		errs = append(errs, fmt.Errorf("%w: token ttl %s", ErrInvalid, c.TokenTTL))
	}
	if c.StateDir == "" {
		errs = append(errs, fmt.Errorf("%w: empty state dir", ErrInvalid))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("%w: log format %q", ErrInvalid, c.LogFormat))
	}
	return errors.Join(errs...)
}

// NewLogger builds the slog logger described by LogLevel and LogFormat.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, s)
	}
	return level, nil
}
