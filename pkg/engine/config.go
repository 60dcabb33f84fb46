package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/oiascix/ble-app/pkg/gatt"
	"github.com/oiascix/ble-app/pkg/log"
	"github.com/oiascix/ble-app/pkg/token"
)

// Engine defaults.
const (
	DefaultScanTimeout = 10 * time.Second
	DefaultStepTimeout = 15 * time.Second
	DefaultTokenTTL    = token.DefaultTTL * time.Second

	// keyPrefixLen is how much of a key may appear in diagnostics.
	keyPrefixLen = 8
)

// Config configures an Engine.
type Config struct {
	// Adapter is the transport. Required.
	Adapter gatt.Adapter

	// ScanTimeout bounds the Scanning state. Default: 10s.
	ScanTimeout time.Duration

	// StepTimeout bounds every state after Scanning. Zero means the default
	// (15s); a negative value disables step deadlines.
	StepTimeout time.Duration

	// Digits is the one-time code width. Default: 8.
	Digits int

	// Subject is the token "sub" claim. Default: "arduino".
	Subject string

	// TokenTTL is added to "iat" to form "exp". Default: 1h.
	TokenTTL time.Duration

	// Now supplies the token issue time. Default: time.Now.
	Now func() time.Time

	// Logger receives operational logs. Default: slog.Default().
	Logger *slog.Logger

	// TraceLogger receives session trace events. Default: none.
	TraceLogger log.Logger
}

func (c *Config) applyDefaults() error {
	if c.Adapter == nil {
		return ErrNoAdapter
	}
	if c.ScanTimeout == 0 {
		c.ScanTimeout = DefaultScanTimeout
	}
	if c.ScanTimeout < 0 {
		return fmt.Errorf("%w: negative scan timeout", ErrInvalidConfig)
	}
	if c.StepTimeout == 0 {
		c.StepTimeout = DefaultStepTimeout
	}
	if c.Digits == 0 {
		c.Digits = token.DefaultDigits
	}
	if c.Digits < 1 || c.Digits > token.MaxDigits {
		return fmt.Errorf("%w: digits %d", ErrInvalidConfig, c.Digits)
	}
	if c.Subject == "" {
		c.Subject = token.DefaultSubject
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = DefaultTokenTTL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.TraceLogger = log.OrNoop(c.TraceLogger)
	return nil
}
