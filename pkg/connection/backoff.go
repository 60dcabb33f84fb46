package connection

import (
	"math/rand"
	"sync"
	"time"
)

// Delays between unlock sessions when a retry is allowed.
const (
	// InitialBackoff is the pause after the first failed session.
	InitialBackoff = 500 * time.Millisecond

	// MaxBackoff caps the pause, however many sessions have failed.
	MaxBackoff = 8 * time.Second

	// BackoffMultiplier grows the pause after every failed session.
	BackoffMultiplier = 2.0

	// JitterFactor spreads retries from several clients hitting one lock.
	JitterFactor = 0.25
)

// Backoff hands out the pause to take before the next unlock session.
// It is safe for concurrent use.
type Backoff struct {
	cfg BackoffConfig

	mu     sync.Mutex
	base   time.Duration
	handed int
	rng    *rand.Rand
}

// BackoffConfig tunes a Backoff. Zero fields take the package defaults,
// except Jitter, where zero means no jitter.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

func (c BackoffConfig) normalized() BackoffConfig {
	if c.Initial <= 0 {
		c.Initial = InitialBackoff
	}
	if c.Max <= 0 {
		c.Max = MaxBackoff
	}
	c.Max = max(c.Max, c.Initial)
	if c.Multiplier <= 1 {
		c.Multiplier = BackoffMultiplier
	}
	c.Jitter = max(c.Jitter, 0)
	return c
}

// NewBackoff returns the Backoff used between unlock retries by default.
func NewBackoff() *Backoff {
	return NewBackoffWithConfig(BackoffConfig{Jitter: JitterFactor})
}

func NewBackoffWithConfig(cfg BackoffConfig) *Backoff {
	cfg = cfg.normalized()
	return &Backoff{
		cfg:  cfg,
		base: cfg.Initial,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the pause before the next session and lengthens the one
// after it.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	pause := b.spread(b.base)
	b.handed++
	b.base = min(time.Duration(float64(b.base)*b.cfg.Multiplier), b.cfg.Max)
	return pause
}

// Peek is Next without lengthening later pauses.
func (b *Backoff) Peek() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spread(b.base)
}

// Reset starts over after a session got through.
func (b *Backoff) Reset() {
	b.mu.Lock()
	b.base = b.cfg.Initial
	b.handed = 0
	b.mu.Unlock()
}

// Attempts counts the pauses taken since the last Reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.handed
}

// Current is the unjittered pause Next would start from.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.base
}

func (b *Backoff) spread(d time.Duration) time.Duration {
	if b.cfg.Jitter == 0 {
		return d
	}
	return d + time.Duration(b.rng.Float64()*b.cfg.Jitter*float64(d))
}

// BackoffSequence lists the unjittered default pauses, ending at
// MaxBackoff.
func BackoffSequence() []time.Duration {
	var seq []time.Duration
	for d := InitialBackoff; ; d = time.Duration(float64(d) * BackoffMultiplier) {
		if d >= MaxBackoff {
			return append(seq, MaxBackoff)
		}
		seq = append(seq, d)
	}
}
