package connection

import (
	"context"
	"errors"
	"time"
)

// ErrNoAttempts is returned by Retry when MaxAttempts is below one.
var ErrNoAttempts = errors.New("no attempts allowed")

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Retry returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// AttemptFunc runs one attempt. attempt counts from 1.
type AttemptFunc func(ctx context.Context, attempt int) error

// RetryConfig configures Retry.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff spaces the attempts. Default: NewBackoff().
	Backoff *Backoff

	// OnRetry is called before sleeping between attempts.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Retry runs fn until it succeeds, returns a Permanent error, the
// attempts are used up or ctx is done. It returns the last error, with
// the Permanent wrapper removed.
func Retry(ctx context.Context, cfg RetryConfig, fn AttemptFunc) error {
	if cfg.MaxAttempts < 1 {
		return ErrNoAttempts
	}
	b := cfg.Backoff
	if b == nil {
		b = NewBackoff()
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx, attempt)
		if err == nil {
			b.Reset()
			return nil
		}
		var p *permanentError
		if errors.As(err, &p) {
			return p.err
		}
		if attempt >= cfg.MaxAttempts {
			return err
		}

		delay := b.Next()
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}
