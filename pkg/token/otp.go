package token

import (
	"strings"

	"github.com/oiascix/ble-app/pkg/codec"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// One-time code parameters.
const (
	// Period is the length of one code window in clock units (seconds).
	Period = 30

	// DefaultDigits is the code width used by the full handshake.
	DefaultDigits = 8

	// SimplifiedDigits is the code width used by locks that only accept the
	// command write.
	SimplifiedDigits = 6

	// MaxDigits is the widest code the 31-bit truncated value can fill.
	MaxDigits = 10
)

// Counter returns the code window for a clock value.
func Counter(clock int64) uint64 {
	return uint64(clock / Period)
}

// TimeOTP returns the digits-wide one-time code for secret at clock.
//
// The code is HOTP (RFC 4226, HMAC-SHA1) over the window counter
// floor(clock/30). It never fails: an empty secret, a negative clock or an
// unsupported width yields the all-zero code, so callers must reject empty
// secrets before calling.
func TimeOTP(secret []byte, clock int64, digits int) string {
	if digits <= 0 {
		return ""
	}
	if len(secret) == 0 || clock < 0 || digits > MaxDigits {
		return zeroCode(digits)
	}

	code, err := hotp.GenerateCodeCustom(codec.Base32Encode(secret), Counter(clock), hotp.ValidateOpts{
		Digits:    otp.Digits(digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || len(code) != digits {
		return zeroCode(digits)
	}
	return code
}

func zeroCode(digits int) string {
	return strings.Repeat("0", digits)
}
