package token

import (
	"testing"
	"time"

	"github.com/oiascix/ble-app/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyToken(t *testing.T) {
	key := []byte("JBSWY3DPEHPK3PXP")
	now := time.Unix(1700000100, 0)

	claims, err := VerifyToken(goldenToken, key, now)
	require.NoError(t, err)
	assert.Equal(t, DefaultSubject, claims.Subject)
	assert.Equal(t, int64(1700003600), claims.ExpiresAt.Unix())

	t.Run("expired", func(t *testing.T) {
		_, err := VerifyToken(goldenToken, key, time.Unix(1700003601, 0))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("wrong key", func(t *testing.T) {
		_, err := VerifyToken(goldenToken, []byte("other"), now)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := VerifyToken("a.b", key, now)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("empty key", func(t *testing.T) {
		_, err := VerifyToken(goldenToken, nil, now)
		assert.ErrorIs(t, err, ErrEmptySecret)
	})
}

func TestVerifyCommand(t *testing.T) {
	secret := codec.Base32Decode("JBSWY3DPEHPK3PXP")

	clock, err := VerifyCommand("02324550|1700000000|OPEN", secret, DefaultDigits)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), clock)

	_, err = VerifyCommand("324550|1700000000|OPEN", secret, SimplifiedDigits)
	assert.NoError(t, err)

	_, err = VerifyCommand("02324551|1700000000|OPEN", secret, DefaultDigits)
	assert.ErrorIs(t, err, ErrInvalidCode)

	// Right code, wrong window.
	_, err = VerifyCommand("02324550|1700000010|OPEN", secret, DefaultDigits)
	assert.ErrorIs(t, err, ErrInvalidCode)

	// Width mismatch.
	_, err = VerifyCommand("324550|1700000000|OPEN", secret, DefaultDigits)
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = VerifyCommand("nope", secret, DefaultDigits)
	assert.ErrorIs(t, err, ErrMalformedCommand)
}

func TestCommandRoundTrip(t *testing.T) {
	secret := []byte("round-trip")
	for clock := int64(0); clock < 300; clock += 7 {
		cmd := UnlockCommand(TimeOTP(secret, clock, DefaultDigits), clock)
		if _, err := VerifyCommand(cmd, secret, DefaultDigits); err != nil {
			t.Fatalf("VerifyCommand(%q): %v", cmd, err)
		}
	}
}
