package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oiascix/ble-app/pkg/codec"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// Verification errors.
var (
	ErrInvalidToken = errors.New("token: invalid signed token")
	ErrInvalidCode  = errors.New("token: invalid one-time code")
)

// VerifyToken checks a compact token the way the lock does: HS256 under
// secret, exp in the future relative to now. It returns the token claims.
func VerifyToken(tokenString string, secret []byte, now time.Time) (*jwt.RegisteredClaims, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// VerifyCommand parses an unlock command and checks its code against secret
// for the window of the clock value it carries. The clock value is returned
// so the caller can apply its own freshness policy.
func VerifyCommand(cmd string, secret []byte, digits int) (int64, error) {
	code, clock, err := ParseUnlockCommand(cmd)
	if err != nil {
		return 0, err
	}
	if len(secret) == 0 {
		return 0, ErrEmptySecret
	}
	if clock < 0 {
		return 0, ErrMalformedCommand
	}

	ok, err := hotp.ValidateCustom(code, Counter(clock), codec.Base32Encode(secret), hotp.ValidateOpts{
		Digits:    otp.Digits(digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	if !ok {
		return 0, ErrInvalidCode
	}
	return clock, nil
}
