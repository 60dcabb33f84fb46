package token

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oiascix/ble-app/pkg/codec"
)

// Token defaults.
const (
	DefaultSubject = "arduino"
	DefaultTTL     = 3600
)

// ErrEmptySecret is returned when a token is requested without key material.
var ErrEmptySecret = errors.New("token: empty secret")

// header and claims are marshalled in declaration order, which fixes the
// byte layout the lock hashes.
type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

type claims struct {
	Sub string `json:"sub"`
	Iat int64  `json:"iat"`
	Exp int64  `json:"exp"`
}

var encodedHeader = mustSegment(header{Alg: "HS256", Typ: "JWT"})

// SignedToken builds the compact token
//
//	b64({"alg":"HS256","typ":"JWT"}).b64({"sub":..,"iat":..,"exp":..}).b64(sig)
//
// where sig is HMAC-SHA256 over the first two segments keyed by secret and
// exp = issuedAt + ttl.
func SignedToken(secret []byte, subject string, issuedAt, ttl int64) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}

	payload, err := segment(claims{Sub: subject, Iat: issuedAt, Exp: issuedAt + ttl})
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	signingInput := encodedHeader + "." + payload
	sig, err := codec.HMAC(codec.SHA256, secret, []byte(signingInput))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signingInput + "." + codec.Base64URLEncode(sig), nil
}

func segment(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return codec.Base64URLEncode(b), nil
}

func mustSegment(v any) string {
	s, err := segment(v)
	if err != nil {
		panic(fmt.Sprintf("token: encode header: %v", err))
	}
	return s
}
