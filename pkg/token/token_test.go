package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goldenToken = "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." +
	"eyJzdWIiOiJhcmR1aW5vIiwiaWF0IjoxNzAwMDAwMDAwLCJleHAiOjE3MDAwMDM2MDB9." +
	"_k6FvfXPwVqtOMyL236R_Ng-s0UScG2MQMcUITYAD6g"

func TestSignedTokenGolden(t *testing.T) {
	tok, err := SignedToken([]byte("JBSWY3DPEHPK3PXP"), DefaultSubject, 1700000000, DefaultTTL)
	require.NoError(t, err)
	assert.Equal(t, goldenToken, tok)
}

func TestSignedTokenShape(t *testing.T) {
	for _, subject := range []string{"arduino", "", "front door", "ü"} {
		tok, err := SignedToken([]byte{0x01, 0x02}, subject, 42, 10)
		require.NoError(t, err)

		parts := strings.Split(tok, ".")
		require.Len(t, parts, 3, "token %q", tok)
		for i, p := range parts {
			_, err := base64.RawURLEncoding.DecodeString(p)
			assert.NoError(t, err, "segment %d of %q", i, tok)
		}

		payload, _ := base64.RawURLEncoding.DecodeString(parts[1])
		var got struct {
			Sub string `json:"sub"`
			Iat int64  `json:"iat"`
			Exp int64  `json:"exp"`
		}
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, subject, got.Sub)
		assert.Equal(t, int64(42), got.Iat)
		assert.Equal(t, int64(52), got.Exp)
	}
}

func TestSignedTokenFieldOrder(t *testing.T) {
	tok, err := SignedToken([]byte("k"), "s", 1, 2)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	header, _ := base64.RawURLEncoding.DecodeString(parts[0])
	payload, _ := base64.RawURLEncoding.DecodeString(parts[1])
	assert.Equal(t, `{"alg":"HS256","typ":"JWT"}`, string(header))
	assert.Equal(t, `{"sub":"s","iat":1,"exp":3}`, string(payload))
}

// The construction is byte-identical to an HS256 JWT whose claims are
// marshalled in sub, iat, exp order.
func TestSignedTokenMatchesJWTLibrary(t *testing.T) {
	key := []byte("JBSWY3DPEHPK3PXP")
	want, err := jwt.NewWithClaims(jwt.SigningMethodHS256, orderedClaims{
		Sub: DefaultSubject,
		Iat: 1700000000,
		Exp: 1700003600,
	}).SignedString(key)
	require.NoError(t, err)

	got, err := SignedToken(key, DefaultSubject, 1700000000, DefaultTTL)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSignedTokenEmptySecret(t *testing.T) {
	_, err := SignedToken(nil, "s", 1, 1)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

type orderedClaims struct {
	Sub string `json:"sub"`
	Iat int64  `json:"iat"`
	Exp int64  `json:"exp"`
}

func (c orderedClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}
func (c orderedClaims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c orderedClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c orderedClaims) GetIssuer() (string, error)              { return "", nil }
func (c orderedClaims) GetSubject() (string, error)             { return c.Sub, nil }
func (c orderedClaims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }
