package codec

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
)

// Algorithm selects the digest used by HMAC.
type Algorithm uint8

const (
	// SHA1 produces a 20-byte tag. Used by the one-time code.
	SHA1 Algorithm = iota + 1

	// SHA256 produces a 32-byte tag. Used by the compact token.
	SHA256
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case SHA1:
		return "HMAC-SHA1"
	case SHA256:
		return "HMAC-SHA256"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", a)
	}
}

// Size returns the tag length in bytes, 0 for unknown algorithms.
func (a Algorithm) Size() int {
	switch a {
	case SHA1:
		return sha1.Size
	case SHA256:
		return sha256.Size
	default:
		return 0
	}
}

// HMAC errors.
var (
	ErrInvalidKey       = errors.New("codec: invalid hmac key")
	ErrUnknownAlgorithm = errors.New("codec: unknown hmac algorithm")
)

// HMAC computes the keyed hash of msg under key.
func HMAC(alg Algorithm, key, msg []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrInvalidKey
	}

	var h func() hash.Hash
	switch alg {
	case SHA1:
		h = sha1.New
	case SHA256:
		h = sha256.New
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithm, alg)
	}

	mac := hmac.New(h, key)
	mac.Write(msg)
	return mac.Sum(nil), nil
}
