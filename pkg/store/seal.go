package store

import (
	"crypto/rand"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// sealVersion is the current sealed secret format.
const sealVersion = 1

// Key derivation kinds.
const (
	kdfMasterKey uint8 = 1
	kdfArgon2id  uint8 = 2
)

// KDFParams are the Argon2id cost parameters. They are stored with every
// sealed secret so changing the defaults does not break existing files.
type KDFParams struct {
	Time    uint32 `cbor:"1,keyasint"`
	Memory  uint32 `cbor:"2,keyasint"` // KiB
	Threads uint8  `cbor:"3,keyasint"`
}

// DefaultKDFParams follow the Argon2id interactive recommendation.
var DefaultKDFParams = KDFParams{Time: 1, Memory: 64 * 1024, Threads: 4}

const saltSize = 16

// sealedSecret is the CBOR layout of secret.sealed.
type sealedSecret struct {
	Version    uint8      `cbor:"1,keyasint"`
	KDF        uint8      `cbor:"2,keyasint"`
	Params     *KDFParams `cbor:"3,keyasint,omitempty"`
	Salt       []byte     `cbor:"4,keyasint,omitempty"`
	Nonce      []byte     `cbor:"5,keyasint"`
	Ciphertext []byte     `cbor:"6,keyasint"`
}

var sealEncMode cbor.EncMode

func init() {
	var err error
	sealEncMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create seal CBOR encoder mode: %v", err))
	}
}

// additionalData binds the ciphertext to its purpose.
var additionalData = []byte("smartdoor/secret/v1")

// sealer turns a plaintext secret into a sealed record and back.
type sealer interface {
	seal(plaintext []byte) (*sealedSecret, error)
	open(rec *sealedSecret) ([]byte, error)
}

// masterKeySealer seals with a fixed 32-byte key.
type masterKeySealer struct {
	key []byte
}

func (s masterKeySealer) seal(plaintext []byte) (*sealedSecret, error) {
	rec := &sealedSecret{Version: sealVersion, KDF: kdfMasterKey}
	if err := encrypt(rec, s.key, plaintext); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s masterKeySealer) open(rec *sealedSecret) ([]byte, error) {
	if rec.KDF != kdfMasterKey {
		return nil, fmt.Errorf("%w: secret was sealed with a passphrase", ErrUnseal)
	}
	return decrypt(rec, s.key)
}

// passphraseSealer derives the key from a passphrase with Argon2id.
type passphraseSealer struct {
	passphrase []byte
	params     KDFParams
}

func (s passphraseSealer) seal(plaintext []byte) (*sealedSecret, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	params := s.params
	rec := &sealedSecret{Version: sealVersion, KDF: kdfArgon2id, Params: &params, Salt: salt}

	key := deriveKey(s.passphrase, salt, params)
	defer clear(key)
	if err := encrypt(rec, key, plaintext); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s passphraseSealer) open(rec *sealedSecret) ([]byte, error) {
	if rec.KDF != kdfArgon2id {
		return nil, fmt.Errorf("%w: secret was sealed with a master key", ErrUnseal)
	}
	if rec.Params == nil || len(rec.Salt) != saltSize || rec.Params.Threads == 0 {
		return nil, ErrCorrupt
	}
	key := deriveKey(s.passphrase, rec.Salt, *rec.Params)
	defer clear(key)
	return decrypt(rec, key)
}

func deriveKey(passphrase, salt []byte, p KDFParams) []byte {
	return argon2.IDKey(passphrase, salt, p.Time, p.Memory, p.Threads, chacha20poly1305.KeySize)
}

func encrypt(rec *sealedSecret, key, plaintext []byte) error {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	rec.Nonce = nonce
	rec.Ciphertext = aead.Seal(nil, nonce, plaintext, additionalData)
	return nil
}

func decrypt(rec *sealedSecret, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(rec.Nonce) != chacha20poly1305.NonceSizeX {
		return nil, ErrCorrupt
	}
	plaintext, err := aead.Open(nil, rec.Nonce, rec.Ciphertext, additionalData)
	if err != nil {
		return nil, ErrUnseal
	}
	return plaintext, nil
}

func marshalSealed(rec *sealedSecret) ([]byte, error) {
	return sealEncMode.Marshal(rec)
}

func unmarshalSealed(data []byte) (*sealedSecret, error) {
	var rec sealedSecret
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if rec.Version != sealVersion {
		return nil, fmt.Errorf("%w: version %d", ErrCorrupt, rec.Version)
	}
	return &rec, nil
}
