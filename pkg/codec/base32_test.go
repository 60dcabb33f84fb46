package codec

import (
	"bytes"
	"encoding/base32"
	"math/rand"
	"testing"
)

func TestBase32Decode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []byte
	}{
		{"padded", "MFRGG===", []byte("abc")},
		{"full block", "MFRGGZDF", []byte("abcde")},
		{"lower case", "mfrggzdf", []byte("abcde")},
		{"mixed with separators", "mfrg-gzdf ", []byte("abcde")},
		{"totp secret", "JBSWY3DPEHPK3PXP", []byte{72, 101, 108, 108, 111, 33, 222, 173, 190, 239}},
		{"empty", "", []byte{}},
		{"all invalid", "0189!@#=", []byte{}},
		{"single symbol", "M", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Base32Decode(tt.in)
			if got == nil {
				t.Fatal("Base32Decode returned nil slice")
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Base32Decode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBase32DecodeMatchesStdlib(t *testing.T) {
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	for _, s := range []string{"GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ", "JBSWY3DPEHPK3PXP", "MZXW6YTBOI"} {
		want, err := enc.DecodeString(s)
		if err != nil {
			t.Fatalf("stdlib decode %q: %v", s, err)
		}
		if got := Base32Decode(s); !bytes.Equal(got, want) {
			t.Errorf("Base32Decode(%q) = %x, want %x", s, got, want)
		}
	}
}

func TestBase32RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for n := 0; n < 64; n++ {
		b := make([]byte, n)
		r.Read(b)

		enc := Base32Encode(b)
		if got := Base32Decode(enc); !bytes.Equal(got, b) {
			t.Fatalf("round trip of %d bytes: got %x, want %x (encoded %q)", n, got, b, enc)
		}
	}
}

func TestBase32EncodeMatchesStdlib(t *testing.T) {
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	for _, s := range []string{"", "a", "ab", "abc", "abcd", "abcde", "Hello!"} {
		if got, want := Base32Encode([]byte(s)), enc.EncodeToString([]byte(s)); got != want {
			t.Errorf("Base32Encode(%q) = %q, want %q", s, got, want)
		}
	}
}
