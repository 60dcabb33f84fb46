package codec

import "strings"

// base32Alphabet is the RFC 4648 alphabet.
const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// base32Values maps an upper-case symbol to its 5-bit value, -1 if invalid.
var base32Values = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base32Alphabet); i++ {
		t[base32Alphabet[i]] = int8(i)
	}
	return t
}()

// Base32Decode decodes an RFC 4648 Base32 string.
//
// Decoding is case-insensitive and skips every character outside the
// alphabet, padding included. Bits are consumed five at a time and emitted
// as whole bytes; a trailing partial byte is dropped. Empty or fully
// invalid input yields an empty, non-nil slice.
func Base32Decode(s string) []byte {
	out := make([]byte, 0, len(s)*5/8)
	var buffer uint32
	var bits uint

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		v := base32Values[c]
		if v < 0 {
			continue
		}
		buffer = buffer<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buffer>>bits))
			buffer &= 1<<bits - 1
		}
	}
	return out
}

// Base32Encode encodes b as unpadded upper-case Base32. It is the inverse of
// Base32Decode for any byte sequence.
func Base32Encode(b []byte) string {
	var sb strings.Builder
	sb.Grow((len(b)*8 + 4) / 5)

	var buffer uint32
	var bits uint
	for _, c := range b {
		buffer = buffer<<8 | uint32(c)
		bits += 8
		for bits >= 5 {
			bits -= 5
			sb.WriteByte(base32Alphabet[(buffer>>bits)&0x1f])
		}
		buffer &= 1<<bits - 1
	}
	if bits > 0 {
		sb.WriteByte(base32Alphabet[(buffer<<(5-bits))&0x1f])
	}
	return sb.String()
}
