package codec

import "encoding/base64"

// Base64URLEncode encodes b with the URL-safe alphabet and no padding.
func Base64URLEncode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// Base64URLDecode is the inverse of Base64URLEncode.
func Base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
