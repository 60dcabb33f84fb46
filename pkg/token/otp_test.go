package token

import (
	"encoding/binary"
	"fmt"
	"regexp"
	"testing"

	"github.com/oiascix/ble-app/pkg/codec"
)

var digitsRE = regexp.MustCompile(`^[0-9]{8}$`)

func TestTimeOTPGolden(t *testing.T) {
	secret := codec.Base32Decode("JBSWY3DPEHPK3PXP")

	tests := []struct {
		clock  int64
		digits int
		want   string
	}{
		{1700000000, 8, "02324550"},
		{1700000000, 6, "324550"},
		{1700000009, 8, "02324550"},
		{1700000010, 8, "02367665"},
		{1700000029, 8, "02367665"},
		{1700000030, 8, "02367665"},
		{1640995200, 8, "44992080"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.clock, tt.digits), func(t *testing.T) {
			if got := TimeOTP(secret, tt.clock, tt.digits); got != tt.want {
				t.Errorf("TimeOTP() = %q, want %q", got, tt.want)
			}
		})
	}
}

// RFC 6238 Appendix B, SHA1 column.
func TestTimeOTPRFC6238(t *testing.T) {
	secret := []byte("12345678901234567890")

	vectors := map[int64]string{
		59:          "94287082",
		1111111109:  "07081804",
		1111111111:  "14050471",
		1234567890:  "89005924",
		2000000000:  "69279037",
		20000000000: "65353130",
	}
	for clock, want := range vectors {
		if got := TimeOTP(secret, clock, DefaultDigits); got != want {
			t.Errorf("TimeOTP(%d) = %q, want %q", clock, got, want)
		}
	}
}

// referenceOTP is the truncation from RFC 4226 section 5.3 built on the
// codec HMAC.
func referenceOTP(t *testing.T, secret []byte, clock int64, digits int) string {
	t.Helper()

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(clock/Period))
	sum, err := codec.HMAC(codec.SHA1, secret, msg[:])
	if err != nil {
		t.Fatalf("HMAC: %v", err)
	}
	off := sum[19] & 0x0f
	v := binary.BigEndian.Uint32(sum[off:off+4]) & 0x7fffffff
	mod := uint32(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, v%mod)
}

func TestTimeOTPMatchesReference(t *testing.T) {
	secrets := [][]byte{
		{1},
		[]byte("a longer shared secret of odd size"),
		codec.Base32Decode("GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"),
	}
	for _, s := range secrets {
		for clock := int64(0); clock < 3000; clock += 97 {
			for _, d := range []int{SimplifiedDigits, DefaultDigits} {
				if got, want := TimeOTP(s, clock, d), referenceOTP(t, s, clock, d); got != want {
					t.Fatalf("TimeOTP(%x, %d, %d) = %q, want %q", s, clock, d, got, want)
				}
			}
		}
	}
}

func TestTimeOTPShapeAndWindow(t *testing.T) {
	secret := []byte("window-secret")
	for clock := int64(0); clock < 600; clock++ {
		code := TimeOTP(secret, clock, DefaultDigits)
		if !digitsRE.MatchString(code) {
			t.Fatalf("TimeOTP(%d) = %q, not 8 digits", clock, code)
		}
		// Same window, same code.
		start := clock - clock%Period
		if other := TimeOTP(secret, start, DefaultDigits); other != code {
			t.Fatalf("TimeOTP(%d) = %q differs from window start %d = %q", clock, code, start, other)
		}
	}
}

func TestTimeOTPFailsafe(t *testing.T) {
	tests := []struct {
		name   string
		secret []byte
		clock  int64
		digits int
		want   string
	}{
		{"empty secret", nil, 1700000000, 8, "00000000"},
		{"empty secret six", []byte{}, 1700000000, 6, "000000"},
		{"negative clock", []byte("k"), -1, 8, "00000000"},
		{"too wide", []byte("k"), 1, 12, "000000000000"},
		{"zero width", []byte("k"), 1, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeOTP(tt.secret, tt.clock, tt.digits); got != tt.want {
				t.Errorf("TimeOTP() = %q, want %q", got, tt.want)
			}
		})
	}
}
