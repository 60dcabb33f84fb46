package discovery

import (
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var doorService = uuid.MustParse("12345678-1234-5678-1234-56789abcdef0")

func TestLockTXTRoundTrip(t *testing.T) {
	info := &LockInfo{Name: "SmartDoor-Front", Services: []uuid.UUID{doorService}}
	strs := TXTRecordsToStrings(EncodeLockTXT(info))

	assert.Equal(t, []string{
		"name=SmartDoor-Front",
		"svc=12345678-1234-5678-1234-56789abcdef0",
		"ver=1",
	}, strs)

	got, err := DecodeLockTXT(StringsToTXTRecords(strs))
	require.NoError(t, err)
	assert.Equal(t, info.Name, got.Name)
	assert.Equal(t, info.Services, got.Services)
}

func TestDecodeLockTXT(t *testing.T) {
	tests := []struct {
		name    string
		txt     TXTRecordMap
		want    *LockInfo
		wantErr bool
	}{
		{
			name: "no services",
			txt:  TXTRecordMap{"name": "Garage"},
			want: &LockInfo{Name: "Garage"},
		},
		{
			name: "two services with spaces",
			txt:  TXTRecordMap{"svc": doorService.String() + ", 0000180f-0000-1000-8000-00805f9b34fb"},
			want: &LockInfo{Services: []uuid.UUID{doorService, uuid.MustParse("0000180f-0000-1000-8000-00805f9b34fb")}},
		},
		{
			name:    "bad uuid",
			txt:     TXTRecordMap{"svc": "not-a-uuid"},
			wantErr: true,
		},
		{
			name:    "future version",
			txt:     TXTRecordMap{"ver": "2"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeLockTXT(tt.txt)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTXT)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "b=x=y", "flag", ""})
	assert.Equal(t, TXTRecordMap{"a": "1", "b": "x=y", "flag": ""}, txt)
}

func TestValidateInstanceName(t *testing.T) {
	assert.NoError(t, ValidateInstanceName("SmartDoor"))
	assert.Error(t, ValidateInstanceName(""))
	assert.ErrorIs(t, ValidateInstanceName(strings.Repeat("x", MaxInstanceNameLen+1)), ErrInstanceNameTooLong)
}

func TestPeerFromRecord(t *testing.T) {
	t.Run("uses TXT name and first address", func(t *testing.T) {
		peer, err := peerFromRecord(record{
			instance: "lock-1",
			port:     7420,
			text:     []string{"name=SmartDoor-Front", "svc=" + doorService.String()},
			addrs:    []net.IP{net.ParseIP("192.168.1.20"), net.ParseIP("fe80::1")},
		})
		require.NoError(t, err)
		assert.Equal(t, Peer{
			Name:     "SmartDoor-Front",
			Addr:     "192.168.1.20:7420",
			Services: []uuid.UUID{doorService},
		}, peer)
	})

	t.Run("falls back to instance name", func(t *testing.T) {
		peer, err := peerFromRecord(record{instance: "lock-2", port: 1, addrs: []net.IP{net.ParseIP("::1")}})
		require.NoError(t, err)
		assert.Equal(t, "lock-2", peer.Name)
		assert.Equal(t, "[::1]:1", peer.Addr)
	})

	t.Run("no address", func(t *testing.T) {
		_, err := peerFromRecord(record{instance: "lock-3", port: 1})
		assert.True(t, errors.Is(err, ErrNoAddress))
	})

	t.Run("bad TXT", func(t *testing.T) {
		_, err := peerFromRecord(record{port: 1, text: []string{"svc=zzz"}, addrs: []net.IP{net.ParseIP("10.0.0.1")}})
		assert.ErrorIs(t, err, ErrInvalidTXT)
	})
}
