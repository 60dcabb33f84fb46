package main

import (
	"testing"

	"github.com/oiascix/ble-app/pkg/gatt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeers(t *testing.T) {
	peers, err := parsePeers([]string{
		"front=192.168.1.20:7420",
		"garage.local",
		" 10.0.0.5:9000 ",
		"",
		"[::1]:7421",
	})
	require.NoError(t, err)
	require.Len(t, peers, 4)

	assert.Equal(t, "front", peers[0].Name)
	assert.Equal(t, "192.168.1.20:7420", peers[0].Addr)

	assert.Equal(t, "garage.local:7420", peers[1].Name)
	assert.Equal(t, "garage.local:7420", peers[1].Addr)

	assert.Equal(t, "10.0.0.5:9000", peers[2].Addr)
	assert.Equal(t, "[::1]:7421", peers[3].Addr)

	for _, p := range peers {
		assert.Equal(t, gatt.DoorLock.Service, p.Services[0])
	}
}

func TestParsePeersRejects(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"missing host", ":7420"},
		{"bad port", "lock:http"},
		{"port out of range", "lock:70000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePeers([]string{tt.entry})
			assert.Error(t, err)
		})
	}
}
