package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/oiascix/ble-app/pkg/discovery"
	"github.com/oiascix/ble-app/pkg/gatt"
	"github.com/oiascix/ble-app/pkg/transport"
)

// parsePeers turns "name=host:port" or "host[:port]" entries into static
// peers advertising the door-lock service. Unnamed peers are named by
// their address.
func parsePeers(entries []string) ([]discovery.Peer, error) {
	peers := make([]discovery.Peer, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, addr, named := strings.Cut(entry, "=")
		if !named {
			addr = name
		}

		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			// No port given.
			host = addr
			port = strconv.Itoa(transport.DefaultPort)
		}
		if host == "" {
			return nil, fmt.Errorf("peer %q: missing host", entry)
		}
		if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
			return nil, fmt.Errorf("peer %q: invalid port %q", entry, port)
		}

		addr = net.JoinHostPort(host, port)
		if !named || name == "" {
			name = addr
		}
		peers = append(peers, discovery.Peer{
			Name:     name,
			Addr:     addr,
			Services: []uuid.UUID{gatt.DoorLock.Service},
		})
	}
	return peers, nil
}
