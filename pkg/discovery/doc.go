// Package discovery finds network-attached smart door locks with
// mDNS/DNS-SD.
//
// Locks (and the lock simulator) advertise the _smartdoor._tcp service.
// The instance name is the lock name; TXT records carry:
//
//   - name: the advertised peripheral name
//   - svc: comma-separated GATT service UUIDs
//   - ver: protocol version
//
// A browsing client turns each entry into a Peer that the TCP transport
// reports as a scan result.
package discovery
