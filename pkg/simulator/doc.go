// Package simulator provides a software door lock.
//
// A Lock is a transport.GATTTable exposing the door lock service: the key
// characteristic returns the Base32 key string, the auth characteristic
// accepts a signed token and the command characteristic accepts an unlock
// command once a token has been accepted on the same connection.
//
// Counters are kept in a Prometheus registry; NewAdminHandler serves them
// at /metrics next to a JSON /status document.
package simulator
