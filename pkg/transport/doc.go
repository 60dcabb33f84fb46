// Package transport carries GATT operations over TCP, for locks attached
// to the network instead of the radio and for the lock simulator.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│      CBOR Messages             │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// # Messages
//
// The client sends Discover, Read and Write requests, each with an ID.
// The server answers with Services, ReadResult or WriteResult echoing the
// ID, or with Error carrying a Status. Client implements gatt.Adapter, so
// the engine drives a networked lock exactly like a radio one.
package transport
