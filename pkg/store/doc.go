// Package store persists the smart door client's configuration: the clock
// value the unlock command is computed for and, optionally, a preconfigured
// shared key.
//
// FileStore keeps the clock value in config.json and the key in
// secret.sealed, encrypted with XChaCha20-Poly1305. The sealing key comes
// from a passphrase through Argon2id or from a random master key file next
// to the sealed secret. MemoryStore holds the same values in memory.
package store
