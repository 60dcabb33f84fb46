// Package engine drives one smartdoor unlock session from scan to
// disconnect.
//
// A session walks a fixed state sequence:
//
//	Idle → Scanning → Connecting → DiscoveringServices → ReadingKey →
//	ComputingAuth → SendingCommand → Completed → Idle
//
// ReadingKey is skipped when the key is preconfigured. Each state issues at
// most one transport operation and waits for its completion before the
// next. Any failure ends the session in Idle with exactly one Outcome;
// nothing is retried.
//
// # Concurrency
//
// Transport callbacks arrive on goroutines the engine does not own. They
// are turned into events tagged with the session generation and queued in
// a mailbox drained by a single goroutine, which is the only writer of
// session state. Events carrying an older generation are dropped, so a
// late write acknowledgment can never advance a session that was cancelled
// or replaced.
//
// Outcome, diagnostic and advertisement callbacks run on the engine
// goroutine. They may call Start or Cancel but must not call Close.
package engine
