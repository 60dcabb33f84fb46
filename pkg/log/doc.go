// Package log captures machine-readable session traces for smartdoor.
//
// It is separate from operational logging (log/slog). A trace records every
// engine state change, every GATT operation and its result, transport
// frames and the terminal outcome of each session, so that a failed unlock
// can be replayed step by step.
//
// # Usage
//
//	// Console, via slog at Debug level
//	cfg.TraceLogger = log.NewSlogAdapter(slog.Default())
//
//	// File, CBOR encoded
//	fl, _ := log.NewFileLogger("/var/lib/smartdoor/trace.sdlog")
//	cfg.TraceLogger = fl
//
//	// Both
//	cfg.TraceLogger = log.NewMultiLogger(log.NewSlogAdapter(nil), fl)
//
// # Secrets
//
// Events never carry characteristic values, only their sizes. Frames are
// recorded by size and message type.
//
// The smartdoor-log command views, filters and summarizes trace files.
package log
