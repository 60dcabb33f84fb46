// Package codec provides the encoding and keyed-hash primitives used by the
// smartdoor token generator.
//
// The Base32 decoder is deliberately lenient: lock firmware and setup
// screens hand out secrets with mixed case, spaces, dashes and missing
// padding, and all of those must decode to the same bytes. Invalid input
// never fails; it decodes to fewer (possibly zero) bytes and the caller
// decides whether an empty key is acceptable.
package codec
