// Package token builds the credentials written to a smartdoor lock.
//
// A session writes two values, in order:
//
//   - a compact signed token: base64url(header) "." base64url(payload) "."
//     base64url(HMAC-SHA256 signature), see [SignedToken];
//   - an unlock command "<code>|<clock>|OPEN" where code is a time-windowed
//     one-time code derived from the shared secret, see [TimeOTP] and
//     [UnlockCommand].
//
// The lock verifies both with the same construction. [VerifyToken] and
// [VerifyCommand] implement that peripheral-side check; the client never
// calls them.
package token
