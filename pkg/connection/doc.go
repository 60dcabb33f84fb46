// Package connection spaces out repeated unlock attempts.
//
// A failed session (no lock in range, a dropped link) is retried with
// exponential backoff:
//
//  1. Initial delay: 500 milliseconds
//  2. Exponential increase: 1s, 2s, 4s
//  3. Maximum delay: 8 seconds
//
// Each delay gets up to 25% random jitter so several clients near the
// same lock do not retry in lockstep:
//
//	actual_delay = base_delay + random(0, base_delay * 0.25)
//
// Failures that another attempt cannot fix (missing configuration, a
// lock that rejects the token) are marked Permanent and stop the loop.
package connection
