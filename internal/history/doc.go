// Package history computes reconciliation plans for streaming-availability
// intervals.
//
// Availability is kept as a slowly-changing history: one open interval per
// (item, provider) while an offer is live, closed when the offer disappears
// or materially changes. Reconcile is pure; the store applies plans in one
// transaction to preserve the at-most-one-open-interval invariant.
package history
