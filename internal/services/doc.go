// Package services defines the shared error taxonomy for lbxwatch runs.
//
// Sentinel errors distinguish fatal setup failures from per-row conditions
// (no match, upstream fetch failure, persistence failure) so the updater and
// CLI can decide between aborting a run and skipping a row with errors.Is.
package services
