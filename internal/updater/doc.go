// Package updater orchestrates batch mapping runs: it selects unmapped or
// stale source rows, resolves each title against the catalog, persists the
// resulting mapping, and reconciles offer availability history for tracked
// watchlist items.
package updater
