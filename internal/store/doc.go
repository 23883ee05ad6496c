// Package store persists lbxwatch state in SQLite: exported source rows,
// title mappings, the current-offer snapshot, availability history, and
// enriched film details.
//
// The store is the single owner of the schema and of the availability
// invariant: ApplyPlan commits each item's reconciliation plan in one
// transaction so at most one open history interval ever exists per
// (item, provider). Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package store
