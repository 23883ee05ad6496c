// Package offers shapes heterogeneous catalog offer nodes into the canonical
// per-provider form the history reconciler diffs against.
//
// Normalization is pure: provider ids are extracted defensively from flat or
// nested fields, deep links follow a fixed fallback order, and duplicate
// providers collapse to the highest presentation tier.
package offers
