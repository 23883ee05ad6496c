// Package match scores catalog search candidates against a noisy
// (title, year) pair from a personal log and selects the best one, or none.
//
// Resolution is a pure function of its inputs: no wall clock, no caching, and
// ties break on first-seen candidate order so repeated runs over the same
// search results produce identical mappings.
package match
