// Package omdb implements the small OMDb API surface used for box-office
// lookups by IMDb id.
package omdb
