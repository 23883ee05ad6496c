// Package config loads, normalizes, and validates lbxwatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TMDB_API_KEY and OMDB_API_KEY. The Config type centralizes every knob the
// CLI needs, so region codes, staleness windows, and external service
// credentials are discovered in one pass and passed by reference into each
// component rather than read from globals.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
