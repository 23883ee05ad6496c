// Package logging assembles structured slog loggers used across lbxwatch
// components.
//
// It owns console/JSON handler selection, level parsing, and multi-writer
// output so run logs land both on stdout and in the configured log directory.
// Attribute helpers and component loggers keep field names consistent, and a
// no-op logger is available for tests and wiring code that cannot fail.
package logging
