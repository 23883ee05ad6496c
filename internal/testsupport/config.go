package testsupport

import (
	"path/filepath"
	"testing"

	"lbxwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Update.SleepMS = 0
	cfg.Enrich.SleepMS = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithSource sets the update source on the test config.
func WithSource(source string) ConfigOption {
	return func(c *config.Config) {
		c.Update.Source = source
	}
}

// WithTrackOffers toggles offer-history tracking on the test config.
func WithTrackOffers(enabled bool) ConfigOption {
	return func(c *config.Config) {
		c.Update.TrackOffers = enabled
	}
}
