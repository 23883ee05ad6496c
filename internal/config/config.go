package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Catalog contains configuration for the JustWatch catalog API.
type Catalog struct {
	BaseURL     string `toml:"base_url"`
	Country     string `toml:"country"`
	Language    string `toml:"language"`
	SearchLimit int    `toml:"search_limit"`
	BestOnly    bool   `toml:"best_only"`
}

// Update contains configuration for mapping and offer-history runs.
type Update struct {
	Source      string `toml:"source"`
	SleepMS     int    `toml:"sleep_ms"`
	BatchSize   int    `toml:"batch_size"`
	StaleDays   int    `toml:"stale_days"`
	TrackOffers bool   `toml:"track_offers"`
}

// Enrich contains configuration for TMDb/OMDb detail enrichment.
type Enrich struct {
	TMDBAPIKey   string `toml:"tmdb_api_key"`
	TMDBBaseURL  string `toml:"tmdb_base_url"`
	TMDBLanguage string `toml:"tmdb_language"`
	OMDBAPIKey   string `toml:"omdb_api_key"`
	OMDBBaseURL  string `toml:"omdb_base_url"`
	BatchSize    int    `toml:"batch_size"`
	SleepMS      int    `toml:"sleep_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lbxwatch.
//
// Configuration sections by subsystem:
//   - Paths: database and log directories
//   - Catalog: JustWatch search and offer lookups
//   - Update: batch sizing, staleness window, offer-history tracking
//   - Enrich: TMDb/OMDb detail enrichment
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Catalog Catalog `toml:"catalog"`
	Update  Update  `toml:"update"`
	Enrich  Enrich  `toml:"enrich"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/lbxwatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all paths expanded and defaults applied. When path is empty the
// default location is used; a missing file at the default location yields the
// defaults rather than an error.
func Load(path string) (*Config, string, error) {
	explicit := strings.TrimSpace(path) != ""
	resolved := strings.TrimSpace(path)
	if !explicit {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, "", err
		}
		resolved = defaultPath
	} else {
		expanded, err := ExpandPath(resolved)
		if err != nil {
			return nil, "", err
		}
		resolved = expanded
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if explicit {
			return nil, "", fmt.Errorf("config file not found: %s", resolved)
		}
	default:
		return nil, "", fmt.Errorf("read config %s: %w", resolved, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

// EnsureDirectories creates the data and log directories if needed.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the path of the SQLite database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "lbxwatch.db")
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists: %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath expands a leading ~ to the current user's home directory.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}
