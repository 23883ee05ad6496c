package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeUpdate()
	c.normalizeEnrich()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() {
	if strings.TrimSpace(c.Catalog.BaseURL) == "" {
		c.Catalog.BaseURL = defaultCatalogBaseURL
	}
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	c.Catalog.Country = strings.ToUpper(strings.TrimSpace(c.Catalog.Country))
	c.Catalog.Language = strings.ToLower(strings.TrimSpace(c.Catalog.Language))
	if c.Catalog.SearchLimit <= 0 {
		c.Catalog.SearchLimit = defaultSearchLimit
	}
}

func (c *Config) normalizeUpdate() {
	c.Update.Source = strings.ToUpper(strings.TrimSpace(c.Update.Source))
	if c.Update.Source == "" {
		c.Update.Source = defaultSource
	}
	if c.Update.BatchSize <= 0 {
		c.Update.BatchSize = defaultBatchSize
	}
	if c.Update.SleepMS < 0 {
		c.Update.SleepMS = 0
	}
	if c.Update.StaleDays <= 0 {
		c.Update.StaleDays = defaultStaleDays
	}
}

func (c *Config) normalizeEnrich() {
	if strings.TrimSpace(c.Enrich.TMDBAPIKey) == "" {
		c.Enrich.TMDBAPIKey = strings.TrimSpace(os.Getenv("TMDB_API_KEY"))
	}
	if strings.TrimSpace(c.Enrich.OMDBAPIKey) == "" {
		c.Enrich.OMDBAPIKey = strings.TrimSpace(os.Getenv("OMDB_API_KEY"))
	}
	if strings.TrimSpace(c.Enrich.TMDBBaseURL) == "" {
		c.Enrich.TMDBBaseURL = defaultTMDBBaseURL
	}
	c.Enrich.TMDBBaseURL = strings.TrimRight(strings.TrimSpace(c.Enrich.TMDBBaseURL), "/")
	if strings.TrimSpace(c.Enrich.TMDBLanguage) == "" {
		c.Enrich.TMDBLanguage = defaultTMDBLanguage
	}
	if strings.TrimSpace(c.Enrich.OMDBBaseURL) == "" {
		c.Enrich.OMDBBaseURL = defaultOMDBBaseURL
	}
	c.Enrich.OMDBBaseURL = strings.TrimRight(strings.TrimSpace(c.Enrich.OMDBBaseURL), "/")
	if c.Enrich.BatchSize <= 0 {
		c.Enrich.BatchSize = defaultEnrichBatchSize
	}
	if c.Enrich.SleepMS < 0 {
		c.Enrich.SleepMS = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
