package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateUpdate(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if len(c.Catalog.Country) != 2 {
		return fmt.Errorf("catalog.country must be a two-letter ISO country code, got %q", c.Catalog.Country)
	}
	if c.Catalog.Language == "" {
		return errors.New("catalog.language must be set")
	}
	return nil
}

func (c *Config) validateUpdate() error {
	switch c.Update.Source {
	case "WATCHLIST", "DIARY":
	default:
		return fmt.Errorf("update.source must be WATCHLIST or DIARY, got %q", c.Update.Source)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	return nil
}
