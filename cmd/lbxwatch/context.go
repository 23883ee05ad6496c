package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"lbxwatch/internal/catalog"
	"lbxwatch/internal/config"
	"lbxwatch/internal/logging"
	"lbxwatch/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) configLocation() (string, error) {
	if _, err := c.ensureConfig(); err != nil {
		return "", err
	}
	return c.configPath, nil
}

// withStore loads config, logger, and store, runs fn, and closes the store.
// Every data-touching command goes through here.
func (c *commandContext) withStore(fn func(cfg *config.Config, logger *slog.Logger, st *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = st.Close()
	}()
	return fn(cfg, logger, st)
}

func (c *commandContext) catalogClient(cfg *config.Config) (*catalog.Client, error) {
	return catalog.New(cfg.Catalog.BaseURL, cfg.Catalog.Country, cfg.Catalog.Language,
		catalog.WithSearchLimit(cfg.Catalog.SearchLimit),
		catalog.WithBestOnly(cfg.Catalog.BestOnly))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
