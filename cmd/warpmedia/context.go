package main

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"warpmc/internal/logging"
	"warpmc/internal/paths"
	"warpmc/internal/providers"
	"warpmc/internal/settings"
	"warpmc/internal/trakt"
)

type commandContext struct {
	configDirFlag *string

	loggerOnce sync.Once
	logger     *slog.Logger

	resolverOnce sync.Once
	resolver     *paths.Resolver
	resolverErr  error

	providersOnce sync.Once
	providers     *providers.Registry
	providersErr  error

	managerOnce sync.Once
	manager     *trakt.Manager
	managerErr  error
}

func newCommandContext(configDirFlag *string) *commandContext {
	return &commandContext{configDirFlag: configDirFlag}
}

func (c *commandContext) configDir() (string, error) {
	dir := ""
	if c.configDirFlag != nil {
		dir = strings.TrimSpace(*c.configDirFlag)
	}
	if dir == "" {
		return paths.DefaultConfigDir()
	}
	return dir, nil
}

// ensureLogger builds the process logger once, at the log level the effective
// settings ask for.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		level := settings.Default().LogLevel
		if dir, err := c.configDir(); err == nil {
			if resolver, err := paths.New(dir); err == nil {
				if store, err := settings.NewStore(resolver); err == nil {
					if current, err := store.Load(false); err == nil {
						level = current.LogLevel
					}
				}
			}
		}
		logger, err := logging.New(logging.Options{Level: level})
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) ensureResolver() (*paths.Resolver, error) {
	c.resolverOnce.Do(func() {
		dir, err := c.configDir()
		if err != nil {
			c.resolverErr = err
			return
		}
		c.resolver, c.resolverErr = paths.New(dir, paths.WithLogger(c.ensureLogger()))
	})
	return c.resolver, c.resolverErr
}

func (c *commandContext) ensureProviders() (*providers.Registry, error) {
	c.providersOnce.Do(func() {
		resolver, err := c.ensureResolver()
		if err != nil {
			c.providersErr = err
			return
		}
		c.providers, c.providersErr = providers.NewRegistry(resolver, providers.WithLogger(c.ensureLogger()))
	})
	return c.providers, c.providersErr
}

func (c *commandContext) ensureManager() (*trakt.Manager, error) {
	c.managerOnce.Do(func() {
		registry, err := c.ensureProviders()
		if err != nil {
			c.managerErr = err
			return
		}
		resolver, err := c.ensureResolver()
		if err != nil {
			c.managerErr = err
			return
		}
		c.manager, c.managerErr = trakt.NewManager(registry, resolver, trakt.WithLogger(c.ensureLogger()))
	})
	return c.manager, c.managerErr
}

// writeJSON encodes v as indented JSON to the command's stdout. HTML escaping
// is off so endpoint templates print verbatim.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
