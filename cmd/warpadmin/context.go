package main

import (
	"log/slog"
	"strings"
	"sync"

	"warpmc/internal/logging"
	"warpmc/internal/paths"
	"warpmc/internal/providers"
	"warpmc/internal/settings"
)

// commandContext lazily wires the shared subsystems so that flag parsing
// finishes before any configuration is read.
type commandContext struct {
	configDirFlag *string

	loggerOnce sync.Once
	logger     *slog.Logger

	resolverOnce sync.Once
	resolver     *paths.Resolver
	resolverErr  error

	settingsOnce sync.Once
	settings     *settings.Store
	settingsErr  error

	providersOnce sync.Once
	providers     *providers.Registry
	providersErr  error
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

// ensureLogger builds the process logger once. The level comes from the
// effective settings, which needs a bootstrap resolver and store; the shared
// instances are then constructed with this logger attached.
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

func (c *commandContext) ensureSettings() (*settings.Store, error) {
	c.settingsOnce.Do(func() {
		resolver, err := c.ensureResolver()
		if err != nil {
			c.settingsErr = err
			return
		}
		c.settings, c.settingsErr = settings.NewStore(resolver, settings.WithLogger(c.ensureLogger()))
	})
	return c.settings, c.settingsErr
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
