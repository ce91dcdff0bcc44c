package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"warpmc/internal/plugins"
	"warpmc/internal/settings"
)

func newPluginsCommand(ctx *commandContext) *cobra.Command {
	pluginsCmd := &cobra.Command{
		Use:   "plugins",
		Short: "Manage the plugin registry",
	}

	pluginsCmd.AddCommand(newPluginsListCommand(ctx))
	pluginsCmd.AddCommand(newPluginsRegisterCommand(ctx))
	pluginsCmd.AddCommand(newPluginsRemoveCommand(ctx))

	return pluginsCmd
}

func (c *commandContext) pluginRegistry() (*plugins.Registry, error) {
	store, err := c.ensureSettings()
	if err != nil {
		return nil, err
	}
	return plugins.NewRegistry(store, plugins.WithLogger(c.ensureLogger())), nil
}

func newPluginsListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.pluginRegistry()
			if err != nil {
				return err
			}
			entries, err := registry.List()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, entries)
			}
			return renderPluginTable(cmd, entries)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newPluginsRegisterCommand(ctx *commandContext) *cobra.Command {
	var (
		name        string
		version     string
		entrypoint  string
		path        string
		description string
		metadata    string
	)

	cmd := &cobra.Command{
		Use:   "register <plugin-id>",
		Short: "Register a plugin under a unique ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.pluginRegistry()
			if err != nil {
				return err
			}

			entry := settings.PluginEntry{
				ID:          args[0],
				Name:        name,
				Version:     version,
				Entrypoint:  entrypoint,
				Path:        path,
				InstalledAt: time.Now().UTC().Format(time.RFC3339),
				Description: description,
			}
			if metadata != "" {
				if err := json.Unmarshal([]byte(metadata), &entry.Metadata); err != nil {
					return fmt.Errorf("parse --metadata: %w", err)
				}
			}

			if err := registry.Register(entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered plugin %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (defaults to the plugin ID)")
	cmd.Flags().StringVar(&version, "version", "", "Plugin version string")
	cmd.Flags().StringVar(&entrypoint, "entrypoint", "", "Plugin entrypoint")
	cmd.Flags().StringVar(&path, "path", "", "Installation path")
	cmd.Flags().StringVar(&description, "description", "", "Short description")
	cmd.Flags().StringVar(&metadata, "metadata", "", "Arbitrary metadata as a JSON object")
	return cmd
}

func newPluginsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <plugin-id>",
		Short: "Remove a registered plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.pluginRegistry()
			if err != nil {
				return err
			}
			if err := registry.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed plugin %s\n", args[0])
			return nil
		},
	}
}
