package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"warpmc/internal/settings"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and update runtime settings",
	}

	settingsCmd.AddCommand(newSettingsShowCommand(ctx))
	settingsCmd.AddCommand(newSettingsUpdateCommand(ctx))
	settingsCmd.AddCommand(newSettingsPathsCommand(ctx))
	settingsCmd.AddCommand(newSettingsPluginsCommand(ctx))

	return settingsCmd
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	var reload bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			current, err := store.Load(reload)
			if err != nil {
				return err
			}
			return writeJSON(cmd, current)
		},
	}

	cmd.Flags().BoolVar(&reload, "reload", false, "Re-read the settings document before printing")
	return cmd
}

func newSettingsUpdateCommand(ctx *commandContext) *cobra.Command {
	var (
		appName     string
		environment string
		logLevel    string
		taskWorkers int
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update one or more settings fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureSettings()
			if err != nil {
				return err
			}

			var partial settings.Partial
			changed := false
			if cmd.Flags().Changed("app-name") {
				partial.AppName = &appName
				changed = true
			}
			if cmd.Flags().Changed("environment") {
				partial.Environment = &environment
				changed = true
			}
			if cmd.Flags().Changed("log-level") {
				partial.LogLevel = &logLevel
				changed = true
			}
			if cmd.Flags().Changed("task-workers") {
				partial.TaskWorkers = &taskWorkers
				changed = true
			}
			if !changed {
				return fmt.Errorf("no settings flags provided; see --help for the available fields")
			}

			updated, err := store.Update(partial)
			if err != nil {
				return err
			}
			return writeJSON(cmd, updated)
		},
	}

	cmd.Flags().StringVar(&appName, "app-name", "", "Application display name")
	cmd.Flags().StringVar(&environment, "environment", "", "Deployment environment label")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().IntVar(&taskWorkers, "task-workers", 0, "Background task worker count")
	return cmd
}

func newSettingsPathsCommand(ctx *commandContext) *cobra.Command {
	pathsCmd := &cobra.Command{
		Use:   "paths",
		Short: "Manage library root directories",
	}

	pathsCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the configured library roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			current, err := store.Load(true)
			if err != nil {
				return err
			}
			return writeJSON(cmd, current.LibraryPaths)
		},
	})

	pathsCmd.AddCommand(&cobra.Command{
		Use:   "set <kind> <path>",
		Short: "Set the library root for movies or shows",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			updated, err := store.SetLibraryPath(args[0], args[1])
			if err != nil {
				return err
			}
			kind, _ := settings.NormalizeMediaKind(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s library set to %s\n", kind, updated.LibraryPaths.Get(kind))
			return nil
		},
	})

	return pathsCmd
}

func newSettingsPluginsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the installed plugins recorded in settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureSettings()
			if err != nil {
				return err
			}
			entries, err := store.ListPlugins()
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

func renderPluginTable(cmd *cobra.Command, entries []settings.PluginEntry) error {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No plugins installed")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{entry.ID, entry.Name, entry.Version, entry.Entrypoint, entry.InstalledAt})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"ID", "Name", "Version", "Entrypoint", "Installed"},
		rows,
		nil,
	))
	return nil
}
