package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configDirFlag string

	ctx := newCommandContext(&configDirFlag)

	rootCmd := &cobra.Command{
		Use:           "warpadmin",
		Short:         "Warp MediaCenter administration CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configDirFlag, "config-dir", "c", "", "Configuration directory (defaults to ~/.config/warpmc)")

	rootCmd.AddCommand(newSettingsCommand(ctx))
	rootCmd.AddCommand(newPathsCommand(ctx))
	rootCmd.AddCommand(newProvidersCommand(ctx))
	rootCmd.AddCommand(newPluginsCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))

	return rootCmd
}
