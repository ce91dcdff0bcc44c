package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configDirFlag string

	ctx := newCommandContext(&configDirFlag)

	rootCmd := &cobra.Command{
		Use:           "warpmedia",
		Short:         "Warp MediaCenter client CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configDirFlag, "config-dir", "c", "", "Configuration directory (defaults to ~/.config/warpmc)")

	rootCmd.AddCommand(newAuthCommand(ctx))
	rootCmd.AddCommand(newEndpointsCommand(ctx))

	return rootCmd
}
