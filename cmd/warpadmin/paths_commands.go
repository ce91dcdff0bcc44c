package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPathsCommand(ctx *commandContext) *cobra.Command {
	pathsCmd := &cobra.Command{
		Use:   "paths",
		Short: "Inspect and override resolved filesystem locations",
	}

	pathsCmd.AddCommand(newPathsShowCommand(ctx))
	pathsCmd.AddCommand(newPathsSetCommand(ctx))
	pathsCmd.AddCommand(newPathsReloadCommand(ctx))

	return pathsCmd
}

func newPathsShowCommand(ctx *commandContext) *cobra.Command {
	var raw bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved path for every logical key",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := ctx.ensureResolver()
			if err != nil {
				return err
			}

			var values map[string]string
			if raw {
				values, err = resolver.Raw()
				if err != nil {
					return err
				}
			} else {
				values = resolver.All()
			}

			if asJSON {
				return writeJSON(cmd, values)
			}

			rows := make([][]string, 0, len(values))
			for _, key := range resolver.SortedKeys() {
				if value, ok := values[key]; ok {
					rows = append(rows, []string{key, value})
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Key", "Path"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Show only the override entries as written, unexpanded")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newPathsSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a path override for a logical key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := ctx.ensureResolver()
			if err != nil {
				return err
			}
			if err := resolver.Set(args[0], args[1]); err != nil {
				return err
			}
			resolved, err := resolver.Resolve(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", args[0], resolved)
			return nil
		},
	}
}

func newPathsReloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Re-read the override document and print the resolved paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := ctx.ensureResolver()
			if err != nil {
				return err
			}
			values, err := resolver.Reload()
			if err != nil {
				return err
			}
			return writeJSON(cmd, values)
		},
	}
}
