package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"warpmc/internal/store"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the embedded catalog database",
	}

	cacheCmd.AddCommand(newCacheInfoCommand(ctx))
	cacheCmd.AddCommand(newCacheMigrateCommand(ctx))
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheVacuumCommand(ctx))
	cacheCmd.AddCommand(newCacheWidgetsCommand(ctx))

	return cacheCmd
}

// withStore opens the database, runs fn, and closes it again. Admin commands
// are one-shot; nothing holds the connection across invocations.
func (c *commandContext) withStore(fn func(*store.Store) error) error {
	resolver, err := c.ensureResolver()
	if err != nil {
		return err
	}
	s, err := store.Open(resolver, store.WithLogger(c.ensureLogger()))
	if err != nil {
		return err
	}
	defer func() {
		_ = s.Close()
	}()
	return fn(s)
}

func newCacheInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print database location, size, and timestamps",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				info, err := s.Info(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Path:     %s\n", info.Path)
				fmt.Fprintf(out, "Size:     %s\n", humanize.Bytes(uint64(info.SizeBytes)))
				if !info.CreatedAt.IsZero() {
					fmt.Fprintf(out, "Created:  %s (%s)\n", info.CreatedAt.Format(time.RFC3339), humanize.Time(info.CreatedAt))
				}
				fmt.Fprintf(out, "Modified: %s (%s)\n", info.ModifiedAt.Format(time.RFC3339), humanize.Time(info.ModifiedAt))
				return nil
			})
		},
	}
}

func newCacheMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Bring the database schema up to date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				// Open already migrates; running it again proves idempotence
				// and surfaces any ledger problem explicitly.
				if err := s.Migrate(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
				return nil
			})
		},
	}
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print per-table row counts and page usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				stats, err := s.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, stats)
				}

				tables := make([]string, 0, len(stats.Tables))
				for name := range stats.Tables {
					tables = append(tables, name)
				}
				sort.Strings(tables)
				rows := make([][]string, 0, len(tables))
				for _, name := range tables {
					rows = append(rows, []string{name, strconv.FormatInt(stats.Tables[name], 10)})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"Table", "Rows"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				fmt.Fprintf(out, "Pages: %d x %s (%d free)\n",
					stats.PageCount,
					humanize.Bytes(uint64(stats.PageSize)),
					stats.FreelistCount)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newCacheVacuumCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "vacuum",
		Short: "Rebuild the database file to reclaim free pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				if err := s.Vacuum(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Vacuum completed")
				return nil
			})
		},
	}
}

func newCacheWidgetsCommand(ctx *commandContext) *cobra.Command {
	widgetsCmd := &cobra.Command{
		Use:   "widgets",
		Short: "Inspect the cached catalog widgets",
	}

	widgetsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached widgets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				widgets, err := s.WidgetList(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(widgets))
				for _, widget := range widgets {
					rows = append(rows, []string{
						widget.Key,
						humanize.Bytes(uint64(len(widget.Payload))),
						humanize.Time(widget.UpdatedAt),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out,
					[]string{"Key", "Payload", "Updated"},
					rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	})

	widgetsCmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one widget including its payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				widget, err := s.WidgetGet(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, widget)
			})
		},
	})

	widgetsCmd.AddCommand(&cobra.Command{
		Use:   "clear <key>",
		Short: "Remove one cached widget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(s *store.Store) error {
				if err := s.WidgetClear(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared widget %s\n", args[0])
				return nil
			})
		},
	})

	return widgetsCmd
}
