package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newProvidersCommand(ctx *commandContext) *cobra.Command {
	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect the provider catalog configuration",
	}

	providersCmd.AddCommand(newProvidersListCommand(ctx))
	providersCmd.AddCommand(newProvidersShowCommand(ctx))
	providersCmd.AddCommand(newProvidersEndpointsCommand(ctx))
	providersCmd.AddCommand(newProvidersPipelinesCommand(ctx))
	providersCmd.AddCommand(newProvidersContentListsCommand(ctx))
	providersCmd.AddCommand(newProvidersPublicDomainCommand(ctx))
	providersCmd.AddCommand(newProvidersProxyCommand(ctx))
	providersCmd.AddCommand(newProvidersReloadCommand(ctx))
	providersCmd.AddCommand(newProvidersReloadProxyCommand(ctx))

	return providersCmd
}

func newProvidersListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured services",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.ensureProviders()
			if err != nil {
				return err
			}
			names, err := registry.ListServices()
			if err != nil {
				return err
			}
			doc, err := registry.Load()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				service := doc.Services[name]
				rows = append(rows, []string{
					name,
					service.BaseURL,
					strconv.Itoa(len(service.Endpoints)),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"Service", "Base URL", "Endpoints"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}

func newProvidersShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <service>",
		Short: "Print one service's full configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.ensureProviders()
			if err != nil {
				return err
			}
			service, err := registry.Service(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, redactService(service))
		},
	}
}

func newProvidersEndpointsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints <service>",
		Short: "List a service's endpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.ensureProviders()
			if err != nil {
				return err
			}
			endpoints, err := registry.Endpoints(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, endpoints)
		},
	}
}

func newProvidersPipelinesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pipelines [name]",
		Short: "List pipelines, or show one by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.ensureProviders()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				pipeline, err := registry.Pipeline(args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, pipeline)
			}
			names, err := registry.ListPipelines()
			if err != nil {
				return err
			}
			return writeJSON(cmd, names)
		},
	}
}

func newProvidersContentListsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "content-lists [key]",
		Short: "List curated content lists, or show one by key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.ensureProviders()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				list, err := registry.ContentList(args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, list)
			}
			keys, err := registry.ListContentLists()
			if err != nil {
				return err
			}
			return writeJSON(cmd, keys)
		},
	}
}

func newProvidersPublicDomainCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "public-domain [key]",
		Short: "List public-domain sources, or show one merged with its base service",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.ensureProviders()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				source, err := registry.PublicDomainSource(args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, source)
			}
			names, err := registry.ListPublicDomainSources()
			if err != nil {
				return err
			}
			return writeJSON(cmd, names)
		},
	}
}

func newProvidersProxyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "proxy",
		Short: "Print the shared proxy configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.ensureProviders()
			if err != nil {
				return err
			}
			proxy, err := registry.Proxy()
			if err != nil {
				return err
			}
			return writeJSON(cmd, proxy)
		},
	}
}

func newProvidersReloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Re-read the provider document and report validation issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.ensureProviders()
			if err != nil {
				return err
			}
			if _, err := registry.Reload(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			issues := registry.Issues()
			if len(issues) == 0 {
				fmt.Fprintln(out, "Provider document reloaded; no issues")
				return nil
			}
			fmt.Fprintf(out, "Provider document reloaded with %d issue(s):\n", len(issues))
			return writeJSON(cmd, issues)
		},
	}
}

func newProvidersReloadProxyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reload-proxy",
		Short: "Re-read only the proxy configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.ensureProviders()
			if err != nil {
				return err
			}
			proxy, err := registry.ReloadProxy()
			if err != nil {
				return err
			}
			return writeJSON(cmd, proxy)
		},
	}
}
