package main

import (
	"errors"

	"github.com/spf13/cobra"

	"warpmc/internal/faults"
)

type endpointReport struct {
	Service     string `json:"service"`
	Endpoint    string `json:"endpoint"`
	Method      string `json:"method"`
	URL         string `json:"url"`
	BearerToken bool   `json:"bearer_token"`
}

func newEndpointsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints <service> <endpoint>",
		Short: "Resolve an endpoint to its method and URL",
		Long: "Resolve resolves a service endpoint the way the HTTP client would: " +
			"method and full URL from the provider document, plus whether a valid " +
			"bearer token would be attached. The token itself is never printed.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.ensureProviders()
			if err != nil {
				return err
			}
			method, url, err := registry.ResolveEndpoint(args[0], args[1])
			if err != nil {
				return err
			}

			report := endpointReport{
				Service:  args[0],
				Endpoint: args[1],
				Method:   method,
				URL:      url,
			}
			if args[0] == "trakt" {
				manager, err := ctx.ensureManager()
				if err != nil {
					return err
				}
				if _, err := manager.AccessToken(); err == nil {
					report.BearerToken = true
				} else if !errors.Is(err, faults.ErrNotFound) && !errors.Is(err, faults.ErrSessionExpired) {
					return err
				}
			}
			return writeJSON(cmd, report)
		},
	}
}
