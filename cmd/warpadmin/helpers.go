package main

import (
	"warpmc/internal/providers"
)

// redactService blanks credential material before it reaches stdout. The
// operator already has the source document; the CLI never needs to echo
// secrets back.
func redactService(service providers.ServiceConfig) providers.ServiceConfig {
	service.APIKey = redactSecret(service.APIKey)
	service.ClientSecret = redactSecret(service.ClientSecret)
	return service
}

func redactSecret(value string) string {
	if value == "" {
		return ""
	}
	return "<redacted>"
}
