package providers

// EndpointSpec names one REST endpoint template of a service.
type EndpointSpec struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// RateLimit bounds request volume against a service.
type RateLimit struct {
	Requests      int `json:"requests"`
	WindowSeconds int `json:"window_seconds"`
}

// ServiceConfig describes one upstream catalog/search service.
type ServiceConfig struct {
	BaseURL        string                  `json:"base_url"`
	APIKey         string                  `json:"api_key,omitempty"`
	ClientID       string                  `json:"client_id,omitempty"`
	ClientSecret   string                  `json:"client_secret,omitempty"`
	DefaultHeaders map[string]string       `json:"default_headers,omitempty"`
	RateLimits     *RateLimit              `json:"rate_limits,omitempty"`
	Endpoints      map[string]EndpointSpec `json:"endpoints,omitempty"`
}

// PipelineStep references an endpoint of a service by name.
type PipelineStep struct {
	Service  string `json:"service"`
	Endpoint string `json:"endpoint"`
}

// PipelineSpec is an ordered list of steps plus optional public-domain source
// references used by catalog assembly.
type PipelineSpec struct {
	Description         string         `json:"description,omitempty"`
	Steps               []PipelineStep `json:"steps"`
	PublicDomainSources []string       `json:"public_domain_sources,omitempty"`
}

// ContentListSpec describes a curated list sourced from one service.
type ContentListSpec struct {
	Service string            `json:"service"`
	List    string            `json:"list,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
}

// PublicDomainSource describes a freely redistributable catalog source.
type PublicDomainSource struct {
	BaseURL       string            `json:"base_url,omitempty"`
	DefaultParams map[string]string `json:"default_params,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
}

// ProxyRotation controls proxy stickiness and rotation.
type ProxyRotation struct {
	StickinessSeconds       int `json:"stickiness_seconds"`
	MaxFailuresBeforeRotate int `json:"max_failures_before_rotate"`
	DecayHalfLifeSeconds    int `json:"decay_half_life_seconds"`
}

// ProxyRetry controls retry backoff for proxied requests.
type ProxyRetry struct {
	MaxAttempts   int `json:"max_attempts"`
	BaseBackoffMS int `json:"base_backoff_ms"`
	MaxBackoffMS  int `json:"max_backoff_ms"`
	JitterMS      int `json:"jitter_ms"`
}

// ProxyDomainOverride tunes proxy behavior for a single domain.
type ProxyDomainOverride struct {
	StickinessSeconds int `json:"stickiness_seconds,omitempty"`
}

// ProxyPool locates the proxy pool file.
type ProxyPool struct {
	Format string `json:"format,omitempty"`
	File   string `json:"file,omitempty"`
}

// ProxyConfig is the shared network egress block.
type ProxyConfig struct {
	Enabled  bool                           `json:"enabled"`
	Rotation ProxyRotation                  `json:"rotation"`
	Retry    ProxyRetry                     `json:"retry"`
	Domains  map[string]ProxyDomainOverride `json:"domains,omitempty"`
	Pool     ProxyPool                      `json:"pool,omitempty"`
}

// Document is the full provider settings file. It is operator-edited; this
// subsystem only ever reads it.
type Document struct {
	Services            map[string]ServiceConfig      `json:"services"`
	Pipelines           map[string]PipelineSpec       `json:"pipelines"`
	ContentLists        map[string]ContentListSpec    `json:"content_lists"`
	PublicDomainSources map[string]PublicDomainSource `json:"public_domain_sources"`
	Proxy               ProxyConfig                   `json:"proxy"`
}

// Issue records a dangling reference discovered at load time. The offending
// entry stays in the document so operators can inspect it; targeted getters
// refuse to hand it out.
type Issue struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Ref    string `json:"ref"`
	Detail string `json:"detail"`
}
