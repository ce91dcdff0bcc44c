// Package providers loads the per-service configuration document: REST
// endpoint templates, pipelines, curated content lists, public-domain
// sources, and the shared proxy block. The document is operator-edited;
// the registry reads, validates, and caches it, and supports targeted reload
// without restarting the process.
package providers

import (
	"errors"
	"log/slog"
	"sort"
	"strings"

	"warpmc/internal/faults"
	"warpmc/internal/fileutil"
	"warpmc/internal/logging"
	"warpmc/internal/paths"
)

// Registry caches the provider document for one invocation.
type Registry struct {
	providersPath string
	proxyPath     string
	logger        *slog.Logger

	loaded bool
	doc    Document
	issues []Issue

	pipelineIssues    map[string]bool
	contentListIssues map[string]bool
}

// Option customises registry construction.
type Option func(*Registry)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logging.NewComponentLogger(logger, "providers")
	}
}

// NewRegistry builds a registry reading from the resolver's provider and
// proxy paths.
func NewRegistry(resolver *paths.Resolver, opts ...Option) (*Registry, error) {
	providersPath, err := resolver.Resolve(paths.KeyProviders)
	if err != nil {
		return nil, err
	}
	proxyPath, err := resolver.Resolve(paths.KeyProxy)
	if err != nil {
		return nil, err
	}
	r := &Registry{
		providersPath: providersPath,
		proxyPath:     proxyPath,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Load returns the cached document, reading it on first use.
func (r *Registry) Load() (Document, error) {
	if r.loaded {
		return r.doc, nil
	}
	return r.Reload()
}

// Reload discards the cache, re-reads both documents, and re-validates
// internal references. Entries with dangling references remain in the
// document and are reported through Issues; they are not silently dropped.
func (r *Registry) Reload() (Document, error) {
	doc := Document{}
	err := fileutil.ReadJSON(r.providersPath, &doc)
	switch {
	case err == nil, errors.Is(err, fileutil.ErrAbsent):
	default:
		return Document{}, faults.Wrap(faults.ErrCorruptConfig, "providers", "reload", r.providersPath, err)
	}

	expandSecrets(&doc)

	proxy, err := r.readProxy()
	if err != nil {
		return Document{}, err
	}
	doc.Proxy = proxy

	r.doc = doc
	r.validate()
	r.loaded = true

	for _, issue := range r.issues {
		r.logger.Warn("dangling reference in provider settings", logging.Args(
			logging.String("kind", issue.Kind),
			logging.String("name", issue.Name),
			logging.String("ref", issue.Ref),
		)...)
	}
	return r.doc, nil
}

// ReloadProxy re-reads only the proxy block, leaving service, pipeline, and
// content-list caches intact. Used when only network egress settings changed.
func (r *Registry) ReloadProxy() (ProxyConfig, error) {
	if _, err := r.Load(); err != nil {
		return ProxyConfig{}, err
	}
	proxy, err := r.readProxy()
	if err != nil {
		return ProxyConfig{}, err
	}
	r.doc.Proxy = proxy
	return proxy, nil
}

// Issues reports the dangling references found during the last load.
func (r *Registry) Issues() []Issue {
	out := make([]Issue, len(r.issues))
	copy(out, r.issues)
	return out
}

// Service returns the configuration block for a named service.
func (r *Registry) Service(name string) (ServiceConfig, error) {
	doc, err := r.Load()
	if err != nil {
		return ServiceConfig{}, err
	}
	svc, ok := doc.Services[name]
	if !ok {
		return ServiceConfig{}, faults.Wrap(faults.ErrNotFound, "providers", "service", name, nil)
	}
	return svc, nil
}

// ListServices returns the configured service names in lexical order.
func (r *Registry) ListServices() ([]string, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}
	return sortedKeys(doc.Services), nil
}

// Endpoints returns the endpoint templates of a service.
func (r *Registry) Endpoints(service string) (map[string]EndpointSpec, error) {
	svc, err := r.Service(service)
	if err != nil {
		return nil, err
	}
	out := make(map[string]EndpointSpec, len(svc.Endpoints))
	for name, spec := range svc.Endpoints {
		out[name] = spec
	}
	return out, nil
}

// ResolveEndpoint joins a service's base URL with a named endpoint template.
// This is the boundary operation handed to HTTP API clients; the registry
// never constructs downstream payloads.
func (r *Registry) ResolveEndpoint(service, endpoint string) (method, url string, err error) {
	svc, err := r.Service(service)
	if err != nil {
		return "", "", err
	}
	spec, ok := svc.Endpoints[endpoint]
	if !ok {
		return "", "", faults.Wrap(faults.ErrNotFound, "providers", "endpoint", service+"/"+endpoint, nil)
	}
	base := strings.TrimRight(svc.BaseURL, "/")
	path := "/" + strings.TrimLeft(spec.Path, "/")
	return spec.Method, base + path, nil
}

// Pipeline returns a named pipeline. Pipelines flagged with dangling
// references fail with ErrDanglingReference rather than a lookup miss.
func (r *Registry) Pipeline(name string) (PipelineSpec, error) {
	doc, err := r.Load()
	if err != nil {
		return PipelineSpec{}, err
	}
	spec, ok := doc.Pipelines[name]
	if !ok {
		return PipelineSpec{}, faults.Wrap(faults.ErrNotFound, "providers", "pipeline", name, nil)
	}
	if r.pipelineIssues[name] {
		return PipelineSpec{}, faults.Wrap(faults.ErrDanglingReference, "providers", "pipeline", name, nil)
	}
	return spec, nil
}

// ListPipelines returns pipeline names in lexical order, including flagged ones.
func (r *Registry) ListPipelines() ([]string, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}
	return sortedKeys(doc.Pipelines), nil
}

// ContentList returns a curated list definition by key.
func (r *Registry) ContentList(key string) (ContentListSpec, error) {
	doc, err := r.Load()
	if err != nil {
		return ContentListSpec{}, err
	}
	spec, ok := doc.ContentLists[key]
	if !ok {
		return ContentListSpec{}, faults.Wrap(faults.ErrNotFound, "providers", "content list", key, nil)
	}
	if r.contentListIssues[key] {
		return ContentListSpec{}, faults.Wrap(faults.ErrDanglingReference, "providers", "content list", key, nil)
	}
	return spec, nil
}

// ListContentLists returns content list keys in lexical order.
func (r *Registry) ListContentLists() ([]string, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}
	return sortedKeys(doc.ContentLists), nil
}

// PublicDomainSource returns one source with base URL and headers layered
// over the public_domain service block when present.
func (r *Registry) PublicDomainSource(name string) (PublicDomainSource, error) {
	doc, err := r.Load()
	if err != nil {
		return PublicDomainSource{}, err
	}
	src, ok := doc.PublicDomainSources[name]
	if !ok {
		return PublicDomainSource{}, faults.Wrap(faults.ErrNotFound, "providers", "public domain source", name, nil)
	}
	return r.mergedPublicDomainSource(src), nil
}

// ListPublicDomainSources returns source names in lexical order.
func (r *Registry) ListPublicDomainSources() ([]string, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}
	return sortedKeys(doc.PublicDomainSources), nil
}

// Proxy returns the shared proxy configuration block.
func (r *Registry) Proxy() (ProxyConfig, error) {
	doc, err := r.Load()
	if err != nil {
		return ProxyConfig{}, err
	}
	return doc.Proxy, nil
}

func (r *Registry) readProxy() (ProxyConfig, error) {
	proxy := ProxyConfig{}
	err := fileutil.ReadJSON(r.proxyPath, &proxy)
	switch {
	case err == nil, errors.Is(err, fileutil.ErrAbsent):
		return proxy, nil
	default:
		return ProxyConfig{}, faults.Wrap(faults.ErrCorruptConfig, "providers", "reload proxy", r.proxyPath, err)
	}
}

func (r *Registry) mergedPublicDomainSource(src PublicDomainSource) PublicDomainSource {
	base, ok := r.doc.Services["public_domain"]
	if !ok {
		return src
	}
	if src.BaseURL == "" {
		src.BaseURL = base.BaseURL
	}
	if len(base.DefaultHeaders) > 0 {
		headers := make(map[string]string, len(base.DefaultHeaders)+len(src.Headers))
		for k, v := range base.DefaultHeaders {
			headers[k] = v
		}
		for k, v := range src.Headers {
			headers[k] = v
		}
		src.Headers = headers
	}
	return src
}

func expandSecrets(doc *Document) {
	for name, svc := range doc.Services {
		svc.APIKey = fileutil.ExpandEnv(svc.APIKey)
		svc.ClientID = fileutil.ExpandEnv(svc.ClientID)
		svc.ClientSecret = fileutil.ExpandEnv(svc.ClientSecret)
		svc.DefaultHeaders = fileutil.ExpandEnvMap(svc.DefaultHeaders)
		doc.Services[name] = svc
	}
	for name, src := range doc.PublicDomainSources {
		src.Headers = fileutil.ExpandEnvMap(src.Headers)
		doc.PublicDomainSources[name] = src
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validate resolves every by-name reference once at load time and records
// failures as issues instead of runtime lookup misses.
func (r *Registry) validate() {
	r.issues = nil
	r.pipelineIssues = map[string]bool{}
	r.contentListIssues = map[string]bool{}

	for name, spec := range r.doc.Pipelines {
		for _, step := range spec.Steps {
			svc, ok := r.doc.Services[step.Service]
			if !ok {
				r.flag("pipeline", name, step.Service, "step references unknown service")
				r.pipelineIssues[name] = true
				continue
			}
			if step.Endpoint != "" {
				if _, ok := svc.Endpoints[step.Endpoint]; !ok {
					r.flag("pipeline", name, step.Service+"/"+step.Endpoint, "step references unknown endpoint")
					r.pipelineIssues[name] = true
				}
			}
		}
		for _, src := range spec.PublicDomainSources {
			if _, ok := r.doc.PublicDomainSources[src]; !ok {
				r.flag("pipeline", name, src, "references unknown public domain source")
				r.pipelineIssues[name] = true
			}
		}
	}

	for key, spec := range r.doc.ContentLists {
		if _, ok := r.doc.Services[spec.Service]; !ok {
			r.flag("content_list", key, spec.Service, "references unknown service")
			r.contentListIssues[key] = true
		}
	}
}

func (r *Registry) flag(kind, name, ref, detail string) {
	r.issues = append(r.issues, Issue{Kind: kind, Name: name, Ref: ref, Detail: detail})
}
