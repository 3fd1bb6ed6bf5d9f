package keel

import (
	"fmt"
	"strings"
)

// Versioning schemes accepted by Config.Versioning
const (
	VersioningNone   = ""
	VersioningURL    = "url"
	VersioningHeader = "header"
	VersioningQuery  = "query"
)

// Default version keys for the header and query schemes
const (
	DefaultVersionHeader = "Accept-Version"
	DefaultVersionQuery  = "version"
)

// WithVersion limits a route to the given API versions
func WithVersion(versions ...string) RouteOption {
	return func(r *routeDef) {
		r.versions = append(r.versions, versions...)
	}
}

// WithGroupVersion sets the API versions of every route of a controller or
// router. A route's own WithVersion takes precedence.
func WithGroupVersion(versions ...string) MountOption {
	return func(c *mountConfig) {
		c.versions = append(c.versions, versions...)
	}
}

// normalizeVersion turns "v2", "V2" and " 2 " into "2"
func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if len(v) > 1 && (v[0] == 'v' || v[0] == 'V') {
		v = v[1:]
	}
	return v
}

// versioning reads the requested version the way Config asks for
type versioning struct {
	scheme   string
	key      string
	fallback string
}

func newVersioning(cfg *Config) versioning {
	v := versioning{scheme: cfg.Versioning, key: cfg.VersionKey, fallback: normalizeVersion(cfg.DefaultVersion)}
	if v.key == "" {
		switch v.scheme {
		case VersioningHeader:
			v.key = DefaultVersionHeader
		case VersioningQuery:
			v.key = DefaultVersionQuery
		}
	}
	return v
}

func validVersioningScheme(scheme string) bool {
	switch scheme {
	case VersioningNone, VersioningURL, VersioningHeader, VersioningQuery:
		return true
	}
	return false
}

// dispatches reports whether one registered path serves several versions
func (v versioning) dispatches() bool {
	return v.scheme == VersioningHeader || v.scheme == VersioningQuery
}

// routeVersions resolves the versions of a declared route
func (v versioning) routeVersions(group, route []string) ([]string, error) {
	declared := route
	if len(declared) == 0 {
		declared = group
	}
	if len(declared) == 0 {
		return []string{""}, nil
	}
	if v.scheme == VersioningNone {
		return nil, fmt.Errorf("%w: route declares versions %v but Config.Versioning is off", ErrImproperConfiguration, declared)
	}
	out := make([]string, 0, len(declared))
	seen := make(map[string]bool)
	for _, raw := range declared {
		version := normalizeVersion(raw)
		if version == "" {
			return nil, fmt.Errorf("%w: empty route version", ErrImproperConfiguration)
		}
		if !seen[version] {
			seen[version] = true
			out = append(out, version)
		}
	}
	return out, nil
}

// path returns where a route of the given version is mounted
func (v versioning) path(path, version string) string {
	if v.scheme == VersioningURL && version != "" {
		return JoinPaths("/v"+version, path)
	}
	return path
}

// requested returns the version a request asks for, or the default version
func (v versioning) requested(rc RequestContext) string {
	var raw string
	switch v.scheme {
	case VersioningHeader:
		raw = rc.Request().Header(v.key)
	case VersioningQuery:
		raw = rc.QueryParam(v.key)
	}
	if version := normalizeVersion(raw); version != "" {
		return version
	}
	return v.fallback
}

// versionedHandler is one version of a route sharing its method and path
type versionedHandler struct {
	version string
	handler HandlerFunc
}

// dispatch picks the handler matching the requested version, then a version
// neutral one; otherwise it answers 404.
func (v versioning) dispatch(handlers []versionedHandler) HandlerFunc {
	return func(rc RequestContext) error {
		want := v.requested(rc)
		var neutral HandlerFunc
		for _, h := range handlers {
			if h.version == want && want != "" {
				return h.handler(rc)
			}
			if h.version == "" && neutral == nil {
				neutral = h.handler
			}
		}
		if neutral != nil {
			return neutral(rc)
		}
		if want == "" {
			return ErrNotFound("no API version requested")
		}
		return ErrNotFound(fmt.Sprintf("API version %s not found", want))
	}
}

// RequestVersion returns the API version serving the request: the version of
// the matched route, else the version the request asked for.
func RequestVersion(rc RequestContext) string {
	if route, ok := CurrentRoute(rc); ok && route.Version != "" {
		return route.Version
	}
	app, err := AppFromRequest(rc)
	if err != nil {
		return ""
	}
	return app.versioning.requested(rc)
}
