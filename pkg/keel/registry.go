package keel

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"sync"
)

// RouteInfo contains metadata about a mounted route
type RouteInfo struct {
	// Method is the HTTP method (GET, POST, PUT, DELETE, etc.)
	Method string

	// Path is the full route path with parameter placeholders (e.g., "/users/{id:int}")
	Path RoutePath

	// Name is the url_for name, e.g. "items:show"
	Name string

	// Module is the module that declared the route
	Module string

	// Owner is the controller or router name
	Owner string

	// Tags are the descriptive tags of the owner
	Tags []string

	// Version is the API version the route serves, "" for every version
	Version string

	// ParameterTypes maps parameter names to their types (e.g., {"id": "int", "slug": ""})
	ParameterTypes map[string]string
}

// RouteRegistry provides access to every route mounted in an application
type RouteRegistry interface {
	// All returns routes in mount order
	All() []RouteInfo

	// ByModule returns routes declared by a module
	ByModule(module string) []RouteInfo

	// ByOwner returns routes of a controller or router
	ByOwner(owner string) []RouteInfo

	// ByMethod returns routes filtered by HTTP method
	ByMethod(method string) []RouteInfo

	// Lookup finds a route by name
	Lookup(name string) (RouteInfo, bool)

	// Register adds a route
	Register(route RouteInfo) error
}

// InMemoryRouteRegistry implements RouteRegistry using an in-memory slice
type InMemoryRouteRegistry struct {
	mu     sync.RWMutex
	routes []RouteInfo
	names  map[string]RoutePath
}

// NewInMemoryRouteRegistry creates a new in-memory route registry
func NewInMemoryRouteRegistry() *InMemoryRouteRegistry {
	return &InMemoryRouteRegistry{
		routes: make([]RouteInfo, 0),
		names:  make(map[string]RoutePath),
	}
}

// All returns all registered routes
func (r *InMemoryRouteRegistry) All() []RouteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.routes)
}

// ByModule returns routes filtered by module name
func (r *InMemoryRouteRegistry) ByModule(module string) []RouteInfo {
	return r.filter(func(ri RouteInfo) bool { return ri.Module == module })
}

// ByOwner returns routes filtered by controller or router name
func (r *InMemoryRouteRegistry) ByOwner(owner string) []RouteInfo {
	return r.filter(func(ri RouteInfo) bool { return ri.Owner == owner })
}

// ByMethod returns routes filtered by HTTP method
func (r *InMemoryRouteRegistry) ByMethod(method string) []RouteInfo {
	return r.filter(func(ri RouteInfo) bool { return ri.Method == method })
}

func (r *InMemoryRouteRegistry) filter(keep func(RouteInfo) bool) []RouteInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var filtered []RouteInfo
	for _, route := range r.routes {
		if keep(route) {
			filtered = append(filtered, route)
		}
	}
	return filtered
}

// Lookup returns the first route registered under name
func (r *InMemoryRouteRegistry) Lookup(name string) (RouteInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, route := range r.routes {
		if route.Name == name {
			return route, true
		}
	}
	return RouteInfo{}, false
}

// Register adds a route. A name may be shared by several methods of the same
// path, or by versions of a route, but not by two different paths of one version.
func (r *InMemoryRouteRegistry) Register(route RouteInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if route.Name != "" {
		key := route.Name + "@" + route.Version
		if existing, ok := r.names[key]; ok && existing != route.Path {
			return fmt.Errorf("%w: route name %q is used by %s and %s",
				ErrImproperConfiguration, route.Name, existing, route.Path)
		}
		r.names[key] = route.Path
	}
	if route.ParameterTypes == nil {
		route.ParameterTypes = route.Path.Params()
	}
	r.routes = append(r.routes, route)
	return nil
}

// ReverseRoute builds the URL of the named route. Values matching path
// parameters are substituted; the rest become the query string.
func ReverseRoute(registry RouteRegistry, name string, values map[string]string) (string, error) {
	route, ok := registry.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrRouteNotFound, name)
	}
	params := route.Path.Params()
	path, missing := route.Path.Build(values)
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: route %q needs parameters %v", ErrRouteNotFound, name, missing)
	}

	var extra []string
	for k := range values {
		if _, isParam := params[k]; !isParam && k != "*" {
			extra = append(extra, k)
		}
	}
	if len(extra) == 0 {
		return path, nil
	}
	sort.Strings(extra)
	q := url.Values{}
	for _, k := range extra {
		q.Set(k, values[k])
	}
	return path + "?" + q.Encode(), nil
}
