package keel

import (
	"strings"
)

// RoutePathPartType represents the type of path part
type RoutePathPartType int

const (
	StaticPart RoutePathPartType = iota
	ParameterPart
	WildcardPart
)

// RoutePathPart represents a single part of a route path
type RoutePathPart struct {
	Type      RoutePathPartType
	Value     string // For static parts: the literal text, for parameters: the parameter name
	ParamType string // For parameters: the type (e.g., "int", "string"), empty for untyped
}

// RoutePath is a path in keel format ("/users/{id:int}/{*}") and provides parsed parts
type RoutePath string

// NewRoutePath creates a new RoutePath from a string
func NewRoutePath(path string) RoutePath {
	return RoutePath(path)
}

// Raw returns the original path
func (p RoutePath) Raw() string {
	return string(p)
}

// Parts parses the path and returns the individual parts
func (p RoutePath) Parts() []RoutePathPart {
	path := string(p)
	var parts []RoutePathPart

	i := 0
	for i < len(path) {
		if path[i] != '{' {
			start := i
			for i < len(path) && path[i] != '{' {
				i++
			}
			parts = append(parts, RoutePathPart{Type: StaticPart, Value: path[start:i]})
			continue
		}

		j := strings.IndexByte(path[i:], '}')
		if j == -1 {
			// Malformed, keep the rest as static text
			parts = append(parts, RoutePathPart{Type: StaticPart, Value: path[i:]})
			break
		}
		content := path[i+1 : i+j]
		i += j + 1

		if content == "*" {
			parts = append(parts, RoutePathPart{Type: WildcardPart, Value: "*"})
			continue
		}

		name, typ, _ := strings.Cut(content, ":")
		parts = append(parts, RoutePathPart{Type: ParameterPart, Value: name, ParamType: typ})
	}

	return parts
}

// Params returns parameter names mapped to their declared types
func (p RoutePath) Params() map[string]string {
	params := make(map[string]string)
	for _, part := range p.Parts() {
		if part.Type == ParameterPart {
			params[part.Value] = part.ParamType
		}
	}
	return params
}

// Build substitutes parameter values into the path. Missing parameters are
// reported by name in the returned slice.
func (p RoutePath) Build(values map[string]string) (string, []string) {
	var b strings.Builder
	var missing []string
	for _, part := range p.Parts() {
		switch part.Type {
		case StaticPart:
			b.WriteString(part.Value)
		case ParameterPart:
			v, ok := values[part.Value]
			if !ok {
				missing = append(missing, part.Value)
			}
			b.WriteString(v)
		case WildcardPart:
			b.WriteString(values["*"])
		}
	}
	return b.String(), missing
}

// JoinPaths joins a group prefix and a route path, keeping a single slash between them.
func JoinPaths(prefix, path string) string {
	prefix = strings.TrimRight(prefix, "/")
	if path == "" || path == "/" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return prefix + path
}
