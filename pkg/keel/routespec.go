package keel

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// RouteSpec is a parsed route declaration such as "GET,HEAD /users/{id:int}"
type RouteSpec struct {
	Methods []string
	Path    RoutePath
}

// routeDecl is the participle grammar for route declarations
type routeDecl struct {
	Methods []string `parser:"@Method ( (',' | '|') @Method )*"`
	Path    string   `parser:"@Path?"`
}

var routeSpecParser = participle.MustBuild[routeDecl](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Method", Pattern: `[A-Za-z]+`},
		{Name: "Path", Pattern: `/[^\s]*`},
		{Name: "Punct", Pattern: `[,|]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})),
	participle.Elide("Whitespace"),
)

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
	http.MethodConnect: true,
}

// ParseRouteSpec parses "METHOD[,METHOD...] /path". A missing path means "/".
func ParseRouteSpec(spec string) (RouteSpec, error) {
	decl, err := routeSpecParser.ParseString("", strings.TrimSpace(spec))
	if err != nil {
		return RouteSpec{}, fmt.Errorf("%w %q: %v", ErrInvalidRouteSpec, spec, err)
	}

	out := RouteSpec{Path: RoutePath(decl.Path)}
	if out.Path == "" {
		out.Path = "/"
	}
	seen := make(map[string]bool)
	for _, m := range decl.Methods {
		m = strings.ToUpper(m)
		if !knownMethods[m] {
			return RouteSpec{}, fmt.Errorf("%w %q: unknown method %s", ErrInvalidRouteSpec, spec, m)
		}
		if !seen[m] {
			seen[m] = true
			out.Methods = append(out.Methods, m)
		}
	}
	if err := ValidateRoutePath(out.Path); err != nil {
		return RouteSpec{}, err
	}
	return out, nil
}

// ValidateRoutePath checks brace balance, parameter syntax and parameter types
func ValidateRoutePath(path RoutePath) error {
	raw := path.Raw()
	if strings.Count(raw, "{") != strings.Count(raw, "}") {
		return fmt.Errorf("%w: mismatched braces in path %s", ErrInvalidRouteSpec, raw)
	}
	seen := make(map[string]bool)
	for _, part := range path.Parts() {
		if part.Type != ParameterPart {
			continue
		}
		if part.Value == "" {
			return fmt.Errorf("%w: empty parameter name in path %s", ErrInvalidRouteSpec, raw)
		}
		if seen[part.Value] {
			return fmt.Errorf("%w: duplicate parameter %q in path %s", ErrInvalidRouteSpec, part.Value, raw)
		}
		seen[part.Value] = true
		if !IsParamType(part.ParamType) {
			return fmt.Errorf("%w: unknown type %q for parameter %q in path %s (use one of %s)",
				ErrInvalidRouteSpec, part.ParamType, part.Value, raw, strings.Join(ParamTypes(), ", "))
		}
	}
	return nil
}
