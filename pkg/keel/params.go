package keel

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/google/uuid"
)

// paramParsers check the value of a typed route parameter such as {id:int}
var paramParsers = map[string]func(string) error{
	"string": func(string) error { return nil },
	"int": func(v string) error {
		_, err := strconv.Atoi(v)
		return err
	},
	"float64": func(v string) error {
		_, err := strconv.ParseFloat(v, 64)
		return err
	},
	"float32": func(v string) error {
		_, err := strconv.ParseFloat(v, 32)
		return err
	},
	"uuid.UUID": func(v string) error {
		_, err := uuid.Parse(v)
		return err
	},
}

// paramAliases maps shorthand type names to their parser
var paramAliases = map[string]string{
	"uuid":   "uuid.UUID",
	"UUID":   "uuid.UUID",
	"float":  "float64",
	"double": "float64",
}

func resolveParamType(typ string) string {
	if actual, ok := paramAliases[typ]; ok {
		return actual
	}
	return typ
}

// IsParamType reports whether typ can be used in a route parameter. The empty
// type accepts any value.
func IsParamType(typ string) bool {
	if typ == "" {
		return true
	}
	_, ok := paramParsers[resolveParamType(typ)]
	return ok
}

// ParamTypes returns the accepted parameter type names, aliases included
func ParamTypes() []string {
	names := make([]string, 0, len(paramParsers)+len(paramAliases))
	for name := range paramParsers {
		names = append(names, name)
	}
	for alias := range paramAliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

type typedParam struct {
	name  string
	typ   string
	parse func(string) error
}

// paramTypeMiddleware rejects requests whose typed parameters do not parse
// with a 400. It returns nil for paths without typed parameters.
func paramTypeMiddleware(path RoutePath) MiddlewareFunc {
	var params []typedParam
	for _, part := range path.Parts() {
		if part.Type != ParameterPart || part.ParamType == "" || resolveParamType(part.ParamType) == "string" {
			continue
		}
		parse, ok := paramParsers[resolveParamType(part.ParamType)]
		if !ok {
			continue
		}
		params = append(params, typedParam{name: part.Value, typ: part.ParamType, parse: parse})
	}
	if len(params) == 0 {
		return nil
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(rc RequestContext) error {
			for _, p := range params {
				if err := p.parse(rc.Param(p.name)); err != nil {
					return NewHttpErrorWithDetails(http.StatusBadRequest,
						"invalid path parameter "+strconv.Quote(p.name),
						map[string]string{"param": p.name, "expected": p.typ}).WithInternal(err)
				}
			}
			return next(rc)
		}
	}
}
