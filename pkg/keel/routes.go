package keel

import (
	"fmt"
	"net/http"
	"reflect"
	"runtime"
	"strings"
	"unicode"
)

var requestContextType = reflect.TypeOf((*RequestContext)(nil)).Elem()

// routeDef is a single route declaration before it is bound to a module
type routeDef struct {
	spec       string
	handler    any
	name       string
	middleware []MiddlewareFunc
	guards     []Guard
	versions   []string
}

// RouteOption configures a single route
type RouteOption func(*routeDef)

// Named sets the name used to reverse the route with url_for
func Named(name string) RouteOption {
	return func(r *routeDef) {
		r.name = name
	}
}

// WithMiddleware applies middleware to a single route
func WithMiddleware(middlewares ...MiddlewareFunc) RouteOption {
	return func(r *routeDef) {
		r.middleware = append(r.middleware, middlewares...)
	}
}

// Routes collects route declarations for a controller or router.
//
// A handler is either a HandlerFunc, a func(RequestContext) error, or a function
// func(RequestContext, deps...) (T, error). Any T is written as JSON with status
// 200 unless it is a *Response; a nil T with a nil error writes 204.
type Routes struct {
	defs []*routeDef
}

// Handle declares a route from a declaration string such as "GET,POST /items/{id:int}"
func (r *Routes) Handle(spec string, handler any, opts ...RouteOption) *Routes {
	def := &routeDef{spec: spec, handler: handler}
	for _, opt := range opts {
		opt(def)
	}
	r.defs = append(r.defs, def)
	return r
}

// Get declares a GET route
func (r *Routes) Get(path string, handler any, opts ...RouteOption) *Routes {
	return r.Handle(http.MethodGet+" "+path, handler, opts...)
}

// Post declares a POST route
func (r *Routes) Post(path string, handler any, opts ...RouteOption) *Routes {
	return r.Handle(http.MethodPost+" "+path, handler, opts...)
}

// Put declares a PUT route
func (r *Routes) Put(path string, handler any, opts ...RouteOption) *Routes {
	return r.Handle(http.MethodPut+" "+path, handler, opts...)
}

// Patch declares a PATCH route
func (r *Routes) Patch(path string, handler any, opts ...RouteOption) *Routes {
	return r.Handle(http.MethodPatch+" "+path, handler, opts...)
}

// Delete declares a DELETE route
func (r *Routes) Delete(path string, handler any, opts ...RouteOption) *Routes {
	return r.Handle(http.MethodDelete+" "+path, handler, opts...)
}

// Head declares a HEAD route
func (r *Routes) Head(path string, handler any, opts ...RouteOption) *Routes {
	return r.Handle(http.MethodHead+" "+path, handler, opts...)
}

// Options declares an OPTIONS route
func (r *Routes) Options(path string, handler any, opts ...RouteOption) *Routes {
	return r.Handle(http.MethodOptions+" "+path, handler, opts...)
}

// Len returns the number of declared routes
func (r *Routes) Len() int {
	return len(r.defs)
}

// mountConfig holds the options shared by controllers and routers
type mountConfig struct {
	name       string
	tags       []string
	middleware []MiddlewareFunc
	guards     []Guard
	versions   []string
}

// MountOption configures a controller or router
type MountOption func(*mountConfig)

// WithName sets the owner name used as the route name prefix ("items:list")
func WithName(name string) MountOption {
	return func(c *mountConfig) {
		c.name = name
	}
}

// WithTag adds descriptive tags shown in the route table
func WithTag(tags ...string) MountOption {
	return func(c *mountConfig) {
		c.tags = append(c.tags, tags...)
	}
}

// WithGroupMiddleware applies middleware to every route of a controller or router
func WithGroupMiddleware(middlewares ...MiddlewareFunc) MountOption {
	return func(c *mountConfig) {
		c.middleware = append(c.middleware, middlewares...)
	}
}

// handlerName derives a route name from the handler function ("List" for (*ItemsController).List-fm)
func handlerName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	// closures are named func1, func2...
	if strings.HasPrefix(name, "func") && strings.TrimLeftFunc(name[4:], unicode.IsDigit) == "" {
		return ""
	}
	return snakeCase(name)
}

// snakeCase converts "GetItem" to "get_item"
func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ownerName derives a controller name from its type: *ItemsController -> "items"
func ownerName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := strings.TrimSuffix(t.Name(), "Controller")
	if name == "" {
		name = t.Name()
	}
	return snakeCase(name)
}

// adaptHandler turns a route handler into a HandlerFunc given its resolved dependencies
func adaptHandler(inj *injectable, deps []reflect.Value) HandlerFunc {
	return func(rc RequestContext) error {
		out, err := inj.call([]reflect.Value{reflect.ValueOf(rc)}, deps)
		if err != nil {
			return err
		}
		if len(out) == 0 {
			return nil
		}
		return writeResult(rc, out[0])
	}
}

// writeResult renders a handler's return value
func writeResult(rc RequestContext, v reflect.Value) error {
	if rc.Response().Written() {
		return nil
	}
	if isNilValue(v) {
		return Respond(rc, NoContent())
	}
	switch res := v.Interface().(type) {
	case *Response:
		return Respond(rc, res)
	case Response:
		return Respond(rc, &res)
	case string:
		return rc.Response().String(http.StatusOK, res)
	default:
		return rc.Response().JSON(http.StatusOK, res)
	}
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// newHandlerInjectable validates a route handler
func newHandlerInjectable(handler any) (*injectable, error) {
	switch h := handler.(type) {
	case HandlerFunc:
		handler = (func(RequestContext) error)(h)
	case nil:
		return nil, fmt.Errorf("%w: route handler is nil", ErrImproperConfiguration)
	}
	inj, err := newInjectable(handler, requestContextType)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid route handler: %v", ErrImproperConfiguration, err)
	}
	if inj.results > 1 {
		return nil, fmt.Errorf("%w: route handler %s returns more than one value", ErrImproperConfiguration, inj)
	}
	return inj, nil
}
