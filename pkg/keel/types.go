package keel

import (
	"context"
	"net/http"
	"time"
)

// WebServerInterface defines the contract for web server implementations.
// keel registers every route with its complete middleware chain, so adapters
// need no group or global middleware support.
type WebServerInterface interface {
	// Route registration
	RegisterRoute(method string, path RoutePath, handler HandlerFunc, middlewares ...MiddlewareFunc)

	// Server lifecycle
	Start(addr string) error
	Stop(ctx context.Context) error

	// Handler exposes the server as a standard http.Handler (used by tests and embedding)
	Handler() http.Handler

	// Server information
	Name() string
}

// RequestContext provides a framework-agnostic interface for handling HTTP requests
type RequestContext interface {
	// Request data
	Method() string
	Path() string
	RealIP() string

	// Context returns the request's context.Context
	Context() context.Context
	SetContext(ctx context.Context)

	// Parameters
	Param(key string) string
	ParamNames() []string
	ParamValues() []string
	SetParam(name, value string)

	// Query parameters
	QueryParam(key string) string
	QueryParams() map[string][]string
	QueryString() string

	// Headers
	Request() RequestInterface
	Response() ResponseInterface

	// Body handling
	Bind(i interface{}) error
	Validate(i interface{}) error

	// Context data
	Get(key string) interface{}
	Set(key string, val interface{})

	// Request body
	FormValue(name string) string
	FormParams() (map[string][]string, error)
	FormFile(name string) (FileHeader, error)
	MultipartForm() (MultipartForm, error)
}

// RequestInterface provides access to the underlying request
type RequestInterface interface {
	Header(key string) string
	SetHeader(key, value string)
	Body() []byte
	ContentLength() int64
	ContentType() string
	Cookies() []Cookie
	Cookie(name string) (Cookie, error)
}

// ResponseInterface provides response writing capabilities
type ResponseInterface interface {
	// Status
	Status() int
	SetStatus(code int)

	// Headers
	Header(key string) string
	SetHeader(key, value string)

	// Content
	JSON(code int, i interface{}) error
	JSONPretty(code int, i interface{}, indent string) error
	String(code int, s string) error
	HTML(code int, html string) error
	Blob(code int, contentType string, b []byte) error
	Stream(code int, contentType string, r interface{}) error

	// Cookies
	SetCookie(cookie Cookie)

	// Response data
	Size() int64
	Written() bool
	Writer() interface{} // Framework-specific writer
}

// HandlerFunc defines the signature for HTTP handlers
type HandlerFunc func(RequestContext) error

// MiddlewareFunc defines the signature for middleware
type MiddlewareFunc func(HandlerFunc) HandlerFunc

// Cookie represents an HTTP cookie
type Cookie struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	Expires  time.Time
	MaxAge   int
	Secure   bool
	HttpOnly bool
	SameSite SameSiteMode
}

// SameSiteMode defines cookie SameSite attribute modes
type SameSiteMode int

const (
	SameSiteDefaultMode SameSiteMode = iota + 1
	SameSiteLaxMode
	SameSiteStrictMode
	SameSiteNoneMode
)

// FileHeader represents an uploaded file
type FileHeader interface {
	Filename() string
	Header() map[string][]string
	Size() int64
	Open() (interface{}, error) // Returns framework-specific file
}

// MultipartForm represents a parsed multipart form
type MultipartForm interface {
	Value() map[string][]string
	File() map[string][]FileHeader
}

// Chain composes middlewares so that the first one is the outermost.
func Chain(handler HandlerFunc, middlewares ...MiddlewareFunc) HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}
