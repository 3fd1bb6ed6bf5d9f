package adapters

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/toyz/keel/pkg/keel"
)

// GinAdapter implements keel.WebServerInterface for the Gin framework.
// Gin has no shutdown of its own, so the engine is served by an http.Server.
type GinAdapter struct {
	engine *gin.Engine

	mu     sync.Mutex
	server *http.Server
}

// NewGinAdapter wraps an existing Gin engine
func NewGinAdapter(g *gin.Engine) *GinAdapter {
	return &GinAdapter{engine: g}
}

// NewDefaultGinAdapter creates an adapter around a Gin engine with panic recovery
func NewDefaultGinAdapter() *GinAdapter {
	g := gin.New()
	g.Use(gin.Recovery())
	return &GinAdapter{engine: g}
}

// NewGinAdapterForConfig sets Gin's mode from cfg.Debug before creating the engine
func NewGinAdapterForConfig(cfg *keel.Config) *GinAdapter {
	if cfg != nil && cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewDefaultGinAdapter()
}

// RegisterRoute registers a route with the Gin engine
func (ga *GinAdapter) RegisterRoute(method string, path keel.RoutePath, handler keel.HandlerFunc, middlewares ...keel.MiddlewareFunc) {
	ga.engine.Handle(method, convertPath(path, "*path"), ga.convertHandler(keel.Chain(handler, middlewares...)))
}

// Start serves the engine on addr until Stop is called
func (ga *GinAdapter) Start(addr string) error {
	ga.mu.Lock()
	if ga.server == nil {
		ga.server = &http.Server{Addr: addr, Handler: ga.engine}
	}
	server := ga.server
	ga.mu.Unlock()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down
func (ga *GinAdapter) Stop(ctx context.Context) error {
	ga.mu.Lock()
	if ga.server == nil {
		// Stop before Start: make a later Start return immediately
		ga.server = &http.Server{Handler: ga.engine}
	}
	server := ga.server
	ga.mu.Unlock()
	return server.Shutdown(ctx)
}

// Handler returns the Gin engine
func (ga *GinAdapter) Handler() http.Handler {
	return ga.engine
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// Engine returns the underlying Gin engine
func (ga *GinAdapter) Engine() *gin.Engine {
	return ga.engine
}

func (ga *GinAdapter) convertHandler(handler keel.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := &GinRequestContext{ctx: c}
		if err := handler(rc); err != nil {
			_ = writeError(rc, err)
		}
	}
}

// GinRequestContext implements keel.RequestContext for Gin
type GinRequestContext struct {
	ctx *gin.Context
}

// Method returns the HTTP method
func (grc *GinRequestContext) Method() string {
	return grc.ctx.Request.Method
}

// Path returns the request path
func (grc *GinRequestContext) Path() string {
	return grc.ctx.Request.URL.Path
}

// RealIP returns the client IP address
func (grc *GinRequestContext) RealIP() string {
	return grc.ctx.ClientIP()
}

// Context returns the request context
func (grc *GinRequestContext) Context() context.Context {
	return grc.ctx.Request.Context()
}

// SetContext replaces the request context
func (grc *GinRequestContext) SetContext(ctx context.Context) {
	grc.ctx.Request = grc.ctx.Request.WithContext(ctx)
}

// Param returns a path parameter; "*" is the wildcard
func (grc *GinRequestContext) Param(name string) string {
	if name == "*" {
		v := grc.ctx.Param("path")
		if len(v) > 0 && v[0] == '/' {
			return v[1:]
		}
		return v
	}
	return grc.ctx.Param(name)
}

// ParamNames returns parameter names
func (grc *GinRequestContext) ParamNames() []string {
	names := make([]string, 0, len(grc.ctx.Params))
	for _, param := range grc.ctx.Params {
		names = append(names, param.Key)
	}
	return names
}

// ParamValues returns parameter values
func (grc *GinRequestContext) ParamValues() []string {
	values := make([]string, 0, len(grc.ctx.Params))
	for _, param := range grc.ctx.Params {
		values = append(values, param.Value)
	}
	return values
}

// SetParam sets a parameter value
func (grc *GinRequestContext) SetParam(name, value string) {
	grc.ctx.AddParam(name, value)
}

// QueryParam returns a query parameter
func (grc *GinRequestContext) QueryParam(name string) string {
	return grc.ctx.Query(name)
}

// QueryParams returns all query parameters
func (grc *GinRequestContext) QueryParams() map[string][]string {
	return grc.ctx.Request.URL.Query()
}

// QueryString returns the query string
func (grc *GinRequestContext) QueryString() string {
	return grc.ctx.Request.URL.RawQuery
}

// Request returns the request interface
func (grc *GinRequestContext) Request() keel.RequestInterface {
	return &GinRequestInterface{ctx: grc.ctx}
}

// Response returns the response interface
func (grc *GinRequestContext) Response() keel.ResponseInterface {
	return &GinResponseInterface{ctx: grc.ctx}
}

// Bind binds the request body according to its content type
func (grc *GinRequestContext) Bind(i interface{}) error {
	if err := grc.ctx.ShouldBind(i); err != nil {
		return keel.ErrBadRequest("invalid request body").WithInternal(err)
	}
	return nil
}

// Validate validates a struct with `validate` tags
func (grc *GinRequestContext) Validate(i interface{}) error {
	return keel.ValidateStruct(i)
}

// Get returns a value from context
func (grc *GinRequestContext) Get(key string) interface{} {
	value, _ := grc.ctx.Get(key)
	return value
}

// Set sets a value in context
func (grc *GinRequestContext) Set(key string, val interface{}) {
	grc.ctx.Set(key, val)
}

// FormValue returns a form value
func (grc *GinRequestContext) FormValue(name string) string {
	return grc.ctx.PostForm(name)
}

// FormParams returns all form parameters
func (grc *GinRequestContext) FormParams() (map[string][]string, error) {
	if err := grc.ctx.Request.ParseForm(); err != nil {
		return nil, err
	}
	return grc.ctx.Request.PostForm, nil
}

// FormFile returns a form file
func (grc *GinRequestContext) FormFile(name string) (keel.FileHeader, error) {
	header, err := grc.ctx.FormFile(name)
	if err != nil {
		return nil, err
	}
	return &multipartFileHeader{header: header}, nil
}

// MultipartForm returns the multipart form
func (grc *GinRequestContext) MultipartForm() (keel.MultipartForm, error) {
	form, err := grc.ctx.MultipartForm()
	if err != nil {
		return nil, err
	}
	return &multipartFormAdapter{form: form}, nil
}

// GinRequestInterface implements keel.RequestInterface for Gin
type GinRequestInterface struct {
	ctx *gin.Context
}

// Header returns a request header
func (gri *GinRequestInterface) Header(key string) string {
	return gri.ctx.GetHeader(key)
}

// SetHeader sets a request header
func (gri *GinRequestInterface) SetHeader(key, value string) {
	gri.ctx.Request.Header.Set(key, value)
}

// Body reads the request body and restores it for later readers
func (gri *GinRequestInterface) Body() []byte {
	return readBody(gri.ctx.Request)
}

// ContentLength returns the content length
func (gri *GinRequestInterface) ContentLength() int64 {
	return gri.ctx.Request.ContentLength
}

// ContentType returns the content type
func (gri *GinRequestInterface) ContentType() string {
	return gri.ctx.ContentType()
}

// Cookies returns the request cookies
func (gri *GinRequestInterface) Cookies() []keel.Cookie {
	return fromHTTPCookies(gri.ctx.Request.Cookies())
}

// Cookie returns a specific cookie
func (gri *GinRequestInterface) Cookie(name string) (keel.Cookie, error) {
	c, err := gri.ctx.Request.Cookie(name)
	if err != nil {
		return keel.Cookie{}, err
	}
	return fromHTTPCookie(c), nil
}

// GinResponseInterface implements keel.ResponseInterface for Gin
type GinResponseInterface struct {
	ctx *gin.Context
}

// Status returns the response status code
func (gri *GinResponseInterface) Status() int {
	return gri.ctx.Writer.Status()
}

// SetStatus sets the response status code
func (gri *GinResponseInterface) SetStatus(code int) {
	gri.ctx.Status(code)
}

// Header returns a response header
func (gri *GinResponseInterface) Header(key string) string {
	return gri.ctx.Writer.Header().Get(key)
}

// SetHeader sets a response header
func (gri *GinResponseInterface) SetHeader(key, value string) {
	gri.ctx.Header(key, value)
}

// JSON writes a JSON response
func (gri *GinResponseInterface) JSON(code int, i interface{}) error {
	gri.ctx.JSON(code, i)
	return nil
}

// JSONPretty writes an indented JSON response
func (gri *GinResponseInterface) JSONPretty(code int, i interface{}, indent string) error {
	gri.ctx.IndentedJSON(code, i)
	return nil
}

// String writes a string response
func (gri *GinResponseInterface) String(code int, s string) error {
	gri.ctx.String(code, "%s", s)
	return nil
}

// HTML writes an HTML response
func (gri *GinResponseInterface) HTML(code int, html string) error {
	gri.ctx.Data(code, "text/html; charset=utf-8", []byte(html))
	return nil
}

// Blob writes a blob response
func (gri *GinResponseInterface) Blob(code int, contentType string, b []byte) error {
	gri.ctx.Data(code, contentType, b)
	return nil
}

// Stream writes a streaming response
func (gri *GinResponseInterface) Stream(code int, contentType string, r interface{}) error {
	reader, ok := r.(io.Reader)
	if !ok {
		return keel.ErrInternalServerError("invalid stream reader")
	}
	gri.ctx.DataFromReader(code, -1, contentType, reader, nil)
	return nil
}

// SetCookie sets a response cookie
func (gri *GinResponseInterface) SetCookie(cookie keel.Cookie) {
	http.SetCookie(gri.ctx.Writer, toHTTPCookie(cookie))
}

// Size returns the response size
func (gri *GinResponseInterface) Size() int64 {
	return int64(gri.ctx.Writer.Size())
}

// Written returns whether the response has been written
func (gri *GinResponseInterface) Written() bool {
	return gri.ctx.Writer.Written()
}

// Writer returns the underlying response writer
func (gri *GinResponseInterface) Writer() interface{} {
	return gri.ctx.Writer
}
