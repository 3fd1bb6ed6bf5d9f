package adapters

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/toyz/keel/pkg/keel"
)

// EchoAdapter implements keel.WebServerInterface for Echo v4
type EchoAdapter struct {
	engine *echo.Echo
}

// NewEchoAdapter wraps an existing Echo instance
func NewEchoAdapter(e *echo.Echo) *EchoAdapter {
	return &EchoAdapter{engine: e}
}

// NewDefaultEchoAdapter creates an adapter around a quiet Echo instance
func NewDefaultEchoAdapter() *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &EchoAdapter{engine: e}
}

// RegisterRoute registers a route with the Echo server
func (ea *EchoAdapter) RegisterRoute(method string, path keel.RoutePath, handler keel.HandlerFunc, middlewares ...keel.MiddlewareFunc) {
	ea.engine.Add(method, convertPath(path, "*"), ea.convertHandler(keel.Chain(handler, middlewares...)))
}

// Start starts the server
func (ea *EchoAdapter) Start(addr string) error {
	err := ea.engine.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop stops the server
func (ea *EchoAdapter) Stop(ctx context.Context) error {
	return ea.engine.Shutdown(ctx)
}

// Handler returns the Echo instance, which is an http.Handler
func (ea *EchoAdapter) Handler() http.Handler {
	return ea.engine
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// Engine returns the underlying Echo instance
func (ea *EchoAdapter) Engine() *echo.Echo {
	return ea.engine
}

func (ea *EchoAdapter) convertHandler(handler keel.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rc := &EchoRequestContext{context: c}
		if err := handler(rc); err != nil {
			return writeError(rc, err)
		}
		return nil
	}
}

// EchoRequestContext implements keel.RequestContext for Echo
type EchoRequestContext struct {
	context echo.Context
}

// Method returns the HTTP method
func (erc *EchoRequestContext) Method() string {
	return erc.context.Request().Method
}

// Path returns the request path
func (erc *EchoRequestContext) Path() string {
	return erc.context.Request().URL.Path
}

// RealIP returns the real IP address
func (erc *EchoRequestContext) RealIP() string {
	return erc.context.RealIP()
}

// Context returns the request context
func (erc *EchoRequestContext) Context() context.Context {
	return erc.context.Request().Context()
}

// SetContext replaces the request context
func (erc *EchoRequestContext) SetContext(ctx context.Context) {
	erc.context.SetRequest(erc.context.Request().WithContext(ctx))
}

// Param returns path parameter by name
func (erc *EchoRequestContext) Param(key string) string {
	return erc.context.Param(key)
}

// ParamNames returns path parameter names
func (erc *EchoRequestContext) ParamNames() []string {
	return erc.context.ParamNames()
}

// ParamValues returns path parameter values
func (erc *EchoRequestContext) ParamValues() []string {
	return erc.context.ParamValues()
}

// SetParam sets path parameter
func (erc *EchoRequestContext) SetParam(name, value string) {
	names := append(erc.context.ParamNames(), name)
	values := append(erc.context.ParamValues(), value)
	erc.context.SetParamNames(names...)
	erc.context.SetParamValues(values...)
}

// QueryParam returns query parameter by name
func (erc *EchoRequestContext) QueryParam(key string) string {
	return erc.context.QueryParam(key)
}

// QueryParams returns all query parameters
func (erc *EchoRequestContext) QueryParams() map[string][]string {
	return erc.context.QueryParams()
}

// QueryString returns the query string
func (erc *EchoRequestContext) QueryString() string {
	return erc.context.QueryString()
}

// Request returns the request interface
func (erc *EchoRequestContext) Request() keel.RequestInterface {
	return &EchoRequestInterface{request: erc.context.Request()}
}

// Response returns the response interface
func (erc *EchoRequestContext) Response() keel.ResponseInterface {
	return &EchoResponseInterface{response: erc.context.Response(), context: erc.context}
}

// Bind binds request body to provided struct
func (erc *EchoRequestContext) Bind(i interface{}) error {
	if err := erc.context.Bind(i); err != nil {
		return keel.ErrBadRequest("invalid request body").WithInternal(err)
	}
	return nil
}

// Validate validates the provided struct with `validate` tags
func (erc *EchoRequestContext) Validate(i interface{}) error {
	return keel.ValidateStruct(i)
}

// Get retrieves data from context
func (erc *EchoRequestContext) Get(key string) interface{} {
	return erc.context.Get(key)
}

// Set stores data in context
func (erc *EchoRequestContext) Set(key string, val interface{}) {
	erc.context.Set(key, val)
}

// FormValue returns form value by name
func (erc *EchoRequestContext) FormValue(name string) string {
	return erc.context.FormValue(name)
}

// FormParams returns form parameters
func (erc *EchoRequestContext) FormParams() (map[string][]string, error) {
	return erc.context.FormParams()
}

// FormFile returns uploaded file by name
func (erc *EchoRequestContext) FormFile(name string) (keel.FileHeader, error) {
	file, err := erc.context.FormFile(name)
	if err != nil {
		return nil, err
	}
	return &multipartFileHeader{header: file}, nil
}

// MultipartForm returns multipart form
func (erc *EchoRequestContext) MultipartForm() (keel.MultipartForm, error) {
	form, err := erc.context.MultipartForm()
	if err != nil {
		return nil, err
	}
	return &multipartFormAdapter{form: form}, nil
}

// EchoRequestInterface implements keel.RequestInterface for Echo requests
type EchoRequestInterface struct {
	request *http.Request
}

// Header returns request header value
func (eri *EchoRequestInterface) Header(key string) string {
	return eri.request.Header.Get(key)
}

// SetHeader sets request header
func (eri *EchoRequestInterface) SetHeader(key, value string) {
	eri.request.Header.Set(key, value)
}

// Body reads the request body and restores it for later readers
func (eri *EchoRequestInterface) Body() []byte {
	return readBody(eri.request)
}

// ContentLength returns content length
func (eri *EchoRequestInterface) ContentLength() int64 {
	return eri.request.ContentLength
}

// ContentType returns content type
func (eri *EchoRequestInterface) ContentType() string {
	return eri.request.Header.Get(echo.HeaderContentType)
}

// Cookies returns all cookies
func (eri *EchoRequestInterface) Cookies() []keel.Cookie {
	return fromHTTPCookies(eri.request.Cookies())
}

// Cookie returns specific cookie
func (eri *EchoRequestInterface) Cookie(name string) (keel.Cookie, error) {
	c, err := eri.request.Cookie(name)
	if err != nil {
		return keel.Cookie{}, err
	}
	return fromHTTPCookie(c), nil
}

// EchoResponseInterface implements keel.ResponseInterface for Echo responses
type EchoResponseInterface struct {
	response *echo.Response
	context  echo.Context
}

// Status returns response status code
func (eri *EchoResponseInterface) Status() int {
	return eri.response.Status
}

// SetStatus sets response status code
func (eri *EchoResponseInterface) SetStatus(code int) {
	eri.response.Status = code
}

// Header returns response header value
func (eri *EchoResponseInterface) Header(key string) string {
	return eri.response.Header().Get(key)
}

// SetHeader sets response header
func (eri *EchoResponseInterface) SetHeader(key, value string) {
	eri.response.Header().Set(key, value)
}

// JSON writes JSON response
func (eri *EchoResponseInterface) JSON(code int, i interface{}) error {
	return eri.context.JSON(code, i)
}

// JSONPretty writes pretty JSON response
func (eri *EchoResponseInterface) JSONPretty(code int, i interface{}, indent string) error {
	return eri.context.JSONPretty(code, i, indent)
}

// String writes string response
func (eri *EchoResponseInterface) String(code int, s string) error {
	return eri.context.String(code, s)
}

// HTML writes HTML response
func (eri *EchoResponseInterface) HTML(code int, html string) error {
	return eri.context.HTML(code, html)
}

// Blob writes blob response
func (eri *EchoResponseInterface) Blob(code int, contentType string, b []byte) error {
	return eri.context.Blob(code, contentType, b)
}

// Stream writes streaming response
func (eri *EchoResponseInterface) Stream(code int, contentType string, r interface{}) error {
	reader, ok := r.(io.Reader)
	if !ok {
		return keel.ErrInternalServerError("invalid stream reader")
	}
	return eri.context.Stream(code, contentType, reader)
}

// SetCookie sets a cookie
func (eri *EchoResponseInterface) SetCookie(cookie keel.Cookie) {
	eri.context.SetCookie(toHTTPCookie(cookie))
}

// Size returns response size
func (eri *EchoResponseInterface) Size() int64 {
	return eri.response.Size
}

// Written returns whether response has been written
func (eri *EchoResponseInterface) Written() bool {
	return eri.response.Committed
}

// Writer returns the underlying writer
func (eri *EchoResponseInterface) Writer() interface{} {
	return eri.response.Writer
}

// multipartFileHeader implements keel.FileHeader over the standard library type
type multipartFileHeader struct {
	header *multipart.FileHeader
}

func (h *multipartFileHeader) Filename() string {
	return h.header.Filename
}

func (h *multipartFileHeader) Header() map[string][]string {
	return h.header.Header
}

func (h *multipartFileHeader) Size() int64 {
	return h.header.Size
}

func (h *multipartFileHeader) Open() (interface{}, error) {
	return h.header.Open()
}

// multipartFormAdapter implements keel.MultipartForm over the standard library type
type multipartFormAdapter struct {
	form *multipart.Form
}

func (f *multipartFormAdapter) Value() map[string][]string {
	return f.form.Value
}

func (f *multipartFormAdapter) File() map[string][]keel.FileHeader {
	result := make(map[string][]keel.FileHeader, len(f.form.File))
	for key, files := range f.form.File {
		headers := make([]keel.FileHeader, len(files))
		for i, file := range files {
			headers[i] = &multipartFileHeader{header: file}
		}
		result[key] = headers
	}
	return result
}

func readBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body
}
