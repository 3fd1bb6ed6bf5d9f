package adapters

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"

	"github.com/toyz/keel/pkg/keel"
)

const maxMultipartMemory = 32 << 20

// ChiAdapter implements keel.WebServerInterface on a chi router. chi works on
// plain net/http types, so the adapter tracks response state itself.
type ChiAdapter struct {
	router chi.Router

	mu     sync.Mutex
	server *http.Server
}

// NewChiAdapter wraps an existing chi router
func NewChiAdapter(r chi.Router) *ChiAdapter {
	return &ChiAdapter{router: r}
}

// NewDefaultChiAdapter creates a chi router with panic recovery and, when
// cfg.CORSAllowedOrigins is set, CORS handling.
func NewDefaultChiAdapter(cfg *keel.Config) *ChiAdapter {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	if cfg != nil && len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", keel.RequestIDHeader},
			ExposedHeaders:   []string{keel.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	return &ChiAdapter{router: r}
}

// convertChiPath drops parameter types: chi would read {id:int} as a regexp
func convertChiPath(path keel.RoutePath) string {
	var b strings.Builder
	for _, part := range path.Parts() {
		switch part.Type {
		case keel.ParameterPart:
			b.WriteString("{" + part.Value + "}")
		case keel.WildcardPart:
			b.WriteString("*")
		default:
			b.WriteString(part.Value)
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// RegisterRoute registers a route with the chi router
func (ca *ChiAdapter) RegisterRoute(method string, path keel.RoutePath, handler keel.HandlerFunc, middlewares ...keel.MiddlewareFunc) {
	ca.router.Method(method, convertChiPath(path), convertChiHandler(keel.Chain(handler, middlewares...)))
}

// Start serves the router on addr until Stop is called
func (ca *ChiAdapter) Start(addr string) error {
	ca.mu.Lock()
	if ca.server == nil {
		ca.server = &http.Server{Addr: addr, Handler: ca.router}
	}
	server := ca.server
	ca.mu.Unlock()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down
func (ca *ChiAdapter) Stop(ctx context.Context) error {
	ca.mu.Lock()
	if ca.server == nil {
		ca.server = &http.Server{Handler: ca.router}
	}
	server := ca.server
	ca.mu.Unlock()
	return server.Shutdown(ctx)
}

// Handler returns the chi router
func (ca *ChiAdapter) Handler() http.Handler {
	return ca.router
}

// Name returns the adapter name
func (ca *ChiAdapter) Name() string {
	return "Chi"
}

// Router returns the underlying chi router
func (ca *ChiAdapter) Router() chi.Router {
	return ca.router
}

func convertChiHandler(handler keel.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rc := newChiRequestContext(w, r)
		if err := handler(rc); err != nil {
			_ = writeError(rc, err)
		}
	}
}

// chiResponseWriter records status and size
type chiResponseWriter struct {
	http.ResponseWriter
	status  int
	size    int64
	written bool
}

func (w *chiResponseWriter) WriteHeader(code int) {
	if w.written {
		return
	}
	w.status = code
	w.written = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *chiResponseWriter) Write(b []byte) (int, error) {
	if !w.written {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// ChiRequestContext implements keel.RequestContext over net/http
type ChiRequestContext struct {
	writer  *chiResponseWriter
	request *http.Request
	values  map[string]interface{}
}

func newChiRequestContext(w http.ResponseWriter, r *http.Request) *ChiRequestContext {
	cw, ok := w.(*chiResponseWriter)
	if !ok {
		cw = &chiResponseWriter{ResponseWriter: w, status: http.StatusOK}
	}
	return &ChiRequestContext{writer: cw, request: r, values: make(map[string]interface{})}
}

func (c *ChiRequestContext) Method() string {
	return c.request.Method
}

func (c *ChiRequestContext) Path() string {
	return c.request.URL.Path
}

func (c *ChiRequestContext) RealIP() string {
	if ip := c.request.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := c.request.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(c.request.RemoteAddr)
	if err != nil {
		return c.request.RemoteAddr
	}
	return host
}

func (c *ChiRequestContext) Context() context.Context {
	return c.request.Context()
}

func (c *ChiRequestContext) SetContext(ctx context.Context) {
	c.request = c.request.WithContext(ctx)
}

func (c *ChiRequestContext) Param(key string) string {
	return chi.URLParam(c.request, key)
}

func (c *ChiRequestContext) ParamNames() []string {
	if rctx := chi.RouteContext(c.request.Context()); rctx != nil {
		return rctx.URLParams.Keys
	}
	return nil
}

func (c *ChiRequestContext) ParamValues() []string {
	if rctx := chi.RouteContext(c.request.Context()); rctx != nil {
		return rctx.URLParams.Values
	}
	return nil
}

func (c *ChiRequestContext) SetParam(name, value string) {
	if rctx := chi.RouteContext(c.request.Context()); rctx != nil {
		rctx.URLParams.Add(name, value)
	}
}

func (c *ChiRequestContext) QueryParam(key string) string {
	return c.request.URL.Query().Get(key)
}

func (c *ChiRequestContext) QueryParams() map[string][]string {
	return c.request.URL.Query()
}

func (c *ChiRequestContext) QueryString() string {
	return c.request.URL.RawQuery
}

func (c *ChiRequestContext) Request() keel.RequestInterface {
	return &ChiRequest{request: c.request}
}

func (c *ChiRequestContext) Response() keel.ResponseInterface {
	return &ChiResponse{writer: c.writer, request: c.request}
}

// Bind decodes a JSON body into i
func (c *ChiRequestContext) Bind(i interface{}) error {
	ct := c.request.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/json") {
		return keel.NewHttpError(http.StatusUnsupportedMediaType, "")
	}
	if c.request.Body == nil {
		return keel.ErrBadRequest("request body is empty")
	}
	if err := json.NewDecoder(c.request.Body).Decode(i); err != nil {
		return keel.ErrBadRequest("invalid request body").WithInternal(err)
	}
	return nil
}

func (c *ChiRequestContext) Validate(i interface{}) error {
	return keel.ValidateStruct(i)
}

func (c *ChiRequestContext) Get(key string) interface{} {
	return c.values[key]
}

func (c *ChiRequestContext) Set(key string, val interface{}) {
	c.values[key] = val
}

func (c *ChiRequestContext) FormValue(name string) string {
	return c.request.FormValue(name)
}

func (c *ChiRequestContext) FormParams() (map[string][]string, error) {
	if err := c.request.ParseForm(); err != nil {
		return nil, err
	}
	return c.request.PostForm, nil
}

func (c *ChiRequestContext) FormFile(name string) (keel.FileHeader, error) {
	if err := c.request.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, err
	}
	files := c.request.MultipartForm.File[name]
	if len(files) == 0 {
		return nil, http.ErrMissingFile
	}
	return &multipartFileHeader{header: files[0]}, nil
}

func (c *ChiRequestContext) MultipartForm() (keel.MultipartForm, error) {
	if err := c.request.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, err
	}
	return &multipartFormAdapter{form: c.request.MultipartForm}, nil
}

// ChiRequest implements keel.RequestInterface
type ChiRequest struct {
	request *http.Request
}

func (r *ChiRequest) Header(key string) string {
	return r.request.Header.Get(key)
}

func (r *ChiRequest) SetHeader(key, value string) {
	r.request.Header.Set(key, value)
}

func (r *ChiRequest) Body() []byte {
	return readBody(r.request)
}

func (r *ChiRequest) ContentLength() int64 {
	return r.request.ContentLength
}

func (r *ChiRequest) ContentType() string {
	return r.request.Header.Get("Content-Type")
}

func (r *ChiRequest) Cookies() []keel.Cookie {
	return fromHTTPCookies(r.request.Cookies())
}

func (r *ChiRequest) Cookie(name string) (keel.Cookie, error) {
	c, err := r.request.Cookie(name)
	if err != nil {
		return keel.Cookie{}, err
	}
	return fromHTTPCookie(c), nil
}

// ChiResponse implements keel.ResponseInterface
type ChiResponse struct {
	writer  *chiResponseWriter
	request *http.Request
}

func (r *ChiResponse) Status() int {
	return r.writer.status
}

func (r *ChiResponse) SetStatus(code int) {
	r.writer.status = code
}

func (r *ChiResponse) Header(key string) string {
	return r.writer.Header().Get(key)
}

func (r *ChiResponse) SetHeader(key, value string) {
	r.writer.Header().Set(key, value)
}

func (r *ChiResponse) JSON(code int, i interface{}) error {
	body, err := json.Marshal(i)
	if err != nil {
		return err
	}
	return r.Blob(code, "application/json", body)
}

func (r *ChiResponse) JSONPretty(code int, i interface{}, indent string) error {
	body, err := json.MarshalIndent(i, "", indent)
	if err != nil {
		return err
	}
	return r.Blob(code, "application/json", body)
}

func (r *ChiResponse) String(code int, s string) error {
	return r.Blob(code, "text/plain; charset=utf-8", []byte(s))
}

func (r *ChiResponse) HTML(code int, html string) error {
	return r.Blob(code, "text/html; charset=utf-8", []byte(html))
}

func (r *ChiResponse) Blob(code int, contentType string, b []byte) error {
	r.writer.Header().Set("Content-Type", contentType)
	r.writer.WriteHeader(code)
	_, err := r.writer.Write(b)
	return err
}

func (r *ChiResponse) Stream(code int, contentType string, src interface{}) error {
	reader, ok := src.(io.Reader)
	if !ok {
		return keel.ErrInternalServerError("invalid stream reader")
	}
	r.writer.Header().Set("Content-Type", contentType)
	r.writer.WriteHeader(code)
	_, err := io.Copy(r.writer, reader)
	return err
}

func (r *ChiResponse) SetCookie(cookie keel.Cookie) {
	http.SetCookie(r.writer, toHTTPCookie(cookie))
}

func (r *ChiResponse) Size() int64 {
	return r.writer.size
}

func (r *ChiResponse) Written() bool {
	return r.writer.written
}

func (r *ChiResponse) Writer() interface{} {
	return r.writer
}
