package adapters

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/toyz/keel/pkg/keel"
)

// writtenLocal marks a fiber request whose response was produced by a keel handler.
// fasthttp defaults the status to 200, so the status code can't tell.
const writtenLocal = "keel.written"

// FiberAdapter wraps a Fiber app to implement keel.WebServerInterface
type FiberAdapter struct {
	app *fiber.App

	mu      sync.Mutex
	stopped bool
	ln      net.Listener
}

// NewFiberAdapter wraps an existing Fiber app
func NewFiberAdapter(app *fiber.App) *FiberAdapter {
	return &FiberAdapter{app: app}
}

// NewDefaultFiberAdapter creates a Fiber app with panic recovery and keel-style error bodies
func NewDefaultFiberAdapter() *FiberAdapter {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(keel.NewHttpError(code, ""))
		},
	})
	app.Use(recover.New())
	return &FiberAdapter{app: app}
}

// RegisterRoute registers a route with the Fiber app
func (fa *FiberAdapter) RegisterRoute(method string, path keel.RoutePath, handler keel.HandlerFunc, middlewares ...keel.MiddlewareFunc) {
	fa.app.Add(strings.ToUpper(method), convertPath(path, "*"), convertFiberHandler(keel.Chain(handler, middlewares...)))
}

// Start serves the app on addr until Stop is called. It returns at once when
// Stop already ran.
func (fa *FiberAdapter) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	fa.mu.Lock()
	if fa.stopped {
		fa.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	fa.ln = ln
	fa.mu.Unlock()

	err = fa.app.Listener(ln)

	fa.mu.Lock()
	defer fa.mu.Unlock()
	if fa.stopped {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down. The listener is closed as well, in
// case Stop raced Start before fiber took it over.
func (fa *FiberAdapter) Stop(ctx context.Context) error {
	fa.mu.Lock()
	fa.stopped = true
	ln := fa.ln
	fa.mu.Unlock()
	if ln == nil {
		return nil
	}
	err := fa.app.ShutdownWithContext(ctx)
	_ = ln.Close()
	return err
}

// Handler converts the Fiber app into an http.Handler
func (fa *FiberAdapter) Handler() http.Handler {
	return adaptor.FiberApp(fa.app)
}

// Name returns the adapter name
func (fa *FiberAdapter) Name() string {
	return "Fiber"
}

// App returns the underlying Fiber app
func (fa *FiberAdapter) App() *fiber.App {
	return fa.app
}

func convertFiberHandler(handler keel.HandlerFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc := &FiberRequestContext{ctx: c}
		if err := handler(rc); err != nil {
			return writeError(rc, err)
		}
		return nil
	}
}

// FiberRequestContext wraps fiber.Ctx to implement keel.RequestContext
type FiberRequestContext struct {
	ctx *fiber.Ctx
}

func (frc *FiberRequestContext) Method() string {
	return frc.ctx.Method()
}

func (frc *FiberRequestContext) Path() string {
	return frc.ctx.Path()
}

func (frc *FiberRequestContext) RealIP() string {
	return frc.ctx.IP()
}

// Context returns the user context of the request
func (frc *FiberRequestContext) Context() context.Context {
	return frc.ctx.UserContext()
}

func (frc *FiberRequestContext) SetContext(ctx context.Context) {
	frc.ctx.SetUserContext(ctx)
}

func (frc *FiberRequestContext) Param(name string) string {
	return frc.ctx.Params(name)
}

func (frc *FiberRequestContext) ParamNames() []string {
	return frc.ctx.Route().Params
}

func (frc *FiberRequestContext) ParamValues() []string {
	names := frc.ctx.Route().Params
	values := make([]string, len(names))
	for i, name := range names {
		values[i] = frc.ctx.Params(name)
	}
	return values
}

// SetParam is a no-op: Fiber params are fixed once the route matched
func (frc *FiberRequestContext) SetParam(name, value string) {}

func (frc *FiberRequestContext) QueryParam(key string) string {
	return frc.ctx.Query(key)
}

func (frc *FiberRequestContext) QueryParams() map[string][]string {
	result := make(map[string][]string)
	frc.ctx.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		result[k] = append(result[k], string(value))
	})
	return result
}

func (frc *FiberRequestContext) QueryString() string {
	return string(frc.ctx.Request().URI().QueryString())
}

func (frc *FiberRequestContext) Request() keel.RequestInterface {
	return &FiberRequest{ctx: frc.ctx}
}

func (frc *FiberRequestContext) Response() keel.ResponseInterface {
	return &FiberResponse{ctx: frc.ctx}
}

func (frc *FiberRequestContext) Bind(obj interface{}) error {
	if err := frc.ctx.BodyParser(obj); err != nil {
		return keel.ErrBadRequest("invalid request body").WithInternal(err)
	}
	return nil
}

func (frc *FiberRequestContext) Validate(obj interface{}) error {
	return keel.ValidateStruct(obj)
}

func (frc *FiberRequestContext) Get(key string) interface{} {
	return frc.ctx.Locals(key)
}

func (frc *FiberRequestContext) Set(key string, val interface{}) {
	frc.ctx.Locals(key, val)
}

func (frc *FiberRequestContext) FormValue(name string) string {
	return frc.ctx.FormValue(name)
}

func (frc *FiberRequestContext) FormParams() (map[string][]string, error) {
	result := make(map[string][]string)
	frc.ctx.Request().PostArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		result[k] = append(result[k], string(value))
	})
	return result, nil
}

func (frc *FiberRequestContext) FormFile(name string) (keel.FileHeader, error) {
	header, err := frc.ctx.FormFile(name)
	if err != nil {
		return nil, err
	}
	return &multipartFileHeader{header: header}, nil
}

func (frc *FiberRequestContext) MultipartForm() (keel.MultipartForm, error) {
	form, err := frc.ctx.MultipartForm()
	if err != nil {
		return nil, err
	}
	return &multipartFormAdapter{form: form}, nil
}

// FiberRequest wraps fiber.Ctx to implement keel.RequestInterface
type FiberRequest struct {
	ctx *fiber.Ctx
}

func (fr *FiberRequest) Header(key string) string {
	return fr.ctx.Get(key)
}

func (fr *FiberRequest) SetHeader(key, value string) {
	fr.ctx.Request().Header.Set(key, value)
}

func (fr *FiberRequest) Body() []byte {
	return fr.ctx.Body()
}

func (fr *FiberRequest) ContentLength() int64 {
	return int64(fr.ctx.Request().Header.ContentLength())
}

func (fr *FiberRequest) ContentType() string {
	return fr.ctx.Get(fiber.HeaderContentType)
}

func (fr *FiberRequest) Cookies() []keel.Cookie {
	var cookies []keel.Cookie
	fr.ctx.Request().Header.VisitAllCookie(func(key, value []byte) {
		cookies = append(cookies, keel.Cookie{Name: string(key), Value: string(value)})
	})
	return cookies
}

func (fr *FiberRequest) Cookie(name string) (keel.Cookie, error) {
	value := fr.ctx.Cookies(name)
	if value == "" {
		return keel.Cookie{}, http.ErrNoCookie
	}
	return keel.Cookie{Name: name, Value: value}, nil
}

// FiberResponse wraps fiber.Ctx to implement keel.ResponseInterface
type FiberResponse struct {
	ctx *fiber.Ctx
}

func (fr *FiberResponse) Status() int {
	return fr.ctx.Response().StatusCode()
}

func (fr *FiberResponse) SetStatus(code int) {
	fr.ctx.Status(code)
}

func (fr *FiberResponse) Header(key string) string {
	return string(fr.ctx.Response().Header.Peek(key))
}

func (fr *FiberResponse) SetHeader(name, value string) {
	fr.ctx.Set(name, value)
}

func (fr *FiberResponse) markWritten() {
	fr.ctx.Locals(writtenLocal, true)
}

func (fr *FiberResponse) JSON(code int, data interface{}) error {
	fr.markWritten()
	return fr.ctx.Status(code).JSON(data)
}

// JSONPretty writes JSON; Fiber's encoder does not indent
func (fr *FiberResponse) JSONPretty(code int, data interface{}, indent string) error {
	return fr.JSON(code, data)
}

func (fr *FiberResponse) String(code int, s string) error {
	fr.markWritten()
	return fr.ctx.Status(code).SendString(s)
}

func (fr *FiberResponse) HTML(code int, html string) error {
	fr.markWritten()
	fr.ctx.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return fr.ctx.Status(code).SendString(html)
}

func (fr *FiberResponse) Blob(code int, contentType string, data []byte) error {
	fr.markWritten()
	fr.ctx.Set(fiber.HeaderContentType, contentType)
	return fr.ctx.Status(code).Send(data)
}

func (fr *FiberResponse) Stream(code int, contentType string, r interface{}) error {
	reader, ok := r.(io.Reader)
	if !ok {
		return keel.ErrInternalServerError("invalid stream reader")
	}
	fr.markWritten()
	fr.ctx.Set(fiber.HeaderContentType, contentType)
	return fr.ctx.Status(code).SendStream(reader)
}

func (fr *FiberResponse) SetCookie(cookie keel.Cookie) {
	fc := &fiber.Cookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		Path:     cookie.Path,
		Domain:   cookie.Domain,
		Expires:  cookie.Expires,
		MaxAge:   cookie.MaxAge,
		Secure:   cookie.Secure,
		HTTPOnly: cookie.HttpOnly,
	}
	switch cookie.SameSite {
	case keel.SameSiteStrictMode:
		fc.SameSite = fiber.CookieSameSiteStrictMode
	case keel.SameSiteNoneMode:
		fc.SameSite = fiber.CookieSameSiteNoneMode
	default:
		fc.SameSite = fiber.CookieSameSiteLaxMode
	}
	fr.ctx.Cookie(fc)
}

func (fr *FiberResponse) Size() int64 {
	return int64(len(fr.ctx.Response().Body()))
}

func (fr *FiberResponse) Written() bool {
	written, _ := fr.ctx.Locals(writtenLocal).(bool)
	return written
}

func (fr *FiberResponse) Writer() interface{} {
	return fr.ctx.Response().BodyWriter()
}
