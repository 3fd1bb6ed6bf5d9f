// Package keeltest builds keel applications for tests: a zaptest logger, an
// in-process server that never binds a port, and helpers for issuing requests
// against the mounted routes.
package keeltest

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap/zaptest"

	"github.com/toyz/keel/pkg/keel"
	"github.com/toyz/keel/pkg/keel/adapters"
)

// App is a keel application bound to a test
type App struct {
	*keel.App
	t   testing.TB
	out *bytes.Buffer
}

type options struct {
	cfg       *keel.Config
	values    map[string]any
	fxOptions []fx.Option
}

// Option configures New
type Option func(*options)

// WithAdapter selects the web server adapter
func WithAdapter(name string) Option {
	return func(o *options) {
		o.cfg.Adapter = name
	}
}

// WithConfig mutates the test configuration before the app is built
func WithConfig(fn func(*keel.Config)) Option {
	return func(o *options) {
		fn(o.cfg)
	}
}

// WithValues sets free-form configuration values
func WithValues(values map[string]any) Option {
	return func(o *options) {
		for k, v := range values {
			o.values[k] = v
		}
	}
}

// Replace swaps provided values for the given ones, e.g. a fake repository
func Replace(values ...any) Option {
	return func(o *options) {
		o.fxOptions = append(o.fxOptions, fx.Replace(values...))
	}
}

// Decorate wraps provided values with the given decorator functions
func Decorate(decorators ...any) Option {
	return func(o *options) {
		o.fxOptions = append(o.fxOptions, fx.Decorate(decorators...))
	}
}

// Populate fills targets with values from the container once the app is built
func Populate(targets ...any) Option {
	return func(o *options) {
		o.fxOptions = append(o.fxOptions, fx.Populate(targets...))
	}
}

// New builds root for a test and fails the test if the app cannot be built
func New(t testing.TB, root *keel.Module, opts ...Option) *App {
	t.Helper()
	app, err := Build(t, root, opts...)
	require.NoError(t, err)
	return app
}

// Build is New without the assertion, for tests that expect a boot error
func Build(t testing.TB, root *keel.Module, opts ...Option) (*App, error) {
	t.Helper()
	cfg := keel.DefaultConfig()
	cfg.Port = 0
	cfg.EnableRequestID = true
	o := &options{cfg: cfg, values: make(map[string]any)}
	for _, opt := range opts {
		opt(o)
	}

	out := &bytes.Buffer{}
	app, err := keel.New(root,
		keel.WithConfig(o.cfg),
		keel.WithConfigValues(o.values),
		keel.WithLogger(zaptest.NewLogger(t)),
		keel.WithServerFactory(func(cfg *keel.Config) (keel.WebServerInterface, error) {
			server, err := adapters.Factory(cfg)
			if err != nil {
				return nil, err
			}
			return NewServer(server), nil
		}),
		keel.WithFxOptions(o.fxOptions...),
		keel.WithOutput(out),
	)
	if err != nil {
		return nil, err
	}
	return &App{App: app, t: t, out: out}, nil
}

// Start runs the startup hooks and stops the app when the test ends
func (a *App) Start() {
	a.t.Helper()
	require.NoError(a.t, a.App.Start(context.Background()))
	a.t.Cleanup(func() {
		_ = a.App.Stop(context.Background())
	})
}

// Output returns what built-in and module commands have written so far
func (a *App) Output() string {
	return a.out.String()
}

// Do serves req through the app's handler
func (a *App) Do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	return rec
}

// Get issues a GET request
func (a *App) Get(path string) *httptest.ResponseRecorder {
	return a.Do(httptest.NewRequest(http.MethodGet, path, nil))
}

// Request issues a request with an optional body
func (a *App) Request(method, path string, body io.Reader) *httptest.ResponseRecorder {
	return a.Do(httptest.NewRequest(method, path, body))
}

// PostJSON encodes v and posts it to path
func (a *App) PostJSON(path string, v any) *httptest.ResponseRecorder {
	a.t.Helper()
	body, err := json.Marshal(v)
	require.NoError(a.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return a.Do(req)
}

// DecodeJSON decodes a recorded response body into v
func DecodeJSON(t testing.TB, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(v))
}

// Server wraps an adapter so Start blocks until Stop without listening.
// Requests reach the adapter through Handler.
type Server struct {
	keel.WebServerInterface

	once sync.Once
	done chan struct{}
}

// NewServer wraps server
func NewServer(server keel.WebServerInterface) *Server {
	return &Server{WebServerInterface: server, done: make(chan struct{})}
}

// Start blocks until Stop is called
func (s *Server) Start(string) error {
	<-s.done
	return nil
}

// Stop releases Start
func (s *Server) Stop(context.Context) error {
	s.once.Do(func() { close(s.done) })
	return nil
}
