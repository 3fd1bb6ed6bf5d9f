package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/toyz/keel/pkg/keel"
)

// Defaults applied by NewManager
const (
	DefaultCookieName = "session"
	DefaultMaxAge     = 14 * 24 * time.Hour
)

const requestSessionKey = "keel.session"

// Options configures session cookies
type Options struct {
	// SecretKey signs the cookie; required
	SecretKey string
	// CookieName defaults to "session"
	CookieName string
	// MaxAge bounds the session lifetime (default 14 days)
	MaxAge time.Duration
	// Path defaults to "/"
	Path     string
	Domain   string
	Secure   bool
	SameSite keel.SameSiteMode
}

type claims struct {
	Data map[string]any `json:"data"`
	jwt.RegisteredClaims
}

// Manager loads and stores sessions
type Manager struct {
	mu   sync.RWMutex
	opts Options
	now  func() time.Time
}

// NewManager validates opts and fills in defaults
func NewManager(opts Options) (*Manager, error) {
	m := &Manager{now: time.Now}
	if err := m.configure(opts); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) configure(opts Options) error {
	if opts.SecretKey == "" {
		return fmt.Errorf("%w: session secret key is empty", keel.ErrImproperConfiguration)
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.SameSite == 0 {
		opts.SameSite = keel.SameSiteLaxMode
	}
	m.mu.Lock()
	m.opts = opts
	m.mu.Unlock()
	return nil
}

func (m *Manager) options() Options {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opts
}

// Encode signs values into a cookie value
func (m *Manager) Encode(values map[string]any) (string, error) {
	opts := m.options()
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims{
		Data: values,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(opts.MaxAge)),
		},
	})
	return token.SignedString([]byte(opts.SecretKey))
}

// Decode verifies a cookie value and returns the values it carries
func (m *Manager) Decode(value string) (map[string]any, error) {
	opts := m.options()
	var parsed claims
	_, err := jwt.ParseWithClaims(value, &parsed, func(*jwt.Token) (any, error) {
		return []byte(opts.SecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, err
	}
	return parsed.Data, nil
}

// Load reads the session of a request. A missing, tampered or expired cookie
// yields a new empty session.
func (m *Manager) Load(rc keel.RequestContext) *Session {
	cookie, err := rc.Request().Cookie(m.options().CookieName)
	if err != nil || cookie.Value == "" {
		return newSession(nil, true)
	}
	values, err := m.Decode(cookie.Value)
	if err != nil {
		return newSession(nil, true)
	}
	return newSession(values, false)
}

// Save writes the session cookie when the session changed
func (m *Manager) Save(rc keel.RequestContext, s *Session) error {
	values, modified := s.snapshot()
	if !modified {
		return nil
	}
	opts := m.options()
	cookie := keel.Cookie{
		Name:     opts.CookieName,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: opts.SameSite,
	}
	if len(values) == 0 {
		if s.IsNew() {
			return nil
		}
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		rc.Response().SetCookie(cookie)
		return nil
	}
	value, err := m.Encode(values)
	if err != nil {
		return err
	}
	cookie.Value = value
	cookie.MaxAge = int(opts.MaxAge / time.Second)
	cookie.Expires = m.now().Add(opts.MaxAge)
	rc.Response().SetCookie(cookie)
	return nil
}

// Middleware loads the session before the handler runs. The cookie is written
// just before the first byte of the response.
func (m *Manager) Middleware() keel.MiddlewareFunc {
	return func(next keel.HandlerFunc) keel.HandlerFunc {
		return func(rc keel.RequestContext) error {
			s := m.Load(rc)
			src := &sessionContext{RequestContext: rc}
			src.resp = &sessionResponse{ResponseInterface: rc.Response(), flush: func() error {
				return m.Save(rc, s)
			}}
			rc.Set(requestSessionKey, s)

			err := next(src)
			if !src.resp.flushed && !rc.Response().Written() {
				if serr := src.resp.flushOnce(); serr != nil {
					return errors.Join(err, serr)
				}
			}
			return err
		}
	}
}

// FromRequest returns the session of the current request
func FromRequest(rc keel.RequestContext) (*Session, error) {
	if s, ok := rc.Get(requestSessionKey).(*Session); ok && s != nil {
		return s, nil
	}
	return nil, ErrNoSession
}

// sessionContext hands the handler a response that writes the cookie first
type sessionContext struct {
	keel.RequestContext
	resp *sessionResponse
}

func (c *sessionContext) Response() keel.ResponseInterface {
	return c.resp
}

type sessionResponse struct {
	keel.ResponseInterface
	flush   func() error
	flushed bool
}

func (r *sessionResponse) flushOnce() error {
	if r.flushed {
		return nil
	}
	r.flushed = true
	return r.flush()
}

func (r *sessionResponse) JSON(code int, i interface{}) error {
	if err := r.flushOnce(); err != nil {
		return err
	}
	return r.ResponseInterface.JSON(code, i)
}

func (r *sessionResponse) JSONPretty(code int, i interface{}, indent string) error {
	if err := r.flushOnce(); err != nil {
		return err
	}
	return r.ResponseInterface.JSONPretty(code, i, indent)
}

func (r *sessionResponse) String(code int, s string) error {
	if err := r.flushOnce(); err != nil {
		return err
	}
	return r.ResponseInterface.String(code, s)
}

func (r *sessionResponse) HTML(code int, html string) error {
	if err := r.flushOnce(); err != nil {
		return err
	}
	return r.ResponseInterface.HTML(code, html)
}

func (r *sessionResponse) Blob(code int, contentType string, b []byte) error {
	if err := r.flushOnce(); err != nil {
		return err
	}
	return r.ResponseInterface.Blob(code, contentType, b)
}

func (r *sessionResponse) Stream(code int, contentType string, rd interface{}) error {
	if err := r.flushOnce(); err != nil {
		return err
	}
	return r.ResponseInterface.Stream(code, contentType, rd)
}

func (r *sessionResponse) SetStatus(code int) {
	_ = r.flushOnce()
	r.ResponseInterface.SetStatus(code)
}
