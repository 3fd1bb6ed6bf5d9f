// Package adapters implements keel.WebServerInterface for echo, gin, fiber and
// chi. Importing the package registers the adapters under the names accepted
// by keel.Config.Adapter.
package adapters

import (
	"errors"
	"net/http"
	"strings"

	"github.com/toyz/keel/pkg/keel"
)

func init() {
	keel.RegisterAdapter("echo", func(cfg *keel.Config) (keel.WebServerInterface, error) {
		return NewDefaultEchoAdapter(), nil
	})
	keel.RegisterAdapter("gin", func(cfg *keel.Config) (keel.WebServerInterface, error) {
		return NewGinAdapterForConfig(cfg), nil
	})
	keel.RegisterAdapter("fiber", func(cfg *keel.Config) (keel.WebServerInterface, error) {
		return NewDefaultFiberAdapter(), nil
	})
	keel.RegisterAdapter("chi", func(cfg *keel.Config) (keel.WebServerInterface, error) {
		return NewDefaultChiAdapter(cfg), nil
	})
}

// Factory builds the adapter named by cfg.Adapter from the registered
// adapters, echo when the name is empty.
func Factory(cfg *keel.Config) (keel.WebServerInterface, error) {
	if cfg.Adapter == "" {
		return NewDefaultEchoAdapter(), nil
	}
	return keel.NewWebServer(cfg)
}

// convertPath renders a keel path in a router's syntax: parameters become
// ":name" and the wildcard becomes wildcard.
func convertPath(path keel.RoutePath, wildcard string) string {
	var b strings.Builder
	for _, part := range path.Parts() {
		switch part.Type {
		case keel.ParameterPart:
			b.WriteString(":" + part.Value)
		case keel.WildcardPart:
			b.WriteString(wildcard)
		default:
			b.WriteString(part.Value)
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

// writeError renders an error that reached the adapter unhandled
func writeError(rc keel.RequestContext, err error) error {
	if rc.Response().Written() {
		return nil
	}
	status := keel.StatusCodeOf(err)
	var httpErr *keel.HttpError
	if errors.As(err, &httpErr) {
		return rc.Response().JSON(status, httpErr)
	}
	return rc.Response().JSON(status, keel.NewHttpError(status, ""))
}

func fromHTTPCookie(c *http.Cookie) keel.Cookie {
	return keel.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		MaxAge:   c.MaxAge,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		SameSite: keel.SameSiteMode(c.SameSite),
	}
}

func toHTTPCookie(c keel.Cookie) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		MaxAge:   c.MaxAge,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		SameSite: http.SameSite(c.SameSite),
	}
}

func fromHTTPCookies(cookies []*http.Cookie) []keel.Cookie {
	result := make([]keel.Cookie, len(cookies))
	for i, c := range cookies {
		result[i] = fromHTTPCookie(c)
	}
	return result
}
