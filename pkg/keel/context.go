package keel

import "context"

type appContextKey struct{}

// RequestContext keys set for every mounted route
const (
	requestAppKey   = "keel.app"
	requestRouteKey = "keel.route"
)

// WithApp returns a context carrying app
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appContextKey{}, app)
}

// CurrentApp returns the application carried by ctx
func CurrentApp(ctx context.Context) (*App, error) {
	if ctx != nil {
		if app, ok := ctx.Value(appContextKey{}).(*App); ok && app != nil {
			return app, nil
		}
	}
	return nil, ErrNoApplicationContext
}

// CurrentConfig returns the configuration of the application carried by ctx
func CurrentConfig(ctx context.Context) (*Config, error) {
	app, err := CurrentApp(ctx)
	if err != nil {
		return nil, err
	}
	return app.Config(), nil
}

// AppFromRequest returns the application serving the request
func AppFromRequest(rc RequestContext) (*App, error) {
	if app, ok := rc.Get(requestAppKey).(*App); ok && app != nil {
		return app, nil
	}
	return CurrentApp(rc.Context())
}

// CurrentRoute returns the route that matched the request
func CurrentRoute(rc RequestContext) (RouteInfo, bool) {
	route, ok := rc.Get(requestRouteKey).(RouteInfo)
	return route, ok
}
