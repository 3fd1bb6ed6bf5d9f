package keel

// Guard decides whether a request may reach its handler. Returning false
// answers 403; returning an error hands it to the exception handlers.
type Guard interface {
	CanActivate(rc RequestContext) (bool, error)
}

// GuardFunc adapts a function to Guard
type GuardFunc func(rc RequestContext) (bool, error)

// CanActivate calls f
func (f GuardFunc) CanActivate(rc RequestContext) (bool, error) {
	return f(rc)
}

// Guards registers guards that run for every route of the application, before
// controller, router and route guards.
func Guards(guards ...Guard) ModuleOption {
	return func(m *ModuleMetadata) {
		m.Guards = append(m.Guards, guards...)
	}
}

// WithGuards applies guards to a single route
func WithGuards(guards ...Guard) RouteOption {
	return func(r *routeDef) {
		r.guards = append(r.guards, guards...)
	}
}

// WithGroupGuards applies guards to every route of a controller or router
func WithGroupGuards(guards ...Guard) MountOption {
	return func(c *mountConfig) {
		c.guards = append(c.guards, guards...)
	}
}

// guardMiddleware runs guards in order and stops at the first refusal
func guardMiddleware(guards []Guard) MiddlewareFunc {
	return func(next HandlerFunc) HandlerFunc {
		return func(rc RequestContext) error {
			for _, g := range guards {
				ok, err := g.CanActivate(rc)
				if err != nil {
					return err
				}
				if !ok {
					return ErrForbidden("")
				}
			}
			return next(rc)
		}
	}
}
