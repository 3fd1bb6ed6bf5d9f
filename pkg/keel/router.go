package keel

// Router declares routes inline, without a controller type. Handlers may take
// dependencies after the RequestContext; they are resolved when the application boots.
//
//	r := keel.NewRouter("/health")
//	r.Get("/", func(rc keel.RequestContext, db *sql.DB) (any, error) {
//	    return map[string]string{"status": "ok"}, db.PingContext(rc.Context())
//	})
type Router struct {
	*Routes
	prefix string
	cfg    mountConfig
}

// NewRouter creates a router mounted under prefix
func NewRouter(prefix string, opts ...MountOption) *Router {
	r := &Router{Routes: &Routes{}, prefix: prefix}
	for _, opt := range opts {
		opt(&r.cfg)
	}
	return r
}

// Prefix returns the mount prefix
func (r *Router) Prefix() string {
	return r.prefix
}

// Name returns the configured router name
func (r *Router) Name() string {
	return r.cfg.name
}
