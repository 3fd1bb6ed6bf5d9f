package keel

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"slices"
	"sort"
	"sync"
	"syscall"
	"text/tabwriter"

	"go.uber.org/dig"
	"go.uber.org/fx"
	"go.uber.org/zap"

	kerrors "github.com/toyz/keel/internal/errors"
)

var lifecycleType = reflect.TypeOf((*fx.Lifecycle)(nil)).Elem()

// Reserved command names handled by Execute
const (
	CommandServe  = "serve"
	CommandRoutes = "routes"
	CommandHelp   = "help"
)

type appState int

const (
	stateNew appState = iota
	stateRunning
	stateStopped
)

// mountedRoute is a route with its handler bound, waiting to be registered with the server
type mountedRoute struct {
	info       RouteInfo
	handler    HandlerFunc
	middleware []MiddlewareFunc
	guards     []Guard
	// static files skip application guards
	unguarded bool
}

// App is an application assembled from a root module and everything it imports
type App struct {
	root      *Module
	tree      *ModuleTree
	cfg       *Config
	log       *zap.Logger
	server    WebServerInterface
	templates *TemplateEnvironment
	registry  *InMemoryRouteRegistry
	out       io.Writer
	fxApp     *fx.App

	routes       []*mountedRoute
	commands     map[string]*boundCommand
	commandOrder []string
	exceptions   []ExceptionHandler
	middleware   []MiddlewareFunc
	guards       []Guard
	staticDirs   []string
	versioning   versioning

	errMu   sync.Mutex
	bootErr error
	hookErr error

	mu       sync.Mutex
	state    appState
	serveErr chan error
}

type appOptions struct {
	cfg           *Config
	configOpts    []ConfigOption
	values        map[string]any
	server        WebServerInterface
	serverFactory ServerFactory
	log           *zap.Logger
	fxOptions     []fx.Option
	out           io.Writer
}

// AppOption configures New
type AppOption func(*appOptions)

// WithConfig uses cfg instead of loading configuration from the environment
func WithConfig(cfg *Config) AppOption {
	return func(o *appOptions) {
		o.cfg = cfg
	}
}

// WithConfigOptions passes options to LoadConfig
func WithConfigOptions(opts ...ConfigOption) AppOption {
	return func(o *appOptions) {
		o.configOpts = append(o.configOpts, opts...)
	}
}

// WithConfigValues sets free-form configuration values after loading
func WithConfigValues(values map[string]any) AppOption {
	return func(o *appOptions) {
		if o.values == nil {
			o.values = make(map[string]any)
		}
		for k, v := range values {
			o.values[k] = v
		}
	}
}

// WithServer uses an existing web server instead of the configured adapter
func WithServer(server WebServerInterface) AppOption {
	return func(o *appOptions) {
		o.server = server
	}
}

// WithServerFactory builds the web server from the final configuration
func WithServerFactory(factory ServerFactory) AppOption {
	return func(o *appOptions) {
		o.serverFactory = factory
	}
}

// WithLogger uses log instead of building one from the configuration
func WithLogger(log *zap.Logger) AppOption {
	return func(o *appOptions) {
		o.log = log
	}
}

// WithFxOptions appends raw container options, e.g. fx.Replace or fx.Decorate in tests
func WithFxOptions(opts ...fx.Option) AppOption {
	return func(o *appOptions) {
		o.fxOptions = append(o.fxOptions, opts...)
	}
}

// WithOutput sets where built-in commands write (default os.Stdout)
func WithOutput(w io.Writer) AppOption {
	return func(o *appOptions) {
		o.out = w
	}
}

// New assembles an application from root:
//
//  1. load the configuration
//  2. build the module tree
//  3. run BeforeInit events in tree order
//  4. build the logger, web server and template environment
//  5. build the container with one fx module per keel module
//  6. mount routes and static folders
//  7. run ApplicationReady events in tree order
func New(root *Module, opts ...AppOption) (*App, error) {
	o := &appOptions{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	cfg := o.cfg
	if cfg == nil {
		var err error
		if cfg, err = LoadConfig(o.configOpts...); err != nil {
			return nil, err
		}
	}
	for k, v := range o.values {
		cfg.Set(k, v)
	}

	tree, err := BuildModuleTree(root)
	if err != nil {
		return nil, err
	}

	for _, node := range tree.Order() {
		for _, fn := range node.Module.meta.BeforeInit {
			if err := fn(cfg); err != nil {
				return nil, kerrors.WrapHookError(node.Name(), "before_init", err, ErrHook)
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		root:     tree.Root().Module,
		tree:     tree,
		cfg:      cfg,
		registry: NewInMemoryRouteRegistry(),
		out:      o.out,
		commands: make(map[string]*boundCommand),
		serveErr: make(chan error, 1),
	}
	a.versioning = newVersioning(cfg)

	if err := a.setupRuntime(o); err != nil {
		return nil, err
	}
	if err := a.buildContainer(o.fxOptions); err != nil {
		return nil, err
	}
	if err := a.mount(); err != nil {
		return nil, err
	}

	for _, node := range tree.Order() {
		for _, fn := range node.Module.meta.ApplicationReady {
			if err := fn(a); err != nil {
				return nil, kerrors.WrapHookError(node.Name(), "application_ready", err, ErrHook)
			}
		}
	}

	a.log.Debug("application assembled",
		zap.String("root", a.root.Name()),
		zap.Int("modules", tree.Len()),
		zap.Int("routes", len(a.routes)),
		zap.String("adapter", a.server.Name()))
	return a, nil
}

// setupRuntime builds the logger, server and template environment and collects
// per-module exception handlers, middleware and static folders.
func (a *App) setupRuntime(o *appOptions) error {
	a.log = o.log
	if a.log == nil {
		log, err := NewLogger(a.cfg)
		if err != nil {
			return err
		}
		a.log = log
	}

	switch {
	case o.server != nil:
		a.server = o.server
	case o.serverFactory != nil:
		server, err := o.serverFactory(a.cfg)
		if err != nil {
			return kerrors.WrapConfigurationError("server", "build", err)
		}
		a.server = server
	default:
		server, err := NewWebServer(a.cfg)
		if err != nil {
			return err
		}
		a.server = server
	}

	templates, err := buildTemplateEnvironment(a.tree, a.templateBuiltins(), !a.cfg.Debug)
	if err != nil {
		return err
	}
	a.templates = templates

	// root module first
	order := a.tree.Order()
	for i := len(order) - 1; i >= 0; i-- {
		meta := order[i].Module.meta
		a.exceptions = append(a.exceptions, meta.ExceptionHandlers...)
		a.middleware = append(a.middleware, meta.Middleware...)
		a.guards = append(a.guards, meta.Guards...)
		if dir := meta.StaticDir(); dir != "" {
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				a.staticDirs = append(a.staticDirs, dir)
			}
		}
	}

	seen := make(map[string]string)
	for _, node := range order {
		for _, cmd := range node.Module.meta.Commands {
			if cmd == nil {
				return kerrors.ImproperConfiguration(node.Name(), "nil command", ErrImproperConfiguration)
			}
			switch cmd.Name() {
			case CommandServe, CommandRoutes, CommandHelp:
				return kerrors.ImproperConfiguration(node.Name(),
					fmt.Sprintf("command name %q is reserved", cmd.Name()), ErrImproperConfiguration)
			}
			if other, dup := seen[cmd.Name()]; dup {
				return kerrors.ImproperConfiguration(node.Name(),
					fmt.Sprintf("command %q is already declared by module %s", cmd.Name(), other), ErrImproperConfiguration)
			}
			seen[cmd.Name()] = node.Name()
		}
	}
	return nil
}

func (a *App) templateBuiltins() template.FuncMap {
	return template.FuncMap{
		"url_for": func(name string, args ...any) (string, error) {
			values, err := urlForArgs(args)
			if err != nil {
				return "", err
			}
			return a.URLFor(name, values)
		},
		"static_url": a.StaticURL,
	}
}

// buildContainer declares every module's providers, controllers, routers, commands
// and hooks and constructs the fx application, which runs the invokes.
func (a *App) buildContainer(extra []fx.Option) error {
	options := []fx.Option{
		fxLogger(a.log, a.cfg.Debug),
		fx.StartTimeout(a.cfg.ShutdownTimeout),
		fx.StopTimeout(a.cfg.ShutdownTimeout),
		fx.Supply(a.cfg, a.log, a, a.templates),
		fx.Provide(
			func() WebServerInterface { return a.server },
			func() RouteRegistry { return a.registry },
		),
	}
	for _, node := range a.tree.Order() {
		opts, err := a.moduleOptions(node)
		if err != nil {
			return err
		}
		options = append(options, fx.Module(node.Name(), opts...))
	}
	options = append(options, extra...)

	a.fxApp = fx.New(options...)
	if err := a.fxApp.Err(); err != nil {
		if bootErr := a.firstBootErr(); bootErr != nil {
			return bootErr
		}
		return kerrors.WrapDependencyError(err, ErrDependency).
			WithContext("root_cause", dig.RootCause(err).Error())
	}
	return nil
}

func (a *App) moduleOptions(node *TreeNode) ([]fx.Option, error) {
	name := node.Name()
	meta := node.Module.meta
	var opts []fx.Option

	for _, p := range meta.Providers {
		opt, err := p.fxOption(name)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}

	for _, def := range meta.Controllers {
		inj, err := def.validate()
		if err != nil {
			return nil, kerrors.WrapRouteError(name, def.Prefix, err)
		}
		opts = append(opts, fx.Invoke(inj.invoker(func(_, deps []reflect.Value) error {
			return a.boot(a.mountController(name, def, inj, deps))
		})))
	}

	for _, router := range meta.Routers {
		if router == nil {
			return nil, kerrors.ImproperConfiguration(name, "nil router", ErrImproperConfiguration)
		}
		owner := router.Name()
		if owner == "" {
			owner = name
		}
		for _, def := range router.defs {
			inj, err := newHandlerInjectable(def.handler)
			if err != nil {
				return nil, kerrors.WrapRouteError(name, def.spec, err)
			}
			opts = append(opts, fx.Invoke(inj.invoker(func(_, deps []reflect.Value) error {
				return a.boot(a.addRoute(name, owner, router.prefix, router.cfg, def, adaptHandler(inj, deps)))
			})))
		}
	}

	for _, cmd := range meta.Commands {
		inj, err := cmd.validate()
		if err != nil {
			return nil, kerrors.WrapCommandError(name, cmd.Name(), err)
		}
		opts = append(opts, fx.Invoke(inj.invoker(func(_, deps []reflect.Value) error {
			a.commands[cmd.Name()] = &boundCommand{
				cmd:    cmd,
				module: name,
				run: func(cc *CommandContext) error {
					_, err := inj.call([]reflect.Value{reflect.ValueOf(cc)}, deps)
					return err
				},
			}
			a.commandOrder = append(a.commandOrder, cmd.Name())
			return nil
		})))
	}

	for _, fn := range meta.OnStartup {
		opt, err := a.hookOption(name, "on_startup", fn, true)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	for _, fn := range meta.OnShutdown {
		opt, err := a.hookOption(name, "on_shutdown", fn, false)
		if err != nil {
			return nil, err
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

// hookOption binds a startup or shutdown hook to the fx lifecycle. fx runs stop
// hooks in reverse order of registration.
func (a *App) hookOption(module, kind string, fn any, startup bool) (fx.Option, error) {
	inj, err := newInjectable(fn, contextType)
	if err != nil {
		return nil, kerrors.ImproperConfiguration(module, fmt.Sprintf("%s hook: %v", kind, err), ErrImproperConfiguration)
	}
	if inj.results != 0 {
		return nil, kerrors.ImproperConfiguration(module, fmt.Sprintf("%s hook %s must return only an error", kind, inj), ErrImproperConfiguration)
	}
	hookName := kind
	if n := handlerName(fn); n != "" {
		hookName = kind + ":" + n
	}

	return fx.Invoke(inj.invoker(func(extra, deps []reflect.Value) error {
		lc := extra[0].Interface().(fx.Lifecycle)
		run := func(ctx context.Context) error {
			ctx = WithApp(ctx, a)
			if _, err := inj.call([]reflect.Value{reflect.ValueOf(&ctx).Elem()}, deps); err != nil {
				return a.hookFailed(kerrors.WrapHookError(module, hookName, err, ErrHook))
			}
			return nil
		}
		if startup {
			lc.Append(fx.Hook{OnStart: run})
		} else {
			lc.Append(fx.Hook{OnStop: run})
		}
		return nil
	}, lifecycleType)), nil
}

// mountController builds a controller instance and collects its routes
func (a *App) mountController(module string, def ControllerDef, inj *injectable, deps []reflect.Value) error {
	out, err := inj.call(nil, deps)
	if err != nil {
		return kerrors.WrapProviderError(module, inj.String(), err)
	}
	instance, ok := out[0].Interface().(RouteMounter)
	if !ok || isNilValue(out[0]) {
		return kerrors.ImproperConfiguration(module, fmt.Sprintf("controller constructor %s returned nil", inj), ErrImproperConfiguration)
	}

	routes := &Routes{}
	instance.Routes(routes)
	owner := def.owner(out[0].Type())
	for _, rd := range routes.defs {
		hinj, err := newHandlerInjectable(rd.handler)
		if err != nil {
			return kerrors.WrapRouteError(module, rd.spec, err)
		}
		if len(hinj.depTypes()) > 0 {
			return kerrors.WrapRouteError(module, rd.spec,
				fmt.Errorf("%w: controller handlers take only the RequestContext; inject dependencies into the controller", ErrImproperConfiguration))
		}
		if err := a.addRoute(module, owner, def.Prefix, def.cfg, rd, adaptHandler(hinj, nil)); err != nil {
			return err
		}
	}
	return nil
}

// addRoute parses a declaration and queues one mounted route per method
func (a *App) addRoute(module, owner, prefix string, cfg mountConfig, def *routeDef, handler HandlerFunc) error {
	spec, err := ParseRouteSpec(def.spec)
	if err != nil {
		return kerrors.WrapRouteError(module, def.spec, err)
	}
	path := JoinPaths(prefix, spec.Path.Raw())
	versions, err := a.versioning.routeVersions(cfg.versions, def.versions)
	if err != nil {
		return kerrors.WrapRouteError(module, def.spec, err)
	}

	name := def.name
	if name == "" {
		if fn := handlerName(def.handler); fn != "" {
			name = owner + ":" + fn
		}
	}

	middleware := append(append([]MiddlewareFunc{}, cfg.middleware...), def.middleware...)
	guards := append(append([]Guard{}, cfg.guards...), def.guards...)
	for _, version := range versions {
		for _, method := range spec.Methods {
			a.routes = append(a.routes, &mountedRoute{
				info: RouteInfo{
					Method:  method,
					Path:    RoutePath(a.versioning.path(path, version)),
					Name:    name,
					Module:  module,
					Owner:   owner,
					Tags:    cfg.tags,
					Version: version,
				},
				handler:    handler,
				middleware: middleware,
				guards:     guards,
			})
		}
	}
	return nil
}

// mount registers every queued route with the server, wrapped in the
// application middleware stack.
func (a *App) mount() error {
	if len(a.staticDirs) > 0 {
		a.routes = append(a.routes, &mountedRoute{
			info: RouteInfo{
				Method: http.MethodGet,
				Path:   RoutePath(JoinPaths(a.cfg.StaticURL, "/{*}")),
				Name:   "static",
				Module: a.root.Name(),
				Owner:  "static",
			},
			handler:   staticHandler(a.cfg.StaticURL, a.staticDirs),
			unguarded: true,
		})
	}

	// with header or query versioning, versions of a route share one
	// registration and are picked per request
	dispatched := make(map[string][]versionedHandler)
	var dispatchOrder []*mountedRoute

	for _, route := range a.routes {
		if err := a.registry.Register(route.info); err != nil {
			return kerrors.WrapRouteError(route.info.Module, route.info.Method+" "+route.info.Path.Raw(), err)
		}

		var chain []MiddlewareFunc
		if a.cfg.EnableRequestID {
			chain = append(chain, RequestIDMiddleware())
		}
		chain = append(chain, appContextMiddleware(a, route.info))
		if a.cfg.EnableTracing {
			chain = append(chain, TracingMiddleware(route.info))
		}
		// Module middleware runs between two exception layers: errors it returns
		// are still handled, and it observes the status written for handler errors.
		if len(a.middleware) > 0 {
			chain = append(chain, exceptionMiddleware(a.exceptions, a.log))
			chain = append(chain, a.middleware...)
		}
		chain = append(chain, exceptionMiddleware(a.exceptions, a.log))
		if check := paramTypeMiddleware(route.info.Path); check != nil {
			chain = append(chain, check)
		}
		chain = append(chain, route.middleware...)
		var guards []Guard
		if !route.unguarded {
			guards = append(slices.Clone(a.guards), route.guards...)
		}
		if len(guards) > 0 {
			chain = append(chain, guardMiddleware(guards))
		}
		handler := Chain(route.handler, chain...)

		if !a.versioning.dispatches() {
			a.server.RegisterRoute(route.info.Method, route.info.Path, handler)
			continue
		}
		key := route.info.Method + " " + route.info.Path.Raw()
		if _, ok := dispatched[key]; !ok {
			dispatchOrder = append(dispatchOrder, route)
		}
		dispatched[key] = append(dispatched[key], versionedHandler{version: route.info.Version, handler: handler})
	}

	for _, route := range dispatchOrder {
		handlers := dispatched[route.info.Method+" "+route.info.Path.Raw()]
		if len(handlers) == 1 && handlers[0].version == "" {
			a.server.RegisterRoute(route.info.Method, route.info.Path, handlers[0].handler)
			continue
		}
		dispatch := exceptionMiddleware(a.exceptions, a.log)(a.versioning.dispatch(handlers))
		a.server.RegisterRoute(route.info.Method, route.info.Path, dispatch)
	}
	return nil
}

func (a *App) boot(err error) error {
	if err == nil {
		return nil
	}
	a.errMu.Lock()
	if a.bootErr == nil {
		a.bootErr = err
	}
	a.errMu.Unlock()
	return err
}

func (a *App) firstBootErr() error {
	a.errMu.Lock()
	defer a.errMu.Unlock()
	return a.bootErr
}

func (a *App) hookFailed(err error) error {
	a.errMu.Lock()
	if a.hookErr == nil {
		a.hookErr = err
	}
	a.errMu.Unlock()
	return err
}

func (a *App) takeHookErr(fallback error) error {
	a.errMu.Lock()
	defer a.errMu.Unlock()
	if a.hookErr != nil {
		err := a.hookErr
		a.hookErr = nil
		return err
	}
	return fallback
}

// transition moves from one state to another or reports why it can't
func (a *App) transition(from, to appState) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != from {
		if from == stateNew {
			return ErrAlreadyStarted
		}
		return ErrNotStarted
	}
	a.state = to
	return nil
}

// Start runs the OnStartup hooks in tree order and starts serving in the background
func (a *App) Start(ctx context.Context) error {
	if err := a.transition(stateNew, stateRunning); err != nil {
		return err
	}
	if err := a.fxApp.Start(WithApp(ctx, a)); err != nil {
		a.setState(stateStopped)
		return a.takeHookErr(kerrors.WrapHookError(a.root.Name(), "start", err, ErrHook))
	}

	addr := a.cfg.Addr()
	go func() {
		err := a.server.Start(addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		a.serveErr <- err
	}()
	a.log.Info("application started",
		zap.String("addr", addr),
		zap.String("adapter", a.server.Name()))
	return nil
}

// Stop stops serving and runs the OnShutdown hooks in reverse order
func (a *App) Stop(ctx context.Context) error {
	if err := a.transition(stateRunning, stateStopped); err != nil {
		return err
	}
	serverErr := a.server.Stop(ctx)
	if err := a.fxApp.Stop(WithApp(ctx, a)); err != nil {
		return errors.Join(serverErr, a.takeHookErr(kerrors.WrapHookError(a.root.Name(), "stop", err, ErrHook)))
	}
	a.log.Info("application stopped")
	return serverErr
}

func (a *App) setState(s appState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Run starts the application and blocks until ctx is done, SIGINT or SIGTERM
// arrives, or the server fails. Shutdown is bounded by Config.ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-a.serveErr:
		if serveErr != nil {
			a.log.Error("server stopped unexpectedly", zap.Error(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return errors.Join(serveErr, a.Stop(shutdownCtx))
}

// RunCommand runs a module command: startup hooks, the command, then shutdown hooks.
// args[0] is the command name; the rest are parsed with the command's flags.
func (a *App) RunCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", ErrCommandNotFound)
	}
	bc, ok := a.commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCommandNotFound, args[0])
	}

	fs := bc.cmd.FlagSet(a.out)
	if err := fs.Parse(args[1:]); err != nil {
		return kerrors.WrapCommandError(bc.module, bc.cmd.Name(), err)
	}

	if err := a.transition(stateNew, stateRunning); err != nil {
		return err
	}
	defer a.setState(stateStopped)

	ctx = WithApp(ctx, a)
	if err := a.fxApp.Start(ctx); err != nil {
		return a.takeHookErr(kerrors.WrapHookError(a.root.Name(), "start", err, ErrHook))
	}

	runErr := bc.run(&CommandContext{Args: fs.Args(), Flags: fs, Out: a.out, ctx: ctx})
	if runErr != nil {
		runErr = kerrors.WrapCommandError(bc.module, bc.cmd.Name(), runErr)
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.fxApp.Stop(stopCtx); err != nil {
		return errors.Join(runErr, a.takeHookErr(kerrors.WrapHookError(a.root.Name(), "stop", err, ErrHook)))
	}
	return runErr
}

// Execute dispatches a command line: no arguments or "serve" runs the server,
// "routes" prints the route table, "help" lists commands, anything else runs
// a module command.
func (a *App) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.Run(ctx)
	}
	switch args[0] {
	case CommandServe:
		return a.Run(ctx)
	case CommandRoutes:
		return a.PrintRoutes(a.out)
	case CommandHelp, "-h", "--help":
		return a.PrintHelp(a.out)
	}
	return a.RunCommand(ctx, args)
}

// PrintRoutes writes the route table
func (a *App) PrintRoutes(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tNAME\tMODULE\tOWNER\tVERSION")
	for _, r := range a.registry.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Method, r.Path, r.Name, r.Module, r.Owner, r.Version)
	}
	return tw.Flush()
}

// PrintHelp lists the available commands
func (a *App) PrintHelp(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Usage: %s <command> [flags]\n\nCommands:\n", a.root.Name())
	fmt.Fprintf(tw, "  %s\t%s\n", CommandServe, "start the web server (default)")
	fmt.Fprintf(tw, "  %s\t%s\n", CommandRoutes, "list the mounted routes")
	names := append([]string(nil), a.commandOrder...)
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(tw, "  %s\t%s\n", name, a.commands[name].cmd.Usage())
	}
	return tw.Flush()
}

// Handler exposes the application as a standard http.Handler
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// Config returns the application configuration
func (a *App) Config() *Config {
	return a.cfg
}

// Logger returns the application logger
func (a *App) Logger() *zap.Logger {
	return a.log
}

// Tree returns the module tree
func (a *App) Tree() *ModuleTree {
	return a.tree
}

// Server returns the web server
func (a *App) Server() WebServerInterface {
	return a.server
}

// Routes returns the route registry
func (a *App) Routes() RouteRegistry {
	return a.registry
}

// Templates returns the template environment
func (a *App) Templates() *TemplateEnvironment {
	return a.templates
}

// Commands returns the module commands in registration order
func (a *App) Commands() []*Command {
	cmds := make([]*Command, 0, len(a.commandOrder))
	for _, name := range a.commandOrder {
		cmds = append(cmds, a.commands[name].cmd)
	}
	return cmds
}

// URLFor builds the URL of a named route
func (a *App) URLFor(name string, values map[string]string) (string, error) {
	return ReverseRoute(a.registry, name, values)
}

// StaticURL returns the public URL of a file in a module static folder
func (a *App) StaticURL(path string) string {
	return JoinPaths(a.cfg.StaticURL, path)
}

// Render writes the named template as an HTML response
func (a *App) Render(rc RequestContext, code int, name string, data any) error {
	return a.templates.Render(rc, code, name, data)
}
