package keel

import (
	"maps"
	"path/filepath"
	"slices"
)

// Default folder names resolved against a module's base directory
const (
	DefaultStaticFolder   = "static"
	DefaultTemplateFolder = "templates"
)

// BeforeInitFunc runs before the container is built. It may adjust the configuration.
type BeforeInitFunc func(cfg *Config) error

// ApplicationReadyFunc runs once the application is fully assembled
type ApplicationReadyFunc func(app *App) error

// ModuleMetadata is the declarative content of a module
type ModuleMetadata struct {
	Name        string
	Imports     []*Module
	Providers   []Provider
	Controllers []ControllerDef
	Routers     []*Router
	Commands    []*Command

	BaseDirectory  string
	StaticFolder   string
	TemplateFolder string

	BeforeInit       []BeforeInitFunc
	ApplicationReady []ApplicationReadyFunc
	OnStartup        []any
	OnShutdown       []any

	TemplateFilters   map[string]any
	TemplateGlobals   map[string]any
	ExceptionHandlers []ExceptionHandler
	Middleware        []MiddlewareFunc
	Guards            []Guard
}

func (m ModuleMetadata) clone() ModuleMetadata {
	c := m
	c.Imports = slices.Clone(m.Imports)
	c.Providers = slices.Clone(m.Providers)
	c.Controllers = slices.Clone(m.Controllers)
	c.Routers = slices.Clone(m.Routers)
	c.Commands = slices.Clone(m.Commands)
	c.BeforeInit = slices.Clone(m.BeforeInit)
	c.ApplicationReady = slices.Clone(m.ApplicationReady)
	c.OnStartup = slices.Clone(m.OnStartup)
	c.OnShutdown = slices.Clone(m.OnShutdown)
	c.TemplateFilters = maps.Clone(m.TemplateFilters)
	c.TemplateGlobals = maps.Clone(m.TemplateGlobals)
	c.ExceptionHandlers = slices.Clone(m.ExceptionHandlers)
	c.Middleware = slices.Clone(m.Middleware)
	c.Guards = slices.Clone(m.Guards)
	if c.TemplateFilters == nil {
		c.TemplateFilters = make(map[string]any)
	}
	if c.TemplateGlobals == nil {
		c.TemplateGlobals = make(map[string]any)
	}
	return c
}

// StaticDir returns the resolved static directory, or "" without a base directory
func (m ModuleMetadata) StaticDir() string {
	if m.BaseDirectory == "" || m.StaticFolder == "" {
		return ""
	}
	return filepath.Join(m.BaseDirectory, m.StaticFolder)
}

// TemplateDir returns the resolved template directory, or "" without a base directory
func (m ModuleMetadata) TemplateDir() string {
	if m.BaseDirectory == "" || m.TemplateFolder == "" {
		return ""
	}
	return filepath.Join(m.BaseDirectory, m.TemplateFolder)
}

// Module groups providers, controllers, routers and commands into one unit of
// an application. Modules are immutable once created.
type Module struct {
	meta   ModuleMetadata
	origin *Module // identity shared by Setup variants
}

// ModuleOption configures a module declaration
type ModuleOption func(*ModuleMetadata)

// NewModule declares a module
func NewModule(name string, opts ...ModuleOption) *Module {
	if name == "" {
		name = "module"
	}
	meta := ModuleMetadata{
		Name:           name,
		StaticFolder:   DefaultStaticFolder,
		TemplateFolder: DefaultTemplateFolder,
	}.clone()
	for _, opt := range opts {
		opt(&meta)
	}
	m := &Module{meta: meta}
	m.origin = m
	return m
}

// Name returns the module name
func (m *Module) Name() string {
	return m.meta.Name
}

// Metadata returns a copy of the module declaration
func (m *Module) Metadata() ModuleMetadata {
	return m.meta.clone()
}

// Setup returns a configured variant of the module. The variant keeps the
// module's identity, so wherever the plain module is imported the variant is used.
func (m *Module) Setup(opts ...ModuleOption) *Module {
	meta := m.meta.clone()
	for _, opt := range opts {
		opt(&meta)
	}
	return &Module{meta: meta, origin: m.origin}
}

// IsSetup reports whether m is a configured variant created by Setup
func (m *Module) IsSetup() bool {
	return m.origin != m
}

// Origin returns the module m was configured from, or m itself
func (m *Module) Origin() *Module {
	return m.origin
}

func (m *Module) String() string {
	return m.meta.Name
}

// Imports declares module dependencies
func Imports(modules ...*Module) ModuleOption {
	return func(m *ModuleMetadata) {
		m.Imports = append(m.Imports, modules...)
	}
}

// Providers registers services with the container
func Providers(providers ...Provider) ModuleOption {
	return func(m *ModuleMetadata) {
		m.Providers = append(m.Providers, providers...)
	}
}

// Controllers registers controllers to instantiate and mount
func Controllers(controllers ...ControllerDef) ModuleOption {
	return func(m *ModuleMetadata) {
		m.Controllers = append(m.Controllers, controllers...)
	}
}

// Routers registers inline route declarations
func Routers(routers ...*Router) ModuleOption {
	return func(m *ModuleMetadata) {
		m.Routers = append(m.Routers, routers...)
	}
}

// Commands registers CLI commands
func Commands(commands ...*Command) ModuleOption {
	return func(m *ModuleMetadata) {
		m.Commands = append(m.Commands, commands...)
	}
}

// BaseDirectory sets the root the static and template folders resolve against
func BaseDirectory(dir string) ModuleOption {
	return func(m *ModuleMetadata) {
		m.BaseDirectory = dir
	}
}

// StaticFolder sets the static folder relative to the base directory
func StaticFolder(dir string) ModuleOption {
	return func(m *ModuleMetadata) {
		m.StaticFolder = dir
	}
}

// TemplateFolder sets the template folder relative to the base directory
func TemplateFolder(dir string) ModuleOption {
	return func(m *ModuleMetadata) {
		m.TemplateFolder = dir
	}
}

// BeforeInit registers a module event run before the container is built
func BeforeInit(fn BeforeInitFunc) ModuleOption {
	return func(m *ModuleMetadata) {
		m.BeforeInit = append(m.BeforeInit, fn)
	}
}

// ApplicationReady registers a module event run once the application is assembled
func ApplicationReady(fn ApplicationReadyFunc) ModuleOption {
	return func(m *ModuleMetadata) {
		m.ApplicationReady = append(m.ApplicationReady, fn)
	}
}

// OnStartup registers a hook run when the application starts.
// fn has the form func(ctx context.Context, deps...) [error]; deps are injected.
func OnStartup(fn any) ModuleOption {
	return func(m *ModuleMetadata) {
		m.OnStartup = append(m.OnStartup, fn)
	}
}

// OnShutdown registers a hook run when the application stops, in reverse start order.
// fn has the same form as for OnStartup.
func OnShutdown(fn any) ModuleOption {
	return func(m *ModuleMetadata) {
		m.OnShutdown = append(m.OnShutdown, fn)
	}
}

// TemplateFilter registers a template function usable in pipelines: {{ .Name | upper }}
func TemplateFilter(name string, fn any) ModuleOption {
	return func(m *ModuleMetadata) {
		m.TemplateFilters[name] = fn
	}
}

// TemplateGlobal registers a value or function available in every template
func TemplateGlobal(name string, v any) ModuleOption {
	return func(m *ModuleMetadata) {
		m.TemplateGlobals[name] = v
	}
}

// Middleware registers middleware applied to every route of the application
func Middleware(middlewares ...MiddlewareFunc) ModuleOption {
	return func(m *ModuleMetadata) {
		m.Middleware = append(m.Middleware, middlewares...)
	}
}
