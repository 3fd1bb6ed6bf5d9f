package keel

import (
	"fmt"
	"reflect"
)

var routeMounterType = reflect.TypeOf((*RouteMounter)(nil)).Elem()

// RouteMounter is implemented by controllers to declare their routes
type RouteMounter interface {
	Routes(r *Routes)
}

// ControllerDef is a controller registered with a module. The controller is
// built through the container and its routes are mounted under Prefix.
type ControllerDef struct {
	Prefix string
	ctor   any
	cfg    mountConfig
}

// Controller declares a controller. ctor is a constructor func(deps...) (T[, error])
// whose result implements RouteMounter.
//
// Example usage:
//
//	type ItemsController struct{ items *ItemService }
//
//	func NewItemsController(items *ItemService) *ItemsController { ... }
//
//	func (c *ItemsController) Routes(r *keel.Routes) {
//	    r.Get("/", c.List)
//	    r.Get("/{id:int}", c.Show, keel.Named("item"))
//	}
//
//	keel.NewModule("items", keel.Controllers(keel.Controller("/items", NewItemsController)))
func Controller(prefix string, ctor any, opts ...MountOption) ControllerDef {
	def := ControllerDef{Prefix: prefix, ctor: ctor}
	for _, opt := range opts {
		opt(&def.cfg)
	}
	return def
}

// Name returns the configured controller name, or "" when it is derived from the type
func (c ControllerDef) Name() string {
	return c.cfg.name
}

// validate checks the constructor and returns it as an injectable
func (c ControllerDef) validate() (*injectable, error) {
	inj, err := newInjectable(c.ctor)
	if err != nil {
		return nil, fmt.Errorf("%w: controller %s: %v", ErrImproperConfiguration, c.Prefix, err)
	}
	rt := inj.resultType()
	if rt == nil || inj.results != 1 {
		return nil, fmt.Errorf("%w: controller constructor %s must return exactly one value", ErrImproperConfiguration, inj)
	}
	if !rt.Implements(routeMounterType) {
		return nil, fmt.Errorf("%w: %s does not implement RouteMounter (missing Routes(*keel.Routes))", ErrImproperConfiguration, rt)
	}
	return inj, nil
}

// owner returns the name used for route names and the route table
func (c ControllerDef) owner(rt reflect.Type) string {
	if c.cfg.name != "" {
		return c.cfg.name
	}
	return ownerName(rt)
}
