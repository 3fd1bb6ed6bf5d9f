package keel

import (
	"fmt"
	"reflect"

	"go.uber.org/fx"

	kerrors "github.com/toyz/keel/internal/errors"
)

// Scope controls how often a provider's constructor runs
type Scope int

const (
	// ScopeSingleton constructs the value once per application
	ScopeSingleton Scope = iota
	// ScopeTransient constructs a new value every time Factory.New is called
	ScopeTransient
)

func (s Scope) String() string {
	if s == ScopeTransient {
		return "transient"
	}
	return "singleton"
}

// ProviderConfig describes a service registered with the container.
//
// Provide is the base constructor. As binds the result to one or more interfaces
// given as pointers (new(MyInterface)). UseValue registers an existing instance
// and UseClass an alternative constructor for the As types; the two are
// mutually exclusive.
type ProviderConfig struct {
	Provide  any
	As       []any
	UseValue any
	UseClass any
	Scope    Scope
	Export   bool
	Name     string
}

// Provider is a validated provider declaration
type Provider struct {
	cfg ProviderConfig
	err error
}

// NewProvider validates cfg
func NewProvider(cfg ProviderConfig) Provider {
	p := Provider{cfg: cfg}
	p.err = cfg.validate()
	return p
}

func (c ProviderConfig) validate() error {
	if c.UseValue != nil && c.UseClass != nil {
		return fmt.Errorf("%w: UseClass and UseValue can not be used at the same time", ErrImproperConfiguration)
	}
	if c.Provide == nil && c.UseValue == nil && c.UseClass == nil {
		return fmt.Errorf("%w: provider needs Provide, UseValue or UseClass", ErrImproperConfiguration)
	}
	if c.Provide != nil && (c.UseValue != nil || c.UseClass != nil) && len(c.As) == 0 {
		return fmt.Errorf("%w: UseValue/UseClass override Provide only when As names the bound type", ErrImproperConfiguration)
	}
	if c.UseValue != nil && c.Scope == ScopeTransient {
		return fmt.Errorf("%w: a value provider can not be transient", ErrImproperConfiguration)
	}
	for _, as := range c.As {
		t := reflect.TypeOf(as)
		if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Interface {
			return fmt.Errorf("%w: As expects pointers to interfaces, got %v", ErrImproperConfiguration, t)
		}
	}
	for _, ctor := range []any{c.Provide, c.UseClass} {
		if ctor == nil {
			continue
		}
		if t := reflect.TypeOf(ctor); t.Kind() != reflect.Func || t.NumOut() == 0 {
			return fmt.Errorf("%w: constructor must be a function returning a value, got %s", ErrImproperConfiguration, t)
		}
	}
	return nil
}

// Provide registers a singleton constructor
func Provide(ctor any) Provider {
	return NewProvider(ProviderConfig{Provide: ctor})
}

// Value registers an existing instance
func Value(v any) Provider {
	return NewProvider(ProviderConfig{UseValue: v})
}

// Bind registers ctor as the implementation of interface I
func Bind[I any](ctor any) Provider {
	return NewProvider(ProviderConfig{UseClass: ctor, As: []any{new(I)}})
}

// BindValue registers v as the implementation of interface I
func BindValue[I any](v any) Provider {
	return NewProvider(ProviderConfig{UseValue: v, As: []any{new(I)}})
}

// Transient registers ctor behind a Factory[T]; every Factory.New call runs ctor again
// with the same resolved dependencies.
func Transient[T any](ctor any) Provider {
	p := NewProvider(ProviderConfig{Provide: ctor, Scope: ScopeTransient})
	if p.err != nil {
		return p
	}
	t := reflect.TypeOf(ctor).Out(0)
	want := reflect.TypeOf((*T)(nil)).Elem()
	if !t.AssignableTo(want) {
		p.err = fmt.Errorf("%w: transient constructor returns %s, not assignable to %s", ErrImproperConfiguration, t, want)
		return p
	}
	p.cfg.Provide = transientFactory[T](ctor)
	return p
}

// Exported makes the provider visible outside its module
func (p Provider) Exported() Provider {
	p.cfg.Export = true
	return p
}

// Named sets a display name used in error messages
func (p Provider) Named(name string) Provider {
	p.cfg.Name = name
	return p
}

// Config returns the provider declaration
func (p Provider) Config() ProviderConfig {
	return p.cfg
}

// Err returns the validation error, if any
func (p Provider) Err() error {
	return p.err
}

// String names the provider for diagnostics
func (p Provider) String() string {
	if p.cfg.Name != "" {
		return p.cfg.Name
	}
	for _, v := range []any{p.cfg.UseClass, p.cfg.Provide} {
		if v != nil {
			return reflect.TypeOf(v).String()
		}
	}
	if p.cfg.UseValue != nil {
		return reflect.TypeOf(p.cfg.UseValue).String()
	}
	return "provider"
}

// fxOption converts the declaration into container options
func (p Provider) fxOption(module string) (fx.Option, error) {
	if p.err != nil {
		return nil, kerrors.WrapProviderError(module, p.String(), p.err)
	}
	cfg := p.cfg

	var opts []fx.Option
	add := func(target any, bindAs bool) {
		args := []any{}
		if bindAs && len(cfg.As) > 0 {
			anns := make([]fx.Annotation, 0, len(cfg.As))
			for _, as := range cfg.As {
				anns = append(anns, fx.As(as))
			}
			target = fx.Annotate(target, anns...)
		}
		args = append(args, target)
		if !cfg.Export {
			args = append(args, fx.Private)
		}
		opts = append(opts, fx.Provide(args...))
	}

	switch {
	case cfg.UseValue != nil:
		if cfg.Provide != nil {
			add(cfg.Provide, false)
		}
		add(valueConstructor(cfg.UseValue), true)
	case cfg.UseClass != nil:
		if cfg.Provide != nil {
			add(cfg.Provide, false)
		}
		add(cfg.UseClass, true)
	default:
		add(cfg.Provide, true)
	}
	return fx.Options(opts...), nil
}

// valueConstructor wraps v in a zero-argument constructor with v's dynamic type
func valueConstructor(v any) any {
	t := reflect.TypeOf(v)
	ft := reflect.FuncOf(nil, []reflect.Type{t}, false)
	rv := reflect.ValueOf(v)
	return reflect.MakeFunc(ft, func([]reflect.Value) []reflect.Value {
		return []reflect.Value{rv}
	}).Interface()
}

// Factory creates fresh instances of a transient provider
type Factory[T any] struct {
	fn func() (T, error)
}

// New constructs a new instance
func (f Factory[T]) New() (T, error) {
	if f.fn == nil {
		var zero T
		return zero, fmt.Errorf("%w: factory for %s was not built by the container", ErrDependency, reflect.TypeOf((*T)(nil)).Elem())
	}
	return f.fn()
}

// MustNew constructs a new instance and panics on error
func (f Factory[T]) MustNew() T {
	v, err := f.New()
	if err != nil {
		panic(err)
	}
	return v
}

// transientFactory builds a constructor with ctor's parameters that returns Factory[T]
func transientFactory[T any](ctor any) any {
	inj, err := newInjectable(ctor)
	if err != nil {
		panic(err) // validated by the caller
	}
	factoryType := reflect.TypeOf(Factory[T]{})
	ft := reflect.FuncOf(inj.depTypes(), []reflect.Type{factoryType}, false)
	return reflect.MakeFunc(ft, func(deps []reflect.Value) []reflect.Value {
		captured := append([]reflect.Value(nil), deps...)
		f := Factory[T]{fn: func() (T, error) {
			out, err := inj.call(nil, captured)
			if err != nil {
				var zero T
				return zero, err
			}
			return out[0].Interface().(T), nil
		}}
		return []reflect.Value{reflect.ValueOf(f)}
	}).Interface()
}
