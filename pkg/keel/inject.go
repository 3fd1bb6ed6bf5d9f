package keel

import (
	"context"
	"fmt"
	"reflect"
)

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// injectable is a function whose leading parameters are supplied by the caller
// at call time while the remaining ones are resolved by the container at boot.
type injectable struct {
	fn      reflect.Value
	typ     reflect.Type
	lead    int
	results int  // non-error results
	hasErr  bool // last result is error
}

// newInjectable validates fn against the leading parameter types the caller will supply
func newInjectable(fn any, lead ...reflect.Type) (*injectable, error) {
	if fn == nil {
		return nil, fmt.Errorf("function is nil")
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %s", t)
	}
	if t.IsVariadic() {
		return nil, fmt.Errorf("variadic function %s cannot be injected", t)
	}
	if t.NumIn() < len(lead) {
		return nil, fmt.Errorf("function %s must accept %s as leading parameters", t, typeList(lead))
	}
	for i, want := range lead {
		if !want.AssignableTo(t.In(i)) {
			return nil, fmt.Errorf("parameter %d of %s must accept %s", i, t, want)
		}
	}

	inj := &injectable{fn: v, typ: t, lead: len(lead)}
	n := t.NumOut()
	if n > 0 && t.Out(n-1) == errorType {
		inj.hasErr = true
		n--
	}
	inj.results = n
	return inj, nil
}

// depTypes lists the container-resolved parameter types
func (i *injectable) depTypes() []reflect.Type {
	types := make([]reflect.Type, 0, i.typ.NumIn()-i.lead)
	for j := i.lead; j < i.typ.NumIn(); j++ {
		types = append(types, i.typ.In(j))
	}
	return types
}

// resultType returns the first non-error result type, or nil
func (i *injectable) resultType() reflect.Type {
	if i.results == 0 {
		return nil
	}
	return i.typ.Out(0)
}

// invoker returns a function suitable for fx.Invoke that receives the container
// resolved dependencies and hands them to bind. extra types are prepended to the
// resolved parameters (e.g. fx.Lifecycle).
func (i *injectable) invoker(bind func(extra, deps []reflect.Value) error, extra ...reflect.Type) any {
	in := append(append([]reflect.Type{}, extra...), i.depTypes()...)
	ft := reflect.FuncOf(in, []reflect.Type{errorType}, false)
	return reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		err := bind(args[:len(extra)], args[len(extra):])
		return []reflect.Value{errValue(err)}
	}).Interface()
}

// call invokes the function with the caller-supplied leading values and previously resolved deps
func (i *injectable) call(lead []reflect.Value, deps []reflect.Value) ([]reflect.Value, error) {
	args := make([]reflect.Value, 0, len(lead)+len(deps))
	args = append(args, lead...)
	args = append(args, deps...)
	out := i.fn.Call(args)
	if i.hasErr {
		if errV := out[len(out)-1]; !errV.IsNil() {
			return out[:len(out)-1], errV.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	return out, nil
}

func (i *injectable) String() string {
	return i.typ.String()
}

func errValue(err error) reflect.Value {
	if err == nil {
		return reflect.Zero(errorType)
	}
	return reflect.ValueOf(&err).Elem()
}

func typeList(types []reflect.Type) string {
	s := ""
	for i, t := range types {
		if i > 0 {
			s += ", "
		}
		s += t.String()
	}
	return s
}
