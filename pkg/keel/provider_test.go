package keel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greeter interface {
	Greet() string
}

type englishGreeter struct{ name string }

func (g *englishGreeter) Greet() string { return "hello " + g.name }

func newEnglishGreeter() *englishGreeter { return &englishGreeter{name: "keel"} }

func TestProviderConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  ProviderConfig
		ok   bool
	}{
		{"constructor", ProviderConfig{Provide: newEnglishGreeter}, true},
		{"value", ProviderConfig{UseValue: 3}, true},
		{"empty", ProviderConfig{}, false},
		{"value and class", ProviderConfig{UseValue: 1, UseClass: newEnglishGreeter}, false},
		{"override without As", ProviderConfig{Provide: newEnglishGreeter, UseValue: &englishGreeter{}}, false},
		{"override with As", ProviderConfig{Provide: newEnglishGreeter, UseValue: &englishGreeter{}, As: []any{new(greeter)}}, true},
		{"transient value", ProviderConfig{UseValue: 1, Scope: ScopeTransient}, false},
		{"As not an interface pointer", ProviderConfig{Provide: newEnglishGreeter, As: []any{englishGreeter{}}}, false},
		{"constructor not a func", ProviderConfig{Provide: "nope"}, false},
		{"constructor without result", ProviderConfig{Provide: func() {}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewProvider(tt.cfg).Err()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrImproperConfiguration)
			}
		})
	}
}

func TestProvider_Helpers(t *testing.T) {
	p := Bind[greeter](newEnglishGreeter)
	require.NoError(t, p.Err())
	assert.Len(t, p.Config().As, 1)
	assert.False(t, p.Config().Export)
	assert.True(t, p.Exported().Config().Export)

	assert.Equal(t, "greeter", BindValue[greeter](&englishGreeter{}).Named("greeter").String())
	assert.Equal(t, "func() *keel.englishGreeter", Provide(newEnglishGreeter).String())
	assert.Equal(t, "int", Value(1).String())
	assert.Equal(t, "transient", ScopeTransient.String())
	assert.Equal(t, "singleton", ScopeSingleton.String())
}

func TestTransient_TypeMismatch(t *testing.T) {
	p := Transient[string](newEnglishGreeter)
	assert.ErrorIs(t, p.Err(), ErrImproperConfiguration)
}

func TestTransient_Factory(t *testing.T) {
	calls := 0
	ctor := func(prefix string) (greeter, error) {
		calls++
		if prefix == "" {
			return nil, errors.New("no prefix")
		}
		return &englishGreeter{name: prefix}, nil
	}

	p := Transient[greeter](ctor)
	require.NoError(t, p.Err())

	build, ok := p.Config().Provide.(func(string) Factory[greeter])
	require.True(t, ok, "transient provider wraps the constructor in a factory constructor")

	factory := build("world")
	first, err := factory.New()
	require.NoError(t, err)
	second := factory.MustNew()
	assert.Equal(t, "hello world", first.Greet())
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, calls)

	_, err = build("").New()
	assert.EqualError(t, err, "no prefix")
}

func TestFactory_Unbuilt(t *testing.T) {
	var f Factory[greeter]
	_, err := f.New()
	assert.ErrorIs(t, err, ErrDependency)
	assert.Panics(t, func() { f.MustNew() })
}

func TestProvider_InvalidOption(t *testing.T) {
	_, err := Provide(nil).fxOption("app")
	assert.ErrorIs(t, err, ErrImproperConfiguration)
}
