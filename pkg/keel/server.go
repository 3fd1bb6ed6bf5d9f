package keel

import (
	"fmt"
	"sort"
	"sync"

	kerrors "github.com/toyz/keel/internal/errors"
)

// ServerFactory builds a web server for a configuration
type ServerFactory func(cfg *Config) (WebServerInterface, error)

var (
	serverFactoriesMu sync.RWMutex
	serverFactories   = make(map[string]ServerFactory)
)

// RegisterAdapter makes a web server adapter selectable through Config.Adapter.
// The adapters package registers echo, gin, fiber and chi when imported. Registering
// the same name twice panics.
func RegisterAdapter(name string, factory ServerFactory) {
	serverFactoriesMu.Lock()
	defer serverFactoriesMu.Unlock()
	if factory == nil {
		panic("keel: RegisterAdapter factory is nil")
	}
	if _, dup := serverFactories[name]; dup {
		panic("keel: RegisterAdapter called twice for adapter " + name)
	}
	serverFactories[name] = factory
}

// Adapters returns the names of the registered adapters
func Adapters() []string {
	serverFactoriesMu.RLock()
	defer serverFactoriesMu.RUnlock()
	names := make([]string, 0, len(serverFactories))
	for name := range serverFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewWebServer builds the adapter registered under cfg.Adapter
func NewWebServer(cfg *Config) (WebServerInterface, error) {
	serverFactoriesMu.RLock()
	factory, ok := serverFactories[cfg.Adapter]
	serverFactoriesMu.RUnlock()
	if !ok {
		return nil, kerrors.ImproperConfiguration("",
			fmt.Sprintf("adapter %q is not registered (registered: %v)", cfg.Adapter, Adapters()),
			ErrImproperConfiguration).
			WithSuggestion(`Import _ "github.com/toyz/keel/pkg/keel/adapters" or pass keel.WithServer`)
	}
	return factory(cfg)
}
