// Package cache provides a keyed cache service with named backends. Every
// application using the module gets a "default" backend; others are selected
// per call with UseBackend.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// DefaultBackend names the backend used when a call does not pick one
const DefaultBackend = "default"

// Defaults applied to a BackendConfig with zero fields
const (
	DefaultKeyPrefix = "keel"
	DefaultVersion   = 1
	DefaultTimeout   = 5 * time.Minute
)

// BackendConfig binds a Backend to its key prefix, version and default timeout
type BackendConfig struct {
	Backend   Backend
	KeyPrefix string
	Version   int
	Timeout   time.Duration
}

func (c BackendConfig) withDefaults() BackendConfig {
	if c.KeyPrefix == "" {
		c.KeyPrefix = DefaultKeyPrefix
	}
	if c.Version == 0 {
		c.Version = DefaultVersion
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// MakeKey builds the stored key as prefix:version:key
func MakeKey(prefix string, version int, key string) string {
	return prefix + ":" + strconv.Itoa(version) + ":" + key
}

// Service reads and writes JSON-encoded values through named backends
type Service struct {
	backends map[string]BackendConfig
}

// NewService creates a service. Without configs a memory backend serves as
// default; otherwise configs must contain DefaultBackend.
func NewService(configs map[string]BackendConfig) (*Service, error) {
	if len(configs) == 0 {
		configs = map[string]BackendConfig{DefaultBackend: {Backend: NewMemoryBackend()}}
	}
	if _, ok := configs[DefaultBackend]; !ok {
		return nil, fmt.Errorf("%w: configuration must have a %q backend", ErrInvalidBackend, DefaultBackend)
	}
	backends := make(map[string]BackendConfig, len(configs))
	for name, cfg := range configs {
		if cfg.Backend == nil {
			return nil, fmt.Errorf("%w: backend %q is nil", ErrInvalidBackend, name)
		}
		backends[name] = cfg.withDefaults()
	}
	return &Service{backends: backends}, nil
}

// CallOption adjusts a single cache call
type CallOption func(*callOptions)

type callOptions struct {
	backend string
	version int
	timeout *time.Duration
}

// UseBackend selects a backend by name
func UseBackend(name string) CallOption {
	return func(o *callOptions) {
		o.backend = name
	}
}

// WithVersion overrides the backend's key version
func WithVersion(version int) CallOption {
	return func(o *callOptions) {
		o.version = version
	}
}

// WithTimeout overrides the backend's default timeout; NoExpiration keeps the value
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		o.timeout = &d
	}
}

type call struct {
	backend Backend
	key     string
	timeout time.Duration
}

func (s *Service) resolve(key string, opts []CallOption) (call, error) {
	o := callOptions{backend: DefaultBackend}
	for _, opt := range opts {
		opt(&o)
	}
	cfg, ok := s.backends[o.backend]
	if !ok {
		return call{}, fmt.Errorf("%w: there is no backend configured with the name %q", ErrInvalidBackend, o.backend)
	}
	version := cfg.Version
	if o.version != 0 {
		version = o.version
	}
	timeout := cfg.Timeout
	if o.timeout != nil {
		timeout = *o.timeout
	}
	return call{backend: cfg.Backend, key: MakeKey(cfg.KeyPrefix, version, key), timeout: timeout}, nil
}

// Backend returns the backend registered under name
func (s *Service) Backend(name string) (Backend, error) {
	cfg, ok := s.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: there is no backend configured with the name %q", ErrInvalidBackend, name)
	}
	return cfg.Backend, nil
}

// Backends returns the configured backend names, sorted
func (s *Service) Backends() []string {
	names := make([]string, 0, len(s.backends))
	for name := range s.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get decodes the value stored under key into dest. A missing key is ErrMiss.
func (s *Service) Get(ctx context.Context, key string, dest any, opts ...CallOption) error {
	c, err := s.resolve(key, opts)
	if err != nil {
		return err
	}
	raw, err := c.backend.Get(ctx, c.key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache: decode %s: %w", c.key, err)
	}
	return nil
}

// Set stores value under key
func (s *Service) Set(ctx context.Context, key string, value any, opts ...CallOption) error {
	c, err := s.resolve(key, opts)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", c.key, err)
	}
	return c.backend.Set(ctx, c.key, raw, c.timeout)
}

// Delete removes key and reports whether it existed
func (s *Service) Delete(ctx context.Context, key string, opts ...CallOption) (bool, error) {
	c, err := s.resolve(key, opts)
	if err != nil {
		return false, err
	}
	return c.backend.Delete(ctx, c.key)
}

// Touch resets the expiry of key and reports whether it existed
func (s *Service) Touch(ctx context.Context, key string, opts ...CallOption) (bool, error) {
	c, err := s.resolve(key, opts)
	if err != nil {
		return false, err
	}
	return c.backend.Touch(ctx, c.key, c.timeout)
}

// Has reports whether key holds a live value
func (s *Service) Has(ctx context.Context, key string, opts ...CallOption) (bool, error) {
	c, err := s.resolve(key, opts)
	if err != nil {
		return false, err
	}
	return c.backend.Has(ctx, c.key)
}

// Close closes every backend
func (s *Service) Close() error {
	var errs []error
	for _, name := range s.Backends() {
		if err := s.backends[name].Backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache: close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// GetOrSet returns the cached value for key, computing and storing it with fn on a miss
func GetOrSet[T any](ctx context.Context, s *Service, key string, fn func(context.Context) (T, error), opts ...CallOption) (T, error) {
	var value T
	err := s.Get(ctx, key, &value, opts...)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrMiss) {
		return value, err
	}
	value, err = fn(ctx)
	if err != nil {
		return value, err
	}
	return value, s.Set(ctx, key, value, opts...)
}
