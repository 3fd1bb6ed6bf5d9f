package keel

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	kerrors "github.com/toyz/keel/internal/errors"
)

// ConfigFileEnv names the environment variable pointing at an optional YAML config file.
const ConfigFileEnv = "KEEL_CONFIG_FILE"

// Config holds application settings. Typed fields cover what the framework itself
// reads; Values carries free-form settings owned by modules.
type Config struct {
	// Debug disables template caching and enables development logging
	Debug bool `env:"KEEL_DEBUG" yaml:"debug"`

	// Host is the host to bind to (default: "")
	Host string `env:"KEEL_HOST" yaml:"host"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"KEEL_PORT" yaml:"port"`

	// Adapter selects a registered web server adapter: echo, gin, fiber, chi or
	// any name passed to RegisterAdapter (default: echo)
	Adapter string `env:"KEEL_ADAPTER" yaml:"adapter"`

	// LogLevel is a zap level name (default: info)
	LogLevel string `env:"KEEL_LOG_LEVEL" yaml:"log_level"`

	// LogFormat is json or console (default: json)
	LogFormat string `env:"KEEL_LOG_FORMAT" yaml:"log_format"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"KEEL_SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout"`

	// StaticURL is the URL prefix module static folders are served under (default: /static)
	StaticURL string `env:"KEEL_STATIC_URL" yaml:"static_url"`

	// EnableRequestID adds an X-Request-ID header to every response (default: true)
	EnableRequestID bool `env:"KEEL_ENABLE_REQUEST_ID" yaml:"enable_request_id"`

	// EnableTracing starts an OpenTelemetry span per request (default: false)
	EnableTracing bool `env:"KEEL_ENABLE_TRACING" yaml:"enable_tracing"`

	// CORSAllowedOrigins enables CORS on adapters that support it (chi)
	CORSAllowedOrigins []string `env:"KEEL_CORS_ALLOWED_ORIGINS" envSeparator:"," yaml:"cors_allowed_origins"`

	// Versioning selects how requests name an API version: url ("/v2/..."),
	// header, query, or empty for no versioning
	Versioning string `env:"KEEL_VERSIONING" yaml:"versioning"`

	// VersionKey is the header or query parameter carrying the version
	// (default: Accept-Version for header, version for query)
	VersionKey string `env:"KEEL_VERSION_KEY" yaml:"version_key"`

	// DefaultVersion is used when a request names no version
	DefaultVersion string `env:"KEEL_DEFAULT_VERSION" yaml:"default_version"`

	// Values holds module-defined settings
	Values map[string]any `yaml:"values"`

	mu sync.RWMutex
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Port:            8080,
		Adapter:         "echo",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 30 * time.Second,
		StaticURL:       "/static",
		EnableRequestID: true,
		Values:          make(map[string]any),
	}
}

// ConfigOption customizes LoadConfig
type ConfigOption func(*configLoader)

type configLoader struct {
	environ   map[string]string
	dotenv    []string
	file      string
	overrides map[string]any
}

// FromEnviron loads environment values from the given map instead of the process environment
func FromEnviron(environ map[string]string) ConfigOption {
	return func(l *configLoader) {
		l.environ = environ
	}
}

// FromDotenv reads KEY=value files before the environment is parsed. Variables
// already present in the environment win over the files.
func FromDotenv(paths ...string) ConfigOption {
	return func(l *configLoader) {
		l.dotenv = append(l.dotenv, paths...)
	}
}

// FromFile reads the YAML file at path, overriding KEEL_CONFIG_FILE
func FromFile(path string) ConfigOption {
	return func(l *configLoader) {
		l.file = path
	}
}

// WithValues sets free-form values after everything else has been loaded
func WithValues(values map[string]any) ConfigOption {
	return func(l *configLoader) {
		for k, v := range values {
			l.overrides[k] = v
		}
	}
}

// LoadConfig builds a Config from defaults, then the YAML file named by
// KEEL_CONFIG_FILE, then KEEL_* environment variables, then explicit values.
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	loader := &configLoader{overrides: make(map[string]any)}
	for _, opt := range opts {
		opt(loader)
	}

	if len(loader.dotenv) > 0 {
		if err := loader.mergeDotenv(); err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()

	file := loader.file
	if file == "" {
		file = loader.lookupEnv(ConfigFileEnv)
	}
	if file != "" {
		if err := cfg.loadFile(file); err != nil {
			return nil, err
		}
	}

	envOpts := env.Options{}
	if loader.environ != nil {
		envOpts.Environment = loader.environ
	}
	if err := env.ParseWithOptions(cfg, envOpts); err != nil {
		return nil, kerrors.WrapConfigurationError("environment", "parse", err)
	}

	for k, v := range loader.overrides {
		cfg.Set(k, v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *configLoader) mergeDotenv() error {
	values, err := godotenv.Read(l.dotenv...)
	if err != nil {
		return kerrors.WrapConfigurationError("dotenv", "read", err)
	}
	current := l.environ
	if current == nil {
		current = env.ToMap(os.Environ())
	}
	for k, v := range current {
		values[k] = v
	}
	l.environ = values
	return nil
}

func (l *configLoader) lookupEnv(key string) string {
	if l.environ != nil {
		return l.environ[key]
	}
	return os.Getenv(key)
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return kerrors.WrapFileSystemError("read", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return kerrors.WrapConfigurationError(path, "parse", err)
	}
	if c.Values == nil {
		c.Values = make(map[string]any)
	}
	return nil
}

// Validate checks the typed settings
func (c *Config) Validate() error {
	// adapter names are checked against the registry when the server is built
	if c.Adapter == "" {
		return kerrors.ImproperConfiguration("", "adapter is empty", ErrImproperConfiguration)
	}
	if c.Port < 0 || c.Port > 65535 {
		return kerrors.ImproperConfiguration("", fmt.Sprintf("port %d out of range", c.Port), ErrImproperConfiguration)
	}
	if !validVersioningScheme(c.Versioning) {
		return kerrors.ImproperConfiguration("", fmt.Sprintf("unknown versioning scheme %q (use url, header or query)", c.Versioning), ErrImproperConfiguration)
	}
	if c.ShutdownTimeout <= 0 {
		return kerrors.ImproperConfiguration("", "shutdown timeout must be positive", ErrImproperConfiguration)
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Get returns a free-form value
func (c *Config) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.Values[key]
	return v, ok
}

// Set stores a free-form value
func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Values == nil {
		c.Values = make(map[string]any)
	}
	c.Values[key] = value
}

// SetDefault stores value only when key is not set yet
func (c *Config) SetDefault(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Values == nil {
		c.Values = make(map[string]any)
	}
	if _, ok := c.Values[key]; !ok {
		c.Values[key] = value
	}
}

// GetString returns the value for key formatted as a string, or def
func (c *Config) GetString(key, def string) string {
	v, ok := c.Get(key)
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// GetInt returns the value for key as an int, or def
func (c *Config) GetInt(key string, def int) int {
	v, ok := c.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

// GetBool returns the value for key as a bool, or def
func (c *Config) GetBool(key string, def bool) bool {
	v, ok := c.Get(key)
	if !ok {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return def
}

// GetDuration returns the value for key as a time.Duration, or def
func (c *Config) GetDuration(key string, def time.Duration) time.Duration {
	v, ok := c.Get(key)
	if !ok {
		return def
	}
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed
		}
	case int:
		return time.Duration(d) * time.Second
	}
	return def
}
