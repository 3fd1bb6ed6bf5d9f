package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/toyz/keel/pkg/keel"
)

// Configuration keys read when Module is given no backends
const (
	ConfigBackend   = "cache.backend"
	ConfigURL       = "cache.url"
	ConfigKeyPrefix = "cache.key_prefix"
	ConfigTimeout   = "cache.timeout"
)

// Backend kinds accepted by cache.backend
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Module returns a keel module exporting *Service. Without backends the
// default backend is built from cache.backend ("memory" or "redis") and
// cache.url. cache.backend defaults to "redis" when cache.url is set.
func Module(backends map[string]BackendConfig) *keel.Module {
	return keel.NewModule("cache",
		keel.Providers(
			keel.Provide(func(cfg *keel.Config, log *zap.Logger) (*Service, error) {
				configs := backends
				if len(configs) == 0 {
					def, err := defaultBackendFromConfig(cfg)
					if err != nil {
						return nil, err
					}
					configs = map[string]BackendConfig{DefaultBackend: def}
				}
				svc, err := NewService(configs)
				if err != nil {
					return nil, err
				}
				log.Debug("cache service ready", zap.Strings("backends", svc.Backends()))
				return svc, nil
			}).Exported(),
		),
		keel.OnStartup(func(ctx context.Context, svc *Service) error {
			b, err := svc.Backend(DefaultBackend)
			if err != nil {
				return err
			}
			if r, ok := b.(*RedisBackend); ok {
				return r.Ping(ctx)
			}
			return nil
		}),
		keel.OnShutdown(func(ctx context.Context, svc *Service) error {
			return svc.Close()
		}),
	)
}

func defaultBackendFromConfig(cfg *keel.Config) (BackendConfig, error) {
	def := BackendConfig{
		KeyPrefix: cfg.GetString(ConfigKeyPrefix, DefaultKeyPrefix),
		Timeout:   cfg.GetDuration(ConfigTimeout, DefaultTimeout),
	}
	url := cfg.GetString(ConfigURL, "")
	kind := BackendMemory
	if url != "" {
		kind = BackendRedis
	}
	kind = cfg.GetString(ConfigBackend, kind)

	switch kind {
	case BackendMemory:
		def.Backend = NewMemoryBackend()
	case BackendRedis:
		if url == "" {
			return BackendConfig{}, fmt.Errorf("%w: %s is redis but %s is empty", keel.ErrImproperConfiguration, ConfigBackend, ConfigURL)
		}
		backend, err := NewRedisBackendFromURL(url)
		if err != nil {
			return BackendConfig{}, err
		}
		def.Backend = backend
	default:
		return BackendConfig{}, fmt.Errorf("%w: unknown %s %q (use %s or %s)",
			keel.ErrImproperConfiguration, ConfigBackend, kind, BackendMemory, BackendRedis)
	}
	return def, nil
}
