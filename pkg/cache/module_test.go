package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/keel/pkg/cache"
	"github.com/toyz/keel/pkg/keel"
	"github.com/toyz/keel/pkg/keel/keeltest"
)

func TestModule_DefaultsToMemory(t *testing.T) {
	var svc *cache.Service
	api := keel.NewRouter("/")
	api.Get("/visits", func(rc keel.RequestContext, c *cache.Service) (map[string]int, error) {
		n, err := cache.GetOrSet(rc.Context(), c, "visits", func(context.Context) (int, error) { return 41, nil })
		return map[string]int{"visits": n}, err
	})

	app := keeltest.New(t, keel.NewModule("app", keel.Imports(cache.Module(nil)), keel.Routers(api)),
		keeltest.WithValues(map[string]any{cache.ConfigKeyPrefix: "shop", cache.ConfigTimeout: "1m"}),
		keeltest.Populate(&svc))
	app.Start()

	require.NotNil(t, svc)
	b, err := svc.Backend(cache.DefaultBackend)
	require.NoError(t, err)
	memory, ok := b.(*cache.MemoryBackend)
	require.True(t, ok)

	var body map[string]int
	keeltest.DecodeJSON(t, app.Get("/visits"), &body)
	assert.Equal(t, 41, body["visits"])

	_, err = memory.Get(context.Background(), cache.MakeKey("shop", cache.DefaultVersion, "visits"))
	assert.NoError(t, err)
}

func TestModule_ExplicitBackends(t *testing.T) {
	var svc *cache.Service
	sessions := cache.NewMemoryBackend()
	keeltest.New(t, keel.NewModule("app", keel.Imports(cache.Module(map[string]cache.BackendConfig{
		cache.DefaultBackend: {Backend: cache.NewMemoryBackend()},
		"sessions":           {Backend: sessions, Timeout: time.Hour},
	}))), keeltest.Populate(&svc))

	assert.Equal(t, []string{cache.DefaultBackend, "sessions"}, svc.Backends())
}

func TestModule_InvalidRedisURL(t *testing.T) {
	for name, values := range map[string]map[string]any{
		"scheme":       {cache.ConfigURL: "ftp://nope"},
		"not a url":    {cache.ConfigBackend: cache.BackendRedis, cache.ConfigURL: "not-a-url"},
		"missing url":  {cache.ConfigBackend: cache.BackendRedis},
		"unknown kind": {cache.ConfigBackend: "memcached"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := keeltest.Build(t, keel.NewModule("app", keel.Imports(cache.Module(nil))), keeltest.WithValues(values))
			assert.ErrorIs(t, err, keel.ErrDependency)
		})
	}
}

func TestModule_MemoryBackendIgnoresURL(t *testing.T) {
	var svc *cache.Service
	keeltest.New(t, keel.NewModule("app", keel.Imports(cache.Module(nil))),
		keeltest.WithValues(map[string]any{cache.ConfigBackend: cache.BackendMemory, cache.ConfigURL: "redis://localhost:1/0"}),
		keeltest.Populate(&svc))

	b, err := svc.Backend(cache.DefaultBackend)
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryBackend{}, b)
}
