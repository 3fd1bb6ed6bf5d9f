package keel_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/keel/pkg/keel"
	"github.com/toyz/keel/pkg/keel/keeltest"
)

func versionedModule() *keel.Module {
	items := keel.NewRouter("/items")
	items.Get("/", func(rc keel.RequestContext) (map[string]string, error) {
		return map[string]string{"shape": "flat", "version": keel.RequestVersion(rc)}, nil
	}, keel.WithVersion("1"), keel.Named("items"))
	items.Get("/", func(rc keel.RequestContext) (map[string]string, error) {
		return map[string]string{"shape": "paged", "version": keel.RequestVersion(rc)}, nil
	}, keel.WithVersion("v2", "3"), keel.Named("items"))
	items.Get("/count", func(rc keel.RequestContext) (map[string]string, error) {
		return map[string]string{"count": "2", "version": keel.RequestVersion(rc)}, nil
	})

	legacy := keel.NewRouter("/legacy", keel.WithGroupVersion("1"))
	legacy.Get("/", func(rc keel.RequestContext) (string, error) { return "old", nil })

	return keel.NewModule("app", keel.Routers(items, legacy))
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	keeltest.DecodeJSON(t, rec, &body)
	return body
}

func TestVersioning_Header(t *testing.T) {
	app := keeltest.New(t, versionedModule(), keeltest.WithConfig(func(cfg *keel.Config) {
		cfg.Versioning = keel.VersioningHeader
		cfg.DefaultVersion = "1"
	}))

	get := func(path, version string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if version != "" {
			req.Header.Set(keel.DefaultVersionHeader, version)
		}
		return app.Do(req)
	}

	rec := get("/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"shape": "flat", "version": "1"}, decodeMap(t, rec))

	rec = get("/items", "2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"shape": "paged", "version": "2"}, decodeMap(t, rec))

	rec = get("/items", "v3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", decodeMap(t, rec)["version"])

	assert.Equal(t, http.StatusNotFound, get("/items", "4").Code)

	rec = get("/items/count", "4")
	require.Equal(t, http.StatusOK, rec.Code, "version neutral routes serve every version")
	assert.Equal(t, "4", decodeMap(t, rec)["version"])

	assert.Equal(t, http.StatusOK, get("/legacy", "").Code)
	assert.Equal(t, http.StatusNotFound, get("/legacy", "2").Code)

	var versions []string
	for _, r := range app.App.Routes().All() {
		if r.Path == "/items" {
			versions = append(versions, r.Version)
		}
	}
	assert.Equal(t, []string{"1", "2", "3"}, versions)
}

func TestVersioning_Query(t *testing.T) {
	app := keeltest.New(t, versionedModule(), keeltest.WithConfig(func(cfg *keel.Config) {
		cfg.Versioning = keel.VersioningQuery
		cfg.VersionKey = "api"
	}))

	rec := app.Get("/items?api=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paged", decodeMap(t, rec)["shape"])

	assert.Equal(t, http.StatusNotFound, app.Get("/items").Code, "no default version")
	assert.Equal(t, http.StatusOK, app.Get("/items/count").Code)
}

func TestVersioning_URL(t *testing.T) {
	app := keeltest.New(t, versionedModule(), keeltest.WithConfig(func(cfg *keel.Config) {
		cfg.Versioning = keel.VersioningURL
	}))

	rec := app.Get("/v1/items")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"shape": "flat", "version": "1"}, decodeMap(t, rec))

	rec = app.Get("/v3/items")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"shape": "paged", "version": "3"}, decodeMap(t, rec))

	assert.Equal(t, http.StatusNotFound, app.Get("/items").Code)
	assert.Equal(t, http.StatusOK, app.Get("/items/count").Code)
	assert.Equal(t, http.StatusOK, app.Get("/v1/legacy").Code)

	url, err := app.URLFor("items", nil)
	require.NoError(t, err)
	assert.Equal(t, "/v1/items", url)
}

func TestVersioning_Disabled(t *testing.T) {
	_, err := keeltest.Build(t, versionedModule())
	assert.ErrorIs(t, err, keel.ErrImproperConfiguration)

	_, err = keeltest.Build(t, keel.NewModule("app"), keeltest.WithConfig(func(cfg *keel.Config) {
		cfg.Versioning = "subdomain"
	}))
	assert.ErrorIs(t, err, keel.ErrImproperConfiguration)
}
