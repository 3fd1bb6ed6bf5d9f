package keel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModule_Defaults(t *testing.T) {
	m := NewModule("")

	assert.Equal(t, "module", m.Name())
	meta := m.Metadata()
	assert.Equal(t, DefaultStaticFolder, meta.StaticFolder)
	assert.Equal(t, DefaultTemplateFolder, meta.TemplateFolder)
	assert.Empty(t, meta.StaticDir())
	assert.Empty(t, meta.TemplateDir())
	assert.False(t, m.IsSetup())
	assert.Same(t, m, m.Origin())
}

func TestModule_Folders(t *testing.T) {
	m := NewModule("web",
		BaseDirectory("/srv/web"),
		StaticFolder("public"),
	)

	meta := m.Metadata()
	assert.Equal(t, filepath.Join("/srv/web", "public"), meta.StaticDir())
	assert.Equal(t, filepath.Join("/srv/web", "templates"), meta.TemplateDir())
}

func TestModule_MetadataIsCopy(t *testing.T) {
	dep := NewModule("dep")
	m := NewModule("app",
		Imports(dep),
		TemplateFilter("upper", func(s string) string { return s }),
	)

	meta := m.Metadata()
	meta.Imports = append(meta.Imports, NewModule("other"))
	meta.TemplateFilters["lower"] = func(s string) string { return s }
	meta.Name = "changed"

	fresh := m.Metadata()
	assert.Len(t, fresh.Imports, 1)
	assert.Len(t, fresh.TemplateFilters, 1)
	assert.Equal(t, "app", fresh.Name)
}

func TestModule_Setup(t *testing.T) {
	base := NewModule("db", Providers(Value("plain")))

	configured := base.Setup(Providers(Value(42)))

	assert.True(t, configured.IsSetup())
	assert.Same(t, base, configured.Origin())
	assert.Equal(t, "db", configured.Name())
	assert.Len(t, configured.Metadata().Providers, 2)
	assert.Len(t, base.Metadata().Providers, 1, "Setup must not modify the original")
}

func TestModule_Options(t *testing.T) {
	m := NewModule("full",
		Routers(NewRouter("/r")),
		Commands(NewCommand("seed", "seed data", func(*CommandContext) error { return nil })),
		BeforeInit(func(*Config) error { return nil }),
		ApplicationReady(func(*App) error { return nil }),
		OnStartup(func() error { return nil }),
		OnShutdown(func() error { return nil }),
		TemplateGlobal("site", "keel"),
		Middleware(func(next HandlerFunc) HandlerFunc { return next }),
	)

	meta := m.Metadata()
	require.Len(t, meta.Routers, 1)
	assert.Equal(t, "/r", meta.Routers[0].Prefix())
	assert.Len(t, meta.Commands, 1)
	assert.Len(t, meta.BeforeInit, 1)
	assert.Len(t, meta.ApplicationReady, 1)
	assert.Len(t, meta.OnStartup, 1)
	assert.Len(t, meta.OnShutdown, 1)
	assert.Equal(t, "keel", meta.TemplateGlobals["site"])
	assert.Len(t, meta.Middleware, 1)
}
