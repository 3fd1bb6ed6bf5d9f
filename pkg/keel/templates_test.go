package keel

import (
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestTemplateEnvironment_SearchOrder(t *testing.T) {
	rootDir := t.TempDir()
	depDir := t.TempDir()
	writeFile(t, filepath.Join(rootDir, "page.html"), "root page")
	writeFile(t, filepath.Join(depDir, "page.html"), "dep page")
	writeFile(t, filepath.Join(depDir, "users", "list.html"), "users of {{ .Org }}")

	env := NewTemplateEnvironment([]string{rootDir, depDir}, nil, true)

	out, err := env.RenderString("page.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "root page", out)

	out, err = env.RenderString("users/list.html", map[string]string{"Org": "acme"})
	require.NoError(t, err)
	assert.Equal(t, "users of acme", out)
}

func TestTemplateEnvironment_NotFound(t *testing.T) {
	env := NewTemplateEnvironment([]string{t.TempDir()}, nil, false)

	_, err := env.Lookup("missing.html")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = env.Lookup("../etc/passwd")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestTemplateEnvironment_Partials(t *testing.T) {
	rootDir := t.TempDir()
	depDir := t.TempDir()
	writeFile(t, filepath.Join(depDir, "_header.html"), "dep header")
	writeFile(t, filepath.Join(rootDir, "_header.html"), "root header")
	writeFile(t, filepath.Join(depDir, "index.html"), `{{ template "_header.html" }} | body`)

	env := NewTemplateEnvironment([]string{rootDir, depDir}, nil, false)

	out, err := env.RenderString("index.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "root header | body", out)
}

func TestTemplateEnvironment_Cache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	writeFile(t, path, "v1")

	cached := NewTemplateEnvironment([]string{dir}, nil, true)
	uncached := NewTemplateEnvironment([]string{dir}, nil, false)
	_, err := cached.RenderString("index.html", nil)
	require.NoError(t, err)

	writeFile(t, path, "v2")

	out, err := cached.RenderString("index.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", out)

	out, err = uncached.RenderString("index.html", nil)
	require.NoError(t, err)
	assert.Equal(t, "v2", out)
}

func TestBuildTemplateEnvironment_FromModules(t *testing.T) {
	rootBase := t.TempDir()
	depBase := t.TempDir()
	writeFile(t, filepath.Join(rootBase, "templates", "hello.html"), `{{ .Name | shout }} from {{ site }} v{{ version }}`)
	require.NoError(t, os.MkdirAll(filepath.Join(depBase, "templates"), 0o755))

	dep := NewModule("dep",
		BaseDirectory(depBase),
		TemplateFilter("shout", func(s string) string { return s + "?" }),
		TemplateGlobal("site", "dep"),
	)
	root := NewModule("app",
		Imports(dep),
		BaseDirectory(rootBase),
		TemplateFilter("shout", strings.ToUpper),
		TemplateGlobal("version", 3),
	)
	tree, err := BuildModuleTree(root)
	require.NoError(t, err)

	env, err := buildTemplateEnvironment(tree, template.FuncMap{"site": func() string { return "builtin" }}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(rootBase, "templates"),
		filepath.Join(depBase, "templates"),
	}, env.Dirs())

	out, err := env.RenderString("hello.html", map[string]string{"Name": "keel"})
	require.NoError(t, err)
	assert.Equal(t, "KEEL from dep v3", out)
}

func TestBuildTemplateEnvironment_InvalidFilter(t *testing.T) {
	root := NewModule("app", TemplateFilter("bad", func() {}))
	tree, err := BuildModuleTree(root)
	require.NoError(t, err)

	_, err = buildTemplateEnvironment(tree, nil, true)
	assert.ErrorIs(t, err, ErrImproperConfiguration)
}

func TestURLForArgs(t *testing.T) {
	values, err := urlForArgs([]any{"id", 7, "tab", "info"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "7", "tab": "info"}, values)

	_, err = urlForArgs([]any{"id"})
	assert.Error(t, err)

	_, err = urlForArgs([]any{1, 2})
	assert.Error(t, err)
}
