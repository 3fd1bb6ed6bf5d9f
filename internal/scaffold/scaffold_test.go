package scaffold

import (
	"errors"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/toyz/keel/internal/errors"
)

func newGoModule(t *testing.T, modulePath string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module "+modulePath+"\n\ngo 1.25\n"), 0o644))
	return dir
}

func TestImportPath(t *testing.T) {
	root := newGoModule(t, "example.com/shop")
	nested := filepath.Join(root, "internal", "billing")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, err := ImportPath(nested)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop/internal/billing", path)

	path, err = ImportPath(root)
	require.NoError(t, err)
	assert.Equal(t, "example.com/shop", path)
}

func TestModulePath_Invalid(t *testing.T) {
	dir := t.TempDir()
	goMod := filepath.Join(dir, "go.mod")
	require.NoError(t, os.WriteFile(goMod, []byte("go 1.25\n"), 0o644))

	_, err := ModulePath(goMod)
	assert.Error(t, err)

	_, err = ModulePath(filepath.Join(dir, "missing.mod"))
	assert.Error(t, err)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("users"))
	assert.NoError(t, ValidateName("v2api"))

	for _, name := range []string{"", "Users", "1users", "my-users", "my_users", "func", "type"} {
		assert.Error(t, ValidateName(name), name)
	}
}

func TestNew(t *testing.T) {
	root := newGoModule(t, "example.com/shop")

	result, err := New(Options{Name: "users", Dir: root})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "users"), result.Dir)
	assert.Equal(t, "example.com/shop/users", result.ImportPath)
	assert.Len(t, result.Files, 6)

	fset := token.NewFileSet()
	for _, name := range []string{"module.go", "service.go", "controller.go", "controller_test.go"} {
		f, err := parser.ParseFile(fset, filepath.Join(result.Dir, name), nil, parser.ImportsOnly)
		require.NoError(t, err, name)
		assert.Equal(t, "users", f.Name.Name)
	}

	module, err := os.ReadFile(filepath.Join(result.Dir, "module.go"))
	require.NoError(t, err)
	assert.Contains(t, string(module), `keel.NewModule("users"`)
	assert.Contains(t, string(module), `keel.Controller("/users", NewUsersController)`)

	controller, err := os.ReadFile(filepath.Join(result.Dir, "controller.go"))
	require.NoError(t, err)
	assert.Contains(t, string(controller), "type UsersController struct")
	assert.Contains(t, string(controller), `"users/index.html"`)

	index, err := os.ReadFile(filepath.Join(result.Dir, "templates", "users", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), `{{ static_url "users.css" }}`)
	assert.FileExists(t, filepath.Join(result.Dir, "static", "users.css"))
}

func TestNew_RefusesToOverwrite(t *testing.T) {
	root := newGoModule(t, "example.com/shop")
	_, err := New(Options{Name: "orders", Dir: root})
	require.NoError(t, err)

	_, err = New(Options{Name: "orders", Dir: root})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrExist)
	assert.Equal(t, kerrors.FileSystemErrorCode, kerrors.CodeOf(err))

	var multi *kerrors.MultipleErrors
	require.True(t, errors.As(err, &multi))
	assert.Equal(t, 6, multi.Count())

	_, err = New(Options{Name: "orders", Dir: root, Force: true})
	assert.NoError(t, err)
}

func TestNew_ExplicitModulePath(t *testing.T) {
	result, err := New(Options{Name: "billing", Dir: t.TempDir(), ModulePath: "github.com/acme/app/internal/"})
	require.NoError(t, err)
	assert.Equal(t, "github.com/acme/app/internal/billing", result.ImportPath)
}

func TestNew_InvalidName(t *testing.T) {
	_, err := New(Options{Name: "Bad-Name", Dir: t.TempDir(), ModulePath: "example.com/x"})
	require.Error(t, err)
	assert.Equal(t, kerrors.GenerationErrorCode, kerrors.CodeOf(err))
}

func TestRender_FormatsGo(t *testing.T) {
	out, err := render("x.go", "package {{.Package}}\nfunc   F( ) {}\n", templateData{Package: "x"})
	require.NoError(t, err)
	assert.Equal(t, "package x\n\nfunc F() {}\n", string(out))

	_, err = render("x.go", "package {{.Package}}\nfunc {", templateData{Package: "x"})
	assert.Error(t, err)

	out, err = render("x.css", "a  {}", templateData{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "a  {}"))
}
