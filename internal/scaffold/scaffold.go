// Package scaffold writes the skeleton of a new keel module: the module
// declaration, a service, a controller with a test, a template and a
// stylesheet.
package scaffold

import (
	"bytes"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	kerrors "github.com/toyz/keel/internal/errors"
)

// KeelImport is the import path generated code uses for the framework
const KeelImport = "github.com/toyz/keel/pkg/keel"

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

// Options configures New
type Options struct {
	// Name is the module and package name
	Name string
	// Dir is the parent directory; the module is written to Dir/Name
	Dir string
	// ModulePath is the import path of Dir, overriding the one derived from go.mod
	ModulePath string
	// Force overwrites existing files
	Force bool
}

// Result describes what New wrote
type Result struct {
	Dir        string
	ImportPath string
	Files      []string
}

type templateData struct {
	Package    string
	Type       string
	KeelImport string
}

type file struct {
	path     string
	template string
}

// ValidateName checks that name can be used as a Go package name
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return kerrors.Wrap(kerrors.GenerationErrorCode,
			fmt.Sprintf("invalid module name %q", name), nil).
			WithSuggestions("Use lowercase letters and digits, starting with a letter")
	}
	if token.IsKeyword(name) {
		return kerrors.Wrap(kerrors.GenerationErrorCode,
			fmt.Sprintf("module name %q is a Go keyword", name), nil)
	}
	return nil
}

// New writes the module skeleton
func New(opts Options) (*Result, error) {
	if err := ValidateName(opts.Name); err != nil {
		return nil, err
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	dir := filepath.Join(opts.Dir, opts.Name)

	importPath := opts.ModulePath
	if importPath == "" {
		var err error
		if importPath, err = ImportPath(dir); err != nil {
			return nil, kerrors.Wrap(kerrors.GenerationErrorCode, "cannot resolve the import path", err).
				WithSuggestions("Run inside a Go module or pass -module")
		}
	} else {
		importPath = strings.TrimSuffix(importPath, "/") + "/" + opts.Name
	}

	data := templateData{
		Package:    opts.Name,
		Type:       exportName(opts.Name),
		KeelImport: KeelImport,
	}
	files := []file{
		{"module.go", moduleTemplate},
		{"service.go", serviceTemplate},
		{"controller.go", controllerTemplate},
		{"controller_test.go", controllerTestTemplate},
		{filepath.Join("templates", opts.Name, "index.html"), indexTemplate},
		{filepath.Join("static", opts.Name+".css"), stylesheetTemplate},
	}

	if !opts.Force {
		conflicts := kerrors.NewMultipleErrors()
		for _, f := range files {
			path := filepath.Join(dir, f.path)
			if _, err := os.Stat(path); err == nil {
				conflicts.Add(kerrors.WrapFileSystemError("create", path, os.ErrExist).
					WithSuggestions("Pass -force to overwrite existing files"))
			}
		}
		if err := conflicts.ErrOrNil(); err != nil {
			return nil, err
		}
	}

	result := &Result{Dir: dir, ImportPath: importPath}
	for _, f := range files {
		path := filepath.Join(dir, f.path)
		content, err := render(f.path, f.template, data)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, kerrors.WrapFileSystemError("create directory", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return nil, kerrors.WrapFileSystemError("write", path, err)
		}
		result.Files = append(result.Files, path)
	}
	return result, nil
}

// render executes a template and formats Go output
func render(name, text string, data templateData) ([]byte, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, kerrors.WrapTemplateError(name, "parse", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, kerrors.WrapTemplateError(name, "execute", err)
	}
	if !strings.HasSuffix(name, ".go") {
		return buf.Bytes(), nil
	}
	formatted, err := imports.Process(name, buf.Bytes(), &imports.Options{Comments: true, TabIndent: true, TabWidth: 8, FormatOnly: true})
	if err != nil {
		return nil, kerrors.WrapTemplateError(name, "format", err)
	}
	return formatted, nil
}

func exportName(name string) string {
	return strings.ToUpper(name[:1]) + name[1:]
}
