package keel

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"

	kerrors "github.com/toyz/keel/internal/errors"
)

// TemplateEnvironment finds and renders templates from the template folders of
// every module in the application. The root module is searched first.
//
// Files whose name starts with "_" are partials: they are parsed alongside every
// template so that {{ template "_layout.html" . }} works across modules.
type TemplateEnvironment struct {
	dirs  []string
	funcs template.FuncMap
	cache bool

	mu     sync.RWMutex
	parsed map[string]*template.Template
}

// NewTemplateEnvironment creates an environment searching dirs in order
func NewTemplateEnvironment(dirs []string, funcs template.FuncMap, cache bool) *TemplateEnvironment {
	return &TemplateEnvironment{
		dirs:   slices.Clone(dirs),
		funcs:  funcs,
		cache:  cache,
		parsed: make(map[string]*template.Template),
	}
}

// buildTemplateEnvironment collects folders, filters and globals from the module tree
func buildTemplateEnvironment(tree *ModuleTree, builtins template.FuncMap, cache bool) (*TemplateEnvironment, error) {
	order := tree.Order()

	var dirs []string
	for i := len(order) - 1; i >= 0; i-- {
		dir := order[i].Module.meta.TemplateDir()
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}

	funcs := template.FuncMap{}
	for name, fn := range builtins {
		funcs[name] = fn
	}
	// root is last in tree order, so its registrations win
	for _, node := range order {
		meta := node.Module.meta
		for name, fn := range meta.TemplateFilters {
			if err := checkTemplateFunc(name, fn); err != nil {
				return nil, kerrors.ImproperConfiguration(node.Name(), err.Error(), ErrImproperConfiguration)
			}
			funcs[name] = fn
		}
		for name, v := range meta.TemplateGlobals {
			if reflect.TypeOf(v) != nil && reflect.TypeOf(v).Kind() == reflect.Func {
				if err := checkTemplateFunc(name, v); err != nil {
					return nil, kerrors.ImproperConfiguration(node.Name(), err.Error(), ErrImproperConfiguration)
				}
				funcs[name] = v
				continue
			}
			value := v
			funcs[name] = func() any { return value }
		}
	}

	return NewTemplateEnvironment(dirs, funcs, cache), nil
}

// checkTemplateFunc rejects functions html/template would panic on
func checkTemplateFunc(name string, fn any) error {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return fmt.Errorf("template filter %q is not a function", name)
	}
	switch {
	case t.NumOut() == 1:
	case t.NumOut() == 2 && t.Out(1) == errorType:
	default:
		return fmt.Errorf("template function %q must return one value, optionally followed by an error", name)
	}
	return nil
}

// Dirs returns the search path
func (e *TemplateEnvironment) Dirs() []string {
	return slices.Clone(e.dirs)
}

// Funcs returns the registered filters and globals
func (e *TemplateEnvironment) Funcs() template.FuncMap {
	out := make(template.FuncMap, len(e.funcs))
	for k, v := range e.funcs {
		out[k] = v
	}
	return out
}

// Lookup returns the parsed template with the given slash-separated name
func (e *TemplateEnvironment) Lookup(name string) (*template.Template, error) {
	if e.cache {
		e.mu.RLock()
		t, ok := e.parsed[name]
		e.mu.RUnlock()
		if ok {
			return t, nil
		}
	}

	t, err := e.parse(name)
	if err != nil {
		return nil, err
	}
	if e.cache {
		e.mu.Lock()
		e.parsed[name] = t
		e.mu.Unlock()
	}
	return t, nil
}

func (e *TemplateEnvironment) parse(name string) (*template.Template, error) {
	clean := filepath.FromSlash(strings.TrimPrefix(name, "/"))
	if clean == "" || strings.HasPrefix(filepath.Clean(clean), "..") {
		return nil, kerrors.WrapTemplateError(name, "find", ErrTemplateNotFound)
	}

	var file string
	for _, dir := range e.dirs {
		candidate := filepath.Join(dir, clean)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			file = candidate
			break
		}
	}
	if file == "" {
		return nil, kerrors.WrapTemplateError(name, "find", ErrTemplateNotFound).
			WithContext("search_path", e.dirs)
	}

	t := template.New(name).Funcs(e.funcs)
	// lowest precedence first so the root module's partials override
	for i := len(e.dirs) - 1; i >= 0; i-- {
		if err := parsePartials(t, e.dirs[i]); err != nil {
			return nil, kerrors.WrapTemplateError(name, "parse", err)
		}
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return nil, kerrors.WrapFileSystemError("read", file, err)
	}
	if _, err := t.New(name).Parse(string(content)); err != nil {
		return nil, kerrors.WrapTemplateError(name, "parse", err)
	}
	return t.Lookup(name), nil
}

func parsePartials(t *template.Template, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), "_") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = t.New(filepath.ToSlash(rel)).Parse(string(content))
		return err
	})
}

// RenderTo executes the named template into w
func (e *TemplateEnvironment) RenderTo(w io.Writer, name string, data any) error {
	t, err := e.Lookup(name)
	if err != nil {
		return err
	}
	if err := t.Execute(w, data); err != nil {
		return kerrors.WrapTemplateError(name, "execute", err)
	}
	return nil
}

// RenderString executes the named template and returns the output
func (e *TemplateEnvironment) RenderString(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := e.RenderTo(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render writes the named template as an HTML response
func (e *TemplateEnvironment) Render(rc RequestContext, code int, name string, data any) error {
	out, err := e.RenderString(name, data)
	if err != nil {
		return err
	}
	return rc.Response().HTML(code, out)
}

// urlForArgs turns url_for's variadic key/value arguments into a map
func urlForArgs(args []any) (map[string]string, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("url_for expects key/value pairs, got %d arguments", len(args))
	}
	values := make(map[string]string, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			return nil, fmt.Errorf("url_for key %v is not a string", args[i])
		}
		values[key] = fmt.Sprint(args[i+1])
	}
	return values, nil
}
