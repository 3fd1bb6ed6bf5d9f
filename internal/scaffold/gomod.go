package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// errNoGoMod is returned when no go.mod exists above a directory
var errNoGoMod = errors.New("go.mod file not found")

// FindGoMod searches dir and its parents for go.mod
func FindGoMod(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(current, "go.mod")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", errNoGoMod
		}
		current = parent
	}
}

// ModulePath reads the module path declared in the go.mod file at path
func ModulePath(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod file: %w", err)
	}
	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return "", fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if f.Module == nil {
		return "", fmt.Errorf("no module declaration found in %s", path)
	}
	return f.Module.Mod.Path, nil
}

// ImportPath returns the import path of dir inside the Go module containing it
func ImportPath(dir string) (string, error) {
	goMod, err := FindGoMod(dir)
	if err != nil {
		return "", err
	}
	modPath, err := ModulePath(goMod)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(filepath.Dir(goMod), abs)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return modPath, nil
	}
	return modPath + "/" + filepath.ToSlash(rel), nil
}
