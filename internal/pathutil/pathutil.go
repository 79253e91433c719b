// Package pathutil resolves and guards local paths the CLI writes to.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyName   = errors.New("file name cannot be empty")
	ErrInvalidName = errors.New("invalid file name")
	ErrEscapesBase = errors.New("path escapes output directory")
)

// ResolveDir turns dir into an absolute path, expanding a leading ~ and
// resolving symlinks in the part of the path that already exists.
func ResolveDir(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = home + dir[1:]
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}

	// Walk up to the deepest existing ancestor, then re-append the rest.
	existing, rest := abs, ""
	for {
		if _, err := os.Stat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		resolved = existing
	}
	return filepath.Join(resolved, rest), nil
}

// CheckName rejects names that are not a single path element.
func CheckName(name string) error {
	switch {
	case name == "":
		return ErrEmptyName
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: contains a null byte", ErrInvalidName)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	return nil
}

// Join places name inside base and fails if the result would land outside.
func Join(base, name string) (string, error) {
	if err := CheckName(name); err != nil {
		return "", err
	}
	base = filepath.Clean(base)
	path := filepath.Join(base, name)
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrEscapesBase, name)
	}
	return path, nil
}
