// Package workspace enforces directory boundaries on file system access. It prevents
// path traversal so that names supplied by clients can only reach files inside one
// base directory.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Guard confines paths to a base directory.
type Guard struct {
	baseDir string // Absolute, symlink-free path to the base directory
}

// NewGuard creates a guard for dir. The path is made absolute and cleaned, and
// symlinks are evaluated when the directory exists. A missing directory is allowed;
// every path under it then simply does not exist.
func NewGuard(dir string) (*Guard, error) {
	if dir == "" {
		return nil, fmt.Errorf("base directory cannot be empty")
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	evalPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to evaluate base directory symlinks: %w", err)
		}
		evalPath = absPath
	}

	return &Guard{baseDir: evalPath}, nil
}

// ValidatePath checks that path resolves inside the base directory.
//
// Returns an error if:
// - The path is empty
// - The resolved path is outside the base directory
// - The path attempts directory traversal
func (g *Guard) ValidatePath(path string) error {
	resolvedPath, err := g.ResolvePath(path)
	if err != nil {
		return err
	}

	if !g.IsWithin(resolvedPath) {
		return fmt.Errorf("path '%s' is outside the base directory", path)
	}

	return nil
}

// ResolvePath converts a relative path to an absolute path under the base directory
// and resolves symbolic links. Absolute paths are cleaned and resolved as given.
// The result is not checked against the boundary; use ValidatePath or IsWithin.
func (g *Guard) ResolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	var absPath string
	if filepath.IsAbs(cleanPath) {
		absPath = cleanPath
	} else {
		absPath = filepath.Join(g.baseDir, cleanPath)
	}

	return g.resolveSymlinks(absPath), nil
}

// IsWithin checks if an absolute path is the base directory or one of its
// descendants, after resolving symlinks.
func (g *Guard) IsWithin(absPath string) bool {
	// Evaluate symlinks to ensure consistent path comparison
	// This is important on systems like macOS where /var -> /private/var
	evalPath := g.resolveSymlinks(absPath)

	return evalPath == g.baseDir ||
		strings.HasPrefix(evalPath+string(filepath.Separator), g.baseDir+string(filepath.Separator))
}

// resolveSymlinks resolves symlinks in a path, handling non-existent paths
// by recursively resolving parent directories until an existing one is found.
func (g *Guard) resolveSymlinks(path string) string {
	// Try direct resolution first
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}

	// For non-existent paths, collect path components and resolve from root
	var components []string
	currentPath := path

	for {
		if resolved, err := filepath.EvalSymlinks(currentPath); err == nil {
			result := resolved
			for i := len(components) - 1; i >= 0; i-- {
				result = filepath.Join(result, components[i])
			}
			return result
		}

		dir := filepath.Dir(currentPath)
		if dir == currentPath || dir == "." || dir == "/" {
			// Reached root without finding existing path, return original
			return path
		}

		components = append(components, filepath.Base(currentPath))
		currentPath = dir
	}
}

// BaseDir returns the absolute path of the base directory.
func (g *Guard) BaseDir() string {
	return g.baseDir
}
