// Package resources serves named static files from a base directory.
package resources

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/entrhq/toolhost/pkg/logging"
	"github.com/entrhq/toolhost/pkg/security/workspace"
)

// CodeResourceNotFound is reported when a resource name does not resolve to a file.
const CodeResourceNotFound = "resource_not_found"

// ResourceNotFoundError means name does not resolve to a regular file inside the
// base directory.
type ResourceNotFoundError struct {
	Name string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Name)
}

// ErrorCode returns the stable code for this error.
func (e *ResourceNotFoundError) ErrorCode() string { return CodeResourceNotFound }

// Reader reads resources from a base directory. Every call reads from disk, so
// changes to the files are visible on the next read.
type Reader struct {
	guard  *workspace.Guard
	logger *logging.Logger
}

// NewReader creates a reader rooted at dir. The directory does not have to exist.
func NewReader(dir string, logger *logging.Logger) (*Reader, error) {
	guard, err := workspace.NewGuard(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource reader: %w", err)
	}
	if info, err := os.Stat(guard.BaseDir()); err != nil || !info.IsDir() {
		logger.Warnf("resource directory %s is missing; every resource read will fail", guard.BaseDir())
	}
	return &Reader{guard: guard, logger: logger}, nil
}

// Dir returns the absolute base directory.
func (r *Reader) Dir() string {
	return r.guard.BaseDir()
}

// Read returns the exact content of the named file.
func (r *Reader) Read(name string) (string, error) {
	if name == "" {
		return "", &ResourceNotFoundError{Name: name}
	}
	if err := r.guard.ValidatePath(name); err != nil {
		r.logger.Warnf("rejected resource name %q: %v", name, err)
		return "", &ResourceNotFoundError{Name: name}
	}

	path, err := r.guard.ResolvePath(name)
	if err != nil {
		return "", &ResourceNotFoundError{Name: name}
	}

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", &ResourceNotFoundError{Name: name}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &ResourceNotFoundError{Name: name}
		}
		return "", fmt.Errorf("failed to read resource %s: %w", name, err)
	}
	return string(data), nil
}

// DefaultDir returns the resources directory next to the executable, or ./resources
// when that does not exist.
func DefaultDir() string {
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Join(filepath.Dir(exe), "resources")
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return "resources"
}
