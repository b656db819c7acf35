package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestDir returns a temp dir with symlinks already evaluated (macOS /var).
func newTestDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to evaluate temp dir: %v", err)
	}
	return dir
}

func TestNewGuard(t *testing.T) {
	tmpDir := newTestDir(t)

	tests := []struct {
		name    string
		dir     string
		wantErr bool
	}{
		{
			name: "valid existing directory",
			dir:  tmpDir,
		},
		{
			name: "current directory",
			dir:  ".",
		},
		{
			name:    "empty directory",
			dir:     "",
			wantErr: true,
		},
		{
			name: "non-existent directory",
			dir:  filepath.Join(tmpDir, "does-not-exist"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard, err := NewGuard(tt.dir)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGuard() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && guard.BaseDir() == "" {
				t.Error("NewGuard() created guard with empty base directory")
			}
		})
	}
}

func TestGuard_ValidatePath(t *testing.T) {
	tmpDir := newTestDir(t)
	guard, err := NewGuard(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}

	if err := os.Mkdir(filepath.Join(tmpDir, "subdir"), 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "file in base", path: "greeting.txt"},
		{name: "file in subdir", path: "subdir/file.txt"},
		{name: "dot path", path: "."},
		{name: "traversal that stays inside", path: "subdir/../greeting.txt"},
		{name: "empty path", path: "", wantErr: true},
		{name: "parent traversal", path: "../secret.txt", wantErr: true},
		{name: "deep traversal", path: "subdir/../../etc/passwd", wantErr: true},
		{name: "absolute outside", path: "/etc/passwd", wantErr: true},
		{name: "absolute inside", path: filepath.Join(tmpDir, "greeting.txt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidatePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestGuard_ResolvePath(t *testing.T) {
	tmpDir := newTestDir(t)
	guard, err := NewGuard(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}

	got, err := guard.ResolvePath("a/b/../c.txt")
	if err != nil {
		t.Fatalf("ResolvePath() error = %v", err)
	}
	if want := filepath.Join(tmpDir, "a", "c.txt"); got != want {
		t.Errorf("ResolvePath() = %q, want %q", got, want)
	}
}

func TestGuard_SymlinkEscape(t *testing.T) {
	base := newTestDir(t)
	outside := newTestDir(t)

	secret := filepath.Join(outside, "secret.txt")
	if err := os.WriteFile(secret, []byte("secret"), 0600); err != nil {
		t.Fatalf("Failed to write secret: %v", err)
	}
	if err := os.Symlink(secret, filepath.Join(base, "link.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	if err := os.Symlink(outside, filepath.Join(base, "linkdir")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	guard, err := NewGuard(base)
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}

	for _, path := range []string{"link.txt", "linkdir/secret.txt"} {
		if err := guard.ValidatePath(path); err == nil {
			t.Errorf("ValidatePath(%q) should reject symlink escaping the base directory", path)
		}
	}
}
