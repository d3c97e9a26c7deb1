package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestNormalizedMode(t *testing.T) {
	tests := []struct {
		name string
		in   os.FileMode
		want os.FileMode
	}{
		{"unreadable file", 0000, 0644},
		{"write only file", 0200, 0644},
		{"world writable file", 0666, 0644},
		{"executable file", 0700, 0755},
		{"group executable file", 0010, 0755},
		{"locked dir", os.ModeDir | 0000, 0755},
		{"world writable dir", os.ModeDir | 0777, 0755},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizedMode(tt.in); got != tt.want {
				t.Errorf("normalizedMode(%v) = %o, want %o", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizePermissions(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "OEBPS")
	file := filepath.Join(sub, "ch1.xhtml")

	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.Chmod(file, 0222); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	if err := os.Chmod(sub, 0700); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}

	if err := normalizePermissions(afero.NewOsFs(), root); err != nil {
		t.Fatalf("normalizePermissions() error = %v", err)
	}

	for path, want := range map[string]os.FileMode{sub: 0755, file: 0644} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat(%q) failed: %v", path, err)
		}
		if got := info.Mode().Perm(); got != want {
			t.Errorf("%s mode = %o, want %o", filepath.Base(path), got, want)
		}
	}
}
