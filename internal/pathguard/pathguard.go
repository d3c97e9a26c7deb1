// Package pathguard keeps paths derived from archive contents inside the
// directory they were extracted to.
package pathguard

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathTraversal is returned when a path cannot be shown to lie inside its
// containment root, either because it escapes the root or because it cannot
// be canonicalized at all.
var ErrPathTraversal = errors.New("path escapes containment root")

// Canonical returns the absolute form of p with every symlink resolved.
// The path must exist.
func Canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Resolve canonicalizes candidate and verifies that it is root itself or a
// descendant of root. A relative candidate is taken relative to root.
// The returned path is canonical and safe to open.
func Resolve(candidate, root string) (string, error) {
	canonRoot, err := Canonical(root)
	if err != nil {
		return "", fmt.Errorf("%w: cannot resolve root %q: %w", ErrPathTraversal, root, err)
	}

	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(canonRoot, candidate)
	}

	canon, err := Canonical(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: cannot resolve %q: %w", ErrPathTraversal, candidate, err)
	}

	if !Contains(canonRoot, canon) {
		return "", fmt.Errorf("%w: %q is outside %q", ErrPathTraversal, canon, canonRoot)
	}

	return canon, nil
}

// Contains reports whether p equals root or lies below it. The comparison is
// made on whole path segments, so "/tmp/book-evil" is not inside "/tmp/book".
// Both arguments are compared lexically; callers wanting symlink safety must
// pass canonical paths.
func Contains(root, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(p))
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}
