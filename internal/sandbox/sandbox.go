// Package sandbox manages the temporary directories EPUB archives are
// unpacked into.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/afero"
	"github.com/yuanying/epub2txt/internal/pathguard"
)

var (
	// ErrExtraction indicates the archive could not be unpacked.
	ErrExtraction = errors.New("sandbox: extraction failed")

	// ErrUnsafeEntry indicates an archive entry whose name would land
	// outside the sandbox.
	ErrUnsafeEntry = errors.New("sandbox: unsafe archive entry")
)

// Extractor unpacks every entry of an archive into dir.
type Extractor interface {
	Extract(archivePath, dir string) error
}

// Options configures a Manager.
type Options struct {
	// Base is the directory sandboxes are created in. Empty means os.TempDir().
	Base string
	// Extractor unpacks archives. Nil means the in-process ZipExtractor.
	Extractor Extractor
}

// Manager creates, fills and destroys sandboxes. It remembers the sandboxes
// it handed out until they are released so ReleaseAll can clean up after an
// interrupted run.
type Manager struct {
	fs        afero.Fs
	base      string
	extractor Extractor

	mu   sync.Mutex
	live map[*Sandbox]struct{}
}

// NewManager creates a Manager.
func NewManager(opts Options) *Manager {
	if opts.Base == "" {
		opts.Base = os.TempDir()
	}
	if opts.Extractor == nil {
		opts.Extractor = ZipExtractor{}
	}
	return &Manager{
		fs:        afero.NewOsFs(),
		base:      opts.Base,
		extractor: opts.Extractor,
		live:      make(map[*Sandbox]struct{}),
	}
}

// Base returns the directory sandboxes are created in.
func (m *Manager) Base() string {
	return m.base
}

// Sandbox is one acquired extraction directory. Callers release it when
// done; Release is safe to call repeatedly and on a nil Sandbox.
type Sandbox struct {
	fs       afero.Fs
	root     string
	manager  *Manager
	released bool
}

// Acquire creates a new, uniquely named sandbox directory under the base
// directory. The name carries the process id and a random suffix.
func (m *Manager) Acquire() (*Sandbox, error) {
	dir, err := afero.TempDir(m.fs, m.base, fmt.Sprintf("epub2txt.%d.", os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to create sandbox in %s: %w", m.base, err)
	}

	root, err := pathguard.Canonical(dir)
	if err != nil {
		_ = m.fs.RemoveAll(dir)
		return nil, fmt.Errorf("failed to resolve sandbox %s: %w", dir, err)
	}

	sb := &Sandbox{fs: m.fs, root: root, manager: m}
	m.mu.Lock()
	m.live[sb] = struct{}{}
	m.mu.Unlock()
	return sb, nil
}

// ReleaseAll releases every sandbox that has been acquired and not yet
// released. It is meant for signal handlers.
func (m *Manager) ReleaseAll() error {
	m.mu.Lock()
	pending := make([]*Sandbox, 0, len(m.live))
	for sb := range m.live {
		pending = append(pending, sb)
	}
	m.mu.Unlock()

	var errs []error
	for _, sb := range pending {
		if err := sb.Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Extract unpacks archivePath into sb and normalizes the permissions of
// everything it wrote.
func (m *Manager) Extract(sb *Sandbox, archivePath string) error {
	if sb == nil || sb.released {
		return fmt.Errorf("%w: sandbox is not acquired", ErrExtraction)
	}

	if err := m.extractor.Extract(archivePath, sb.root); err != nil {
		if errors.Is(err, ErrExtraction) {
			return err
		}
		return fmt.Errorf("%w: %s: %w", ErrExtraction, archivePath, err)
	}

	if err := normalizePermissions(sb.fs, sb.root); err != nil {
		return fmt.Errorf("failed to fix permissions in %s: %w", sb.root, err)
	}
	return nil
}

// Root returns the canonical path of the sandbox directory.
func (sb *Sandbox) Root() string {
	return sb.root
}

// Release deletes the sandbox and everything in it.
func (sb *Sandbox) Release() error {
	if sb == nil || !sb.manager.forget(sb) {
		return nil
	}

	if err := sb.fs.RemoveAll(sb.root); err != nil {
		return fmt.Errorf("failed to remove sandbox %s: %w", sb.root, err)
	}
	return nil
}

// forget marks sb released and drops it from the live set. It reports false
// when sb had already been released.
func (m *Manager) forget(sb *Sandbox) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sb.released {
		return false
	}
	sb.released = true
	delete(m.live, sb)
	return true
}
