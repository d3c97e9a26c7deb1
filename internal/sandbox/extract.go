package sandbox

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/yuanying/epub2txt/internal/pathguard"
)

// defaultMaxEntrySize is the largest decompressed size accepted for a single
// archive entry. It guards against zip bombs.
const defaultMaxEntrySize int64 = 256 * 1024 * 1024

// ZipExtractor unpacks ZIP archives in-process.
//
// Entry names are checked before anything is written: absolute names and
// names that climb out of the target directory are refused. Symlink entries
// are skipped, so nothing it writes can redirect a later path lookup.
type ZipExtractor struct {
	// MaxEntrySize limits the decompressed size of one entry.
	// Zero means defaultMaxEntrySize.
	MaxEntrySize int64
}

// Extract unpacks archivePath into dir.
func (z ZipExtractor) Extract(archivePath, dir string) error {
	zr, err := zip.OpenReader(archivePath)
	if errors.Is(err, zip.ErrInsecurePath) {
		zr.Close()
		return fmt.Errorf("%w: %s: %w", ErrExtraction, archivePath, ErrUnsafeEntry)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExtraction, archivePath, err)
	}
	defer zr.Close()

	jail := afero.NewBasePathFs(afero.NewOsFs(), dir)
	for _, f := range zr.File {
		if err := z.extractEntry(jail, dir, f); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrExtraction, archivePath, err)
		}
	}
	return nil
}

func (z ZipExtractor) extractEntry(jail afero.Fs, dir string, f *zip.File) error {
	name, err := entryName(dir, f.Name)
	if err != nil {
		return err
	}
	if name == "" {
		return nil
	}

	mode := f.Mode()
	switch {
	case mode&os.ModeSymlink != 0:
		return nil
	case mode.IsDir():
		return jail.MkdirAll(name, 0755)
	}

	if err := jail.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", f.Name, err)
	}

	limit := z.MaxEntrySize
	if limit <= 0 {
		limit = defaultMaxEntrySize
	}
	if f.UncompressedSize64 > uint64(limit) {
		return fmt.Errorf("entry %s too large: %d bytes (max %d)", f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := jail.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", f.Name, err)
	}

	// Read one byte past the limit so a forged header size is caught too.
	n, err := io.Copy(out, io.LimitReader(rc, limit+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", f.Name, err)
	}
	if n > limit {
		return fmt.Errorf("entry %s decompressed size exceeds limit (%d bytes)", f.Name, limit)
	}
	return nil
}

// entryName converts a ZIP entry name into a path relative to dir, or
// returns ErrUnsafeEntry. An empty result means the entry names dir itself.
func entryName(dir, raw string) (string, error) {
	slashed := strings.ReplaceAll(raw, "\\", "/")
	if strings.HasPrefix(slashed, "/") || filepath.VolumeName(raw) != "" {
		return "", fmt.Errorf("%w: absolute name %q", ErrUnsafeEntry, raw)
	}

	cleaned := path.Clean(slashed)
	if cleaned == "." {
		return "", nil
	}

	target := filepath.Join(dir, filepath.FromSlash(cleaned))
	if !pathguard.Contains(dir, target) {
		return "", fmt.Errorf("%w: %q escapes %s", ErrUnsafeEntry, raw, dir)
	}
	return filepath.FromSlash(cleaned), nil
}

// CommandExtractor unpacks archives by running the external unzip tool.
// Unlike ZipExtractor it restores whatever the archive records, including
// symlinks, so every path read afterwards must go through pathguard.
type CommandExtractor struct {
	// Path is the unzip executable. Empty means "unzip" from PATH.
	Path string
}

// Extract runs `unzip -o -qq archivePath -d dir`.
func (c CommandExtractor) Extract(archivePath, dir string) error {
	bin := c.Path
	if bin == "" {
		bin = "unzip"
	}

	var stderr bytes.Buffer
	cmd := exec.Command(bin, "-o", "-qq", archivePath, "-d", dir)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%w: %s: %w: %s", ErrExtraction, archivePath, err, msg)
		}
		return fmt.Errorf("%w: %s: %w", ErrExtraction, archivePath, err)
	}
	return nil
}
