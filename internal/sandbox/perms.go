package sandbox

import (
	"os"

	"github.com/spf13/afero"
)

// normalizePermissions applies the equivalent of `chmod -R u+rwX,go+rX,go-w`
// to everything under root. Symlinks are left alone.
func normalizePermissions(fs afero.Fs, root string) error {
	return afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		want := normalizedMode(info.Mode())
		if want == info.Mode().Perm() {
			return nil
		}
		return fs.Chmod(p, want)
	})
}

// normalizedMode gives the owner read/write, everyone read, nobody but the
// owner write, and traverse/execute to all when the entry is a directory or
// was already executable by someone.
func normalizedMode(mode os.FileMode) os.FileMode {
	perm := mode.Perm() | 0600 | 0044
	if mode.IsDir() || perm&0111 != 0 {
		perm |= 0111
	}
	return perm &^ 0022
}
