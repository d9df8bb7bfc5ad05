// This file provides the temp-file, fsync, rename write used for every
// full-file replacement.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// fileMode is the permission of new inventory and backup files.
const fileMode os.FileMode = 0o644

// writeAtomic writes data to a temp file next to path, syncs and closes it,
// then renames it over path. Rename replaces an existing file in a single
// step, so there is no window in which path is missing. The temp file is
// removed on every failure path. The replacement keeps the permission bits
// of the file it replaces, or fileMode for a new file.
func writeAtomic(fs afero.Fs, path string, data []byte) error {
	tmp, err := afero.TempFile(fs, filepath.Dir(path), tempPattern)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	mode := fileMode
	if info, err := fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := fs.Chmod(tmpName, mode); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("setting temp file mode: %w", err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
