// Package folder is the document-access layer: it resolves an opaque folder
// handle to a readable and writable location and keeps long-lived access
// grants so a chosen folder survives process restarts.
package folder

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/mesh-intelligence/inventario/pkg/types"
)

// Grant key layout in the backing store.
const (
	grantPrefix   = "grant:"
	modeReadWrite = "rw"
	probePattern  = ".inventario-probe-*"
)

// GrantStore persists access grants. *sqlite.Prefs satisfies it.
type GrantStore interface {
	GetString(key string) (string, bool, error)
	SetString(key, value string) error
	Delete(key string) error
}

// Access hands out Folders for granted handles.
type Access struct {
	fs     afero.Fs
	grants GrantStore
}

// NewAccess returns an Access over fs whose grants live in grants.
func NewAccess(fs afero.Fs, grants GrantStore) *Access {
	return &Access{fs: fs, grants: grants}
}

// Grant takes a persistable read/write grant on h. The folder must exist and
// be a directory.
func (a *Access) Grant(h types.FolderHandle) error {
	if h.IsZero() {
		return fmt.Errorf("%w: empty folder handle", types.ErrPermission)
	}
	ok, err := afero.DirExists(a.fs, dirOf(h))
	if err != nil {
		return fmt.Errorf("%w: checking %s: %w", types.ErrPermission, h, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s is not a directory", types.ErrPermission, h)
	}
	if err := a.grants.SetString(grantKey(h), modeReadWrite); err != nil {
		return fmt.Errorf("persisting grant for %s: %w", h, err)
	}
	return nil
}

// Revoke drops the grant on h. Revoking an absent grant is not an error.
func (a *Access) Revoke(h types.FolderHandle) error {
	return a.grants.Delete(grantKey(h))
}

// Granted reports whether a read/write grant is held on h.
func (a *Access) Granted(h types.FolderHandle) (bool, error) {
	mode, ok, err := a.grants.GetString(grantKey(h))
	if err != nil {
		return false, err
	}
	return ok && mode == modeReadWrite, nil
}

// Resolve returns the Folder behind h. It fails with types.ErrPermission when
// h is empty, no grant is held, or the directory no longer exists.
func (a *Access) Resolve(h types.FolderHandle) (*Folder, error) {
	if h.IsZero() {
		return nil, fmt.Errorf("%w: no folder selected", types.ErrPermission)
	}
	granted, err := a.Granted(h)
	if err != nil {
		return nil, fmt.Errorf("%w: reading grant for %s: %w", types.ErrPermission, h, err)
	}
	if !granted {
		return nil, fmt.Errorf("%w: no grant held on %s", types.ErrPermission, h)
	}
	dir := dirOf(h)
	ok, err := afero.DirExists(a.fs, dir)
	if err != nil || !ok {
		return nil, fmt.Errorf("%w: %s cannot be resolved", types.ErrPermission, h)
	}
	return &Folder{fs: a.fs, dir: dir}, nil
}

// Folder is a resolved, granted directory.
type Folder struct {
	fs  afero.Fs
	dir string
}

// Fs returns the filesystem the folder lives on.
func (f *Folder) Fs() afero.Fs { return f.fs }

// Dir returns the folder path.
func (f *Folder) Dir() string { return f.dir }

// Path joins name onto the folder path.
func (f *Folder) Path(name string) string { return filepath.Join(f.dir, name) }

// CanRead reports whether the folder listing can be read.
func (f *Folder) CanRead() bool {
	d, err := f.fs.Open(f.dir)
	if err != nil {
		return false
	}
	defer d.Close()
	_, err = d.Readdirnames(1)
	return err == nil || errors.Is(err, io.EOF)
}

// CanWrite reports whether a file can be created in the folder. It creates
// and removes a probe file.
func (f *Folder) CanWrite() bool {
	probe, err := afero.TempFile(f.fs, f.dir, probePattern)
	if err != nil {
		return false
	}
	name := probe.Name()
	probe.Close()
	return f.fs.Remove(name) == nil
}

func grantKey(h types.FolderHandle) string {
	return grantPrefix + dirOf(h)
}

func dirOf(h types.FolderHandle) string {
	return filepath.Clean(string(h))
}
