// Package store is the durable side of the inventory: it reads and writes
// inventario.csv inside the granted folder, takes timestamped backups, and
// remembers which folder was chosen.
//
// Every write replaces the whole file. The new content goes to a temp file
// in the same folder which is then renamed over the primary file in one step,
// so a crash at any point leaves either the old or the new file in place.
package store

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/inventario/internal/csvcodec"
	"github.com/mesh-intelligence/inventario/internal/folder"
	"github.com/mesh-intelligence/inventario/pkg/types"
)

// File names inside the granted folder.
const (
	PrimaryFileName = "inventario.csv"
	tempPattern     = "inventario-*.tmp"
)

// PrefFolderURI is the prefs key holding the chosen folder handle.
const PrefFolderURI = "folder_uri"

// KeyValue is the persisted key/value collaborator. *sqlite.Prefs satisfies it.
type KeyValue interface {
	GetString(key string) (string, bool, error)
	SetString(key, value string) error
	Delete(key string) error
}

// Store reads and writes the record set for the chosen folder.
type Store struct {
	access *folder.Access
	prefs  KeyValue
	codec  *csvcodec.Codec
	now    func() time.Time
	log    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock sets the clock used for backup names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodec sets the CSV codec. Defaults to csvcodec.New().
func WithCodec(c *csvcodec.Codec) Option {
	return func(s *Store) {
		if c != nil {
			s.codec = c
		}
	}
}

// New creates a Store. access resolves folders; prefs persists the folder
// handle.
func New(access *folder.Access, prefs KeyValue, opts ...Option) *Store {
	s := &Store{
		access: access,
		prefs:  prefs,
		codec:  csvcodec.New(),
		now:    time.Now,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Codec returns the codec the store encodes with.
func (s *Store) Codec() *csvcodec.Codec {
	return s.codec
}

// SetFolder takes a long-lived read/write grant on h and persists it as the
// chosen folder. Nothing is persisted if the grant cannot be taken.
func (s *Store) SetFolder(h types.FolderHandle) error {
	if err := s.access.Grant(h); err != nil {
		s.log.Error("folder grant failed", zap.String("folder", h.String()), zap.Error(err))
		return err
	}
	if err := s.prefs.SetString(PrefFolderURI, h.String()); err != nil {
		s.log.Error("persisting folder failed", zap.String("folder", h.String()), zap.Error(err))
		return fmt.Errorf("persisting folder handle: %w", err)
	}
	s.log.Info("folder configured", zap.String("folder", h.String()))
	return nil
}

// Folder returns the chosen folder handle. ok is false when none is set.
func (s *Store) Folder() (h types.FolderHandle, ok bool) {
	v, ok, err := s.prefs.GetString(PrefFolderURI)
	if err != nil {
		s.log.Warn("reading folder handle failed", zap.Error(err))
		return "", false
	}
	h = types.FolderHandle(v)
	if !ok || h.IsZero() {
		return "", false
	}
	return h, true
}

// HasPermission reports whether the chosen folder resolves and accepts
// writes. Higher layers use it as a precondition gate.
func (s *Store) HasPermission() bool {
	f, err := s.resolve()
	if err != nil {
		s.log.Debug("permission check failed", zap.Error(err))
		return false
	}
	ok := f.CanRead() && f.CanWrite()
	s.log.Debug("permission check", zap.String("folder", f.Dir()), zap.Bool("granted", ok))
	return ok
}

// ReadAll decodes the primary file. It returns an empty result and no error
// when no folder is chosen, the folder cannot be resolved, or the file does
// not exist yet. A failure reading an existing file wraps types.ErrIO.
func (s *Store) ReadAll() ([]types.Record, error) {
	f, err := s.resolve()
	if err != nil {
		s.log.Warn("folder unavailable, returning empty inventory", zap.Error(err))
		return nil, nil
	}

	path := f.Path(PrimaryFileName)
	data, err := afero.ReadFile(f.Fs(), path)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Debug("inventory file not found, returning empty inventory", zap.String("path", path))
		return nil, nil
	}
	if err != nil {
		s.log.Error("reading inventory failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%w: reading %s: %w", types.ErrIO, path, err)
	}

	records := s.codec.Decode(data)
	s.log.Debug("inventory loaded", zap.String("path", path), zap.Int("records", len(records)))
	return records, nil
}

// WriteAll replaces the primary file with records. On failure the previous
// file is left as it was and no temp file remains. Errors wrap
// types.ErrPermission or types.ErrIO.
func (s *Store) WriteAll(records []types.Record) error {
	f, err := s.resolve()
	if err != nil {
		s.log.Error("folder unavailable for write", zap.Error(err))
		return err
	}
	if !f.CanWrite() {
		s.log.Error("folder is not writable", zap.String("folder", f.Dir()))
		return fmt.Errorf("%w: %s is not writable", types.ErrPermission, f.Dir())
	}

	path := f.Path(PrimaryFileName)
	if err := writeAtomic(f.Fs(), path, s.codec.Encode(records)); err != nil {
		s.log.Error("writing inventory failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %w", types.ErrIO, err)
	}
	s.log.Debug("inventory saved", zap.String("path", path), zap.Int("records", len(records)))
	return nil
}

func (s *Store) resolve() (*folder.Folder, error) {
	h, ok := s.Folder()
	if !ok {
		return nil, fmt.Errorf("%w: no folder selected", types.ErrPermission)
	}
	return s.access.Resolve(h)
}
