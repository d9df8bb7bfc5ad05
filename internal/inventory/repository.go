// Package inventory holds the session's authoritative in-memory record set
// and persists every mutation through the durable store.
//
// A Repository is an owned state object: construct one per session with New
// and pass it to the workflows. Each mutation rewrites the whole file.
package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/inventario/pkg/types"
)

// PrefReadsSinceBackup is the prefs key of the read counter.
const PrefReadsSinceBackup = "reads_since_last_backup"

// Store is the durable side of the repository. *store.Store satisfies it.
type Store interface {
	ReadAll() ([]types.Record, error)
	WriteAll(records []types.Record) error
	CreateBackup() (string, error)
	HasPermission() bool
	SetFolder(h types.FolderHandle) error
	Folder() (types.FolderHandle, bool)
}

// Counter persists the read counter. *sqlite.Prefs satisfies it.
type Counter interface {
	GetInt(key string) (int, error)
	SetInt(key string, n int) error
	IncrementInt(key string) (int, error)
}

// Repository caches the record set for one session.
type Repository struct {
	mu      sync.Mutex
	store   Store
	counter Counter
	records map[string]types.Record
	loaded  bool
	session string
	log     *zap.Logger
}

// New creates a Repository over store and counter. The cache starts empty
// and is filled by Load, or lazily by the first read.
func New(store Store, counter Counter, log *zap.Logger) *Repository {
	session := newSessionID()
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{
		store:   store,
		counter: counter,
		records: make(map[string]types.Record),
		session: session,
		log:     log.With(zap.String("session", session)),
	}
}

// Session returns the session id stamped on this repository's log lines.
func (r *Repository) Session() string {
	return r.session
}

// Load replaces the cache with the contents of the store and returns a copy.
func (r *Repository) Load() ([]types.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.loadLocked(); err != nil {
		return nil, err
	}
	return r.snapshotLocked(), nil
}

// All returns every cached record ordered by timestamp, then code.
// A failed lazy load is logged and the result is empty.
func (r *Repository) All() []types.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lazyLoadLocked()
	return r.snapshotLocked()
}

// Get returns the record for code. ok is false when code is absent or the
// inventory could not be loaded; use Lookup to tell the two apart.
func (r *Repository) Get(code string) (types.Record, bool) {
	rec, ok, _ := r.Lookup(code)
	return rec, ok
}

// Lookup returns the record for code. err wraps types.ErrIO when the
// inventory file exists but could not be read.
func (r *Repository) Lookup(code string) (rec types.Record, ok bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.ensureLoadedLocked(); err != nil {
		return types.Record{}, false, err
	}
	rec, ok = r.records[code]
	return rec, ok, nil
}

// List returns the records newest first. A non-blank query keeps only codes
// containing it, ignoring case.
func (r *Repository) List(query string) []types.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lazyLoadLocked()

	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]types.Record, 0, len(r.records))
	for _, rec := range r.records {
		if query != "" && !strings.Contains(strings.ToLower(rec.Code), query) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// Upsert inserts or replaces rec and persists the whole set. When the write
// fails the in-memory change stays visible; callers should Load again before
// trusting the cache.
func (r *Repository) Upsert(rec types.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireLoadedLocked(); err != nil {
		r.log.Error("upsert refused", zap.String("code", rec.Code), zap.Error(err))
		return err
	}

	r.records[rec.Code] = rec
	if err := r.saveLocked(); err != nil {
		r.log.Error("upsert not persisted", zap.String("code", rec.Code), zap.Error(err))
		return err
	}
	r.log.Info("record upserted", zap.String("code", rec.Code), zap.Int("quantity", rec.Quantity))
	return nil
}

// UpdateQuantity sets the quantity of an existing record, keeping its
// timestamp so edits do not reorder the list. Returns types.ErrNotFound when
// code is absent.
func (r *Repository) UpdateQuantity(code string, qty int) error {
	if qty <= 0 {
		return types.ErrInvalidQuantity
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireLoadedLocked(); err != nil {
		r.log.Error("quantity update refused", zap.String("code", code), zap.Error(err))
		return err
	}

	existing, ok := r.records[code]
	if !ok {
		r.log.Warn("update of unknown record", zap.String("code", code))
		return fmt.Errorf("%w: %s", types.ErrNotFound, code)
	}
	r.records[code] = existing.WithQuantity(qty)
	if err := r.saveLocked(); err != nil {
		r.log.Error("quantity update not persisted", zap.String("code", code), zap.Error(err))
		return err
	}
	r.log.Info("quantity updated", zap.String("code", code), zap.Int("quantity", qty))
	return nil
}

// Delete removes code and persists. If the write fails the record is put
// back so the cache does not drift from disk. Returns types.ErrNotFound when
// code is absent.
func (r *Repository) Delete(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireLoadedLocked(); err != nil {
		r.log.Error("delete refused", zap.String("code", code), zap.Error(err))
		return err
	}

	removed, ok := r.records[code]
	if !ok {
		r.log.Warn("delete of unknown record", zap.String("code", code))
		return fmt.Errorf("%w: %s", types.ErrNotFound, code)
	}
	delete(r.records, code)
	if err := r.saveLocked(); err != nil {
		r.records[code] = removed
		r.log.Error("delete not persisted, record restored", zap.String("code", code), zap.Error(err))
		return err
	}
	r.log.Info("record deleted", zap.String("code", code))
	return nil
}

// CreateBackup snapshots the primary file and returns the backup name.
func (r *Repository) CreateBackup() (string, error) {
	name, err := r.store.CreateBackup()
	if err != nil {
		r.log.Error("backup failed", zap.Error(err))
		return "", err
	}
	r.log.Info("backup created", zap.String("backup", name))
	return name, nil
}

// HasPermission reports whether the chosen folder is usable.
func (r *Repository) HasPermission() bool {
	return r.store.HasPermission()
}

// SetFolder records a new folder and drops the cache so the next read comes
// from the new location.
func (r *Repository) SetFolder(h types.FolderHandle) error {
	if err := r.store.SetFolder(h); err != nil {
		return err
	}
	r.mu.Lock()
	r.records = make(map[string]types.Record)
	r.loaded = false
	r.mu.Unlock()
	return nil
}

// Folder returns the chosen folder handle.
func (r *Repository) Folder() (types.FolderHandle, bool) {
	return r.store.Folder()
}

func (r *Repository) loadLocked() error {
	records, err := r.store.ReadAll()
	if err != nil {
		r.log.Error("load failed", zap.Error(err))
		return err
	}
	r.records = make(map[string]types.Record, len(records))
	for _, rec := range records {
		r.records[rec.Code] = rec
	}
	r.loaded = true
	r.log.Debug("inventory loaded into memory", zap.Int("records", len(r.records)))
	return nil
}

// ensureLoadedLocked performs the first load lazily when the folder is
// usable. A failed load leaves the cache unloaded and is returned wrapped
// in types.ErrIO; the next call tries again.
func (r *Repository) ensureLoadedLocked() error {
	if r.loaded || !r.store.HasPermission() {
		return nil
	}
	err := r.loadLocked()
	if err == nil {
		return nil
	}
	if errors.Is(err, types.ErrIO) {
		return err
	}
	return fmt.Errorf("%w: loading inventory: %w", types.ErrIO, err)
}

// lazyLoadLocked is ensureLoadedLocked for read paths that cannot report
// an error.
func (r *Repository) lazyLoadLocked() {
	if err := r.ensureLoadedLocked(); err != nil {
		r.log.Warn("lazy load failed", zap.Error(err))
	}
}

// requireLoadedLocked guards mutations. Every write replaces the whole file,
// so the cache must hold what is on disk before anything is written.
func (r *Repository) requireLoadedLocked() error {
	if err := r.ensureLoadedLocked(); err != nil {
		return err
	}
	if !r.loaded {
		return fmt.Errorf("%w: inventory not loaded", types.ErrPermission)
	}
	return nil
}

func (r *Repository) saveLocked() error {
	return r.store.WriteAll(r.snapshotLocked())
}

// snapshotLocked copies the cache ordered by timestamp, then code, which is
// also the order rows are written to disk.
func (r *Repository) snapshotLocked() []types.Record {
	out := make([]types.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// newSessionID returns a UUID v7 for log correlation.
func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
