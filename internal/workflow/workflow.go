package workflow

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/inventario/pkg/types"
)

// Repository is the subset of *inventory.Repository the workflows use.
type Repository interface {
	Load() ([]types.Record, error)
	Lookup(code string) (types.Record, bool, error)
	Upsert(rec types.Record) error
	UpdateQuantity(code string, qty int) error
	Delete(code string) error
	IncrementReads() (int, error)
	ResetReads() error
	CreateBackup() (string, error)
	HasPermission() bool
}

// Workflows runs operator actions against one repository. Calls are expected
// to be serialized by the caller.
type Workflows struct {
	repo      Repository
	threshold int
	now       func() time.Time
	log       *zap.Logger
}

// Option configures Workflows.
type Option func(*Workflows)

// WithBackupThreshold sets how many new reads trigger a backup. Values below
// one are ignored.
func WithBackupThreshold(n int) Option {
	return func(w *Workflows) {
		if n > 0 {
			w.threshold = n
		}
	}
}

// WithClock sets the clock used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(w *Workflows) {
		if now != nil {
			w.now = now
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Workflows) {
		if log != nil {
			w.log = log
		}
	}
}

// New returns Workflows over repo with a backup threshold of
// types.DefaultBackupThreshold.
func New(repo Repository, opts ...Option) *Workflows {
	w := &Workflows{
		repo:      repo,
		threshold: types.DefaultBackupThreshold,
		now:       time.Now,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Threshold returns the number of new reads between backups.
func (w *Workflows) Threshold() int {
	return w.threshold
}

// Load reloads the record set from disk. When no usable folder is chosen it
// reports NeedsFolder and leaves the cache alone.
func (w *Workflows) Load() LoadResult {
	if !w.repo.HasPermission() {
		w.log.Info("load skipped, folder selection needed")
		return LoadResult{Result: fail(ReasonPermission, msgPermission), NeedsFolder: true}
	}
	records, err := w.repo.Load()
	if err != nil {
		w.log.Error("load failed", zap.Error(err))
		return LoadResult{Result: failFor(err, msgLoadFailed)}
	}
	return LoadResult{Result: ok("loaded"), Records: len(records)}
}

// ConfirmRead records a scanned code with its quantity. A new code is
// written with the current time and counts toward the next backup. A code
// already present is reported as Duplicate with its current quantity and
// nothing is changed; the caller may then offer Overwrite.
func (w *Workflows) ConfirmRead(code string, qty int) ConfirmResult {
	log := w.log.With(zap.String("code", code), zap.Int("quantity", qty))
	if r, bad := w.validate(code, qty); bad {
		log.Warn("read rejected", zap.Stringer("reason", r.Reason))
		return ConfirmResult{Result: r}
	}
	if !w.repo.HasPermission() {
		log.Warn("read rejected, folder not accessible")
		return ConfirmResult{Result: fail(ReasonPermission, msgPermission)}
	}

	existing, found, err := w.repo.Lookup(code)
	if err != nil {
		log.Error("inventory not loaded, read not saved", zap.Error(err))
		return ConfirmResult{Result: failFor(err, msgLoadFailed)}
	}
	if found {
		log.Info("code already counted", zap.Int("existing_quantity", existing.Quantity))
		return ConfirmResult{
			Result:           ok("code already counted"),
			Duplicate:        true,
			ExistingQuantity: existing.Quantity,
		}
	}

	rec := types.Record{Code: code, Quantity: qty, Timestamp: w.now().Truncate(time.Second)}
	if err := w.repo.Upsert(rec); err != nil {
		log.Error("saving new read failed", zap.Error(err))
		return ConfirmResult{Result: failFor(err, msgSaveFailed)}
	}

	res := ConfirmResult{Result: ok("read saved"), Created: true}
	reads, err := w.repo.IncrementReads()
	if err != nil {
		log.Warn("read counter not updated", zap.Error(err))
		return res
	}
	if reads < w.threshold {
		return res
	}

	name, err := w.repo.CreateBackup()
	if err != nil {
		log.Warn("backup after reads failed", zap.Int("reads", reads), zap.Error(err))
		return res
	}
	if err := w.repo.ResetReads(); err != nil {
		log.Warn("read counter not reset after backup", zap.Error(err))
	}
	log.Info("backup created after reads", zap.Int("reads", reads), zap.String("backup", name))
	res.BackupCreated = true
	res.BackupName = name
	res.Message = "read saved (backup created)"
	return res
}

// Backup takes a backup now and, on success, resets the read counter so
// the next automatic backup comes a full threshold later.
func (w *Workflows) Backup() BackupResult {
	name, err := w.repo.CreateBackup()
	if err != nil {
		w.log.Warn("backup failed", zap.Error(err))
		return BackupResult{
			Result: failFor(err, msgBackupFailed),
			Empty:  errors.Is(err, types.ErrNoPrimaryFile),
		}
	}
	if err := w.repo.ResetReads(); err != nil {
		w.log.Warn("read counter not reset after backup", zap.Error(err))
	}
	w.log.Info("backup created", zap.String("backup", name))
	return BackupResult{Result: ok("backup created"), Name: name}
}

// EditQuantity changes the quantity of a counted code. The record keeps its
// original timestamp.
func (w *Workflows) EditQuantity(code string, qty int) Result {
	return w.setQuantity("edit", code, qty)
}

// Overwrite replaces the quantity of a code reported as Duplicate by
// ConfirmRead.
func (w *Workflows) Overwrite(code string, qty int) Result {
	return w.setQuantity("overwrite", code, qty)
}

// Delete removes a counted code.
func (w *Workflows) Delete(code string) Result {
	log := w.log.With(zap.String("code", code))
	if strings.TrimSpace(code) == "" {
		log.Warn("delete rejected", zap.Stringer("reason", ReasonBlankCode))
		return fail(ReasonBlankCode, msgBlankCode)
	}
	if !w.repo.HasPermission() {
		log.Warn("delete rejected, folder not accessible")
		return fail(ReasonPermission, msgPermission)
	}
	_, found, err := w.repo.Lookup(code)
	if err != nil {
		log.Error("inventory not loaded, delete refused", zap.Error(err))
		return failFor(err, msgLoadFailed)
	}
	if !found {
		log.Warn("delete rejected", zap.Stringer("reason", ReasonUnknownCode))
		return fail(ReasonUnknownCode, msgUnknownCode)
	}
	if err := w.repo.Delete(code); err != nil {
		log.Error("delete failed", zap.Error(err))
		return failFor(err, msgSaveFailed)
	}
	log.Info("item deleted")
	return ok("deleted")
}

func (w *Workflows) setQuantity(action, code string, qty int) Result {
	log := w.log.With(zap.String("action", action), zap.String("code", code), zap.Int("quantity", qty))
	if r, bad := w.validate(code, qty); bad {
		log.Warn("quantity change rejected", zap.Stringer("reason", r.Reason))
		return r
	}
	if !w.repo.HasPermission() {
		log.Warn("quantity change rejected, folder not accessible")
		return fail(ReasonPermission, msgPermission)
	}
	_, found, err := w.repo.Lookup(code)
	if err != nil {
		log.Error("inventory not loaded, quantity change refused", zap.Error(err))
		return failFor(err, msgLoadFailed)
	}
	if !found {
		log.Warn("quantity change rejected", zap.Stringer("reason", ReasonUnknownCode))
		return fail(ReasonUnknownCode, msgUnknownCode)
	}
	if err := w.repo.UpdateQuantity(code, qty); err != nil {
		log.Error("quantity change failed", zap.Error(err))
		return failFor(err, msgSaveFailed)
	}
	log.Info("quantity updated")
	return ok("quantity updated")
}

// validate checks code and qty. bad is true when the returned Result must
// be reported as is.
func (w *Workflows) validate(code string, qty int) (r Result, bad bool) {
	if strings.TrimSpace(code) == "" {
		return fail(ReasonBlankCode, msgBlankCode), true
	}
	if qty <= 0 {
		return fail(ReasonInvalidQuantity, msgInvalidQuantity), true
	}
	return Result{}, false
}
