// Package workflow implements the operator actions on top of the repository:
// confirming a read, editing a quantity, overwriting after a duplicate,
// deleting, and loading. Each action validates its input before any I/O and
// reports its outcome as a Result instead of an error.
package workflow

import (
	"errors"

	"github.com/mesh-intelligence/inventario/pkg/types"
)

// Reason classifies why an action failed.
type Reason int

// Failure reasons.
const (
	ReasonNone Reason = iota
	ReasonBlankCode
	ReasonInvalidQuantity
	ReasonUnknownCode
	ReasonPermission
	ReasonIO
)

var reasonNames = map[Reason]string{
	ReasonNone:            "none",
	ReasonBlankCode:       "blank_code",
	ReasonInvalidQuantity: "invalid_quantity",
	ReasonUnknownCode:     "unknown_code",
	ReasonPermission:      "permission",
	ReasonIO:              "io",
}

// String returns the reason code.
func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// Validation reports whether the failure was caused by the input rather
// than by storage.
func (r Reason) Validation() bool {
	switch r {
	case ReasonBlankCode, ReasonInvalidQuantity, ReasonUnknownCode:
		return true
	}
	return false
}

// User-facing messages.
const (
	msgBlankCode       = "code must not be blank"
	msgInvalidQuantity = "quantity must be greater than zero"
	msgUnknownCode     = "item not found"
	msgPermission      = "no accessible folder selected"
	msgSaveFailed      = "could not save the inventory file"
	msgLoadFailed      = "could not read the inventory file"
	msgNoPrimaryFile   = "nothing to back up yet"
	msgBackupFailed    = "could not create the backup"
)

// Result is the outcome of an action. Message is a short text suitable for a
// transient notification.
type Result struct {
	OK      bool
	Reason  Reason
	Message string
}

// ConfirmResult is the outcome of ConfirmRead.
type ConfirmResult struct {
	Result
	Created          bool // a new record was written
	Duplicate        bool // the code was already counted; nothing changed
	ExistingQuantity int  // quantity of the existing record when Duplicate
	BackupCreated    bool
	BackupName       string
}

// LoadResult is the outcome of Load.
type LoadResult struct {
	Result
	NeedsFolder bool // no usable folder; the caller should ask for one
	Records     int
}

func ok(msg string) Result {
	return Result{OK: true, Message: msg}
}

func fail(reason Reason, msg string) Result {
	return Result{Reason: reason, Message: msg}
}

// failFor maps a repository error to a failed Result.
func failFor(err error, ioMsg string) Result {
	switch {
	case errors.Is(err, types.ErrBlankCode):
		return fail(ReasonBlankCode, msgBlankCode)
	case errors.Is(err, types.ErrInvalidQuantity):
		return fail(ReasonInvalidQuantity, msgInvalidQuantity)
	case errors.Is(err, types.ErrNotFound):
		return fail(ReasonUnknownCode, msgUnknownCode)
	case errors.Is(err, types.ErrPermission):
		return fail(ReasonPermission, msgPermission)
	case errors.Is(err, types.ErrNoPrimaryFile):
		return fail(ReasonIO, msgNoPrimaryFile)
	default:
		return fail(ReasonIO, ioMsg)
	}
}

// BackupResult is the outcome of Backup.
type BackupResult struct {
	Result
	Name string
	// Empty is set when there was no inventory file to copy yet.
	Empty bool
}
