package types

import (
	"strings"
	"time"
)

// Record is a single counted inventory line. Code is the identity; a record
// set holds at most one Record per Code.
type Record struct {
	Code      string    // Scanned or typed product code (required, non-empty).
	Quantity  int       // Counted quantity (must be > 0).
	Timestamp time.Time // Time of the first confirmed read; kept across edits.
}

// Validate checks the record invariants. It returns ErrBlankCode or
// ErrInvalidQuantity.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return ErrBlankCode
	}
	if r.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// WithQuantity returns a copy of r carrying qty. The timestamp is preserved
// so that editing a quantity does not move the record in a recency ordering.
func (r Record) WithQuantity(qty int) Record {
	r.Quantity = qty
	return r
}

// FolderHandle is an opaque, persistable reference to a user-granted storage
// location. The zero value means no folder has been chosen.
type FolderHandle string

// IsZero reports whether no folder has been chosen.
func (h FolderHandle) IsZero() bool {
	return strings.TrimSpace(string(h)) == ""
}

// String returns the handle text.
func (h FolderHandle) String() string {
	return string(h)
}
