package types

import "errors"

// Validation errors. These are returned before any I/O takes place.
var (
	ErrBlankCode       = errors.New("code must not be blank")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrNotFound        = errors.New("record not found")
)

// Storage errors.
var (
	// ErrPermission means no folder handle is set, or the folder cannot be
	// resolved, read, or written.
	ErrPermission = errors.New("folder not accessible")

	// ErrIO wraps read, write, copy, and rename failures.
	ErrIO = errors.New("storage i/o failure")

	// ErrNoPrimaryFile is returned by backups when the inventory file has
	// not been written yet.
	ErrNoPrimaryFile = errors.New("inventory file does not exist")
)

// Config validation errors.
var (
	ErrThresholdInvalid = errors.New("backup threshold must be positive")
	ErrLogFormatUnknown = errors.New("unknown log format")
	ErrScheduleInvalid  = errors.New("invalid backup schedule")
)
