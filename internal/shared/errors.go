package shared

import "errors"

var (
	// ErrNotFound indicates a referenced resource is absent or soft-deleted.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a duplicate name/code/number or a hierarchy violation.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates malformed or inconsistent input.
	ErrValidation = errors.New("validation failed")
	// ErrSequenceExhausted indicates the number allocation retry budget ran out.
	ErrSequenceExhausted = errors.New("sequence exhausted")
	// ErrStorageUnavailable indicates a transient persistence failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
