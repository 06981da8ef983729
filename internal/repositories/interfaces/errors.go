package interfaces

import "errors"

var (
	// ErrNotFound is returned when no document matches the lookup.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate document")
	// ErrConflict is returned when a conditional update matched the document
	// id but not its expected state.
	ErrConflict = errors.New("document state changed")
)
