package dictionary

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEntry is returned when a key or value cannot be stored.
	ErrInvalidEntry = errors.New("invalid dictionary entry")
	// ErrNotFound is returned when removing a key that is not in the store.
	ErrNotFound = errors.New("dictionary key not found")
)

// PersistenceError reports a failed load or save of the dictionary file.
// The in-memory store stays authoritative when one is returned.
type PersistenceError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("dictionary %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsPersistence reports whether err carries a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
