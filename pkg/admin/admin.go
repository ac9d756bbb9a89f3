// Package admin exposes the operations that edit the user dictionary. Every
// successful mutation is saved before the call returns.
package admin

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/japaniel/chatall/pkg/dictionary"
)

// KeyDeriver produces a romaji key for a Japanese value.
// *reading.Analyzer implements it.
type KeyDeriver interface {
	RomajiKey(text string) (string, error)
}

// Admin edits a dictionary store.
type Admin struct {
	store   *dictionary.Store
	deriver KeyDeriver
	logger  *slog.Logger
}

// Option configures an Admin.
type Option func(*Admin)

// WithKeyDeriver enables Learn.
func WithKeyDeriver(d KeyDeriver) Option {
	return func(a *Admin) { a.deriver = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Admin) {
		if l != nil {
			a.logger = l
		}
	}
}

// New returns an Admin for store.
func New(store *dictionary.Store, opts ...Option) *Admin {
	a := &Admin{store: store, logger: slog.Default()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// AddEntry stores key -> value. A *dictionary.PersistenceError means the
// entry is live in memory but the file was not updated.
func (a *Admin) AddEntry(key, value string) (replaced bool, err error) {
	replaced, err = a.store.Insert(key, value)
	if err != nil && !dictionary.IsPersistence(err) {
		return false, err
	}
	a.logger.Info("dictionary entry added", "key", dictionary.Fold(key), "replaced", replaced)
	return replaced, err
}

// RemoveEntry deletes key. It returns dictionary.ErrNotFound, without
// touching the file, when the key is absent.
func (a *Admin) RemoveEntry(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", dictionary.ErrInvalidEntry)
	}
	ok, err := a.store.Remove(key)
	if !ok && err == nil {
		return fmt.Errorf("%w: %s", dictionary.ErrNotFound, dictionary.Fold(key))
	}
	a.logger.Info("dictionary entry removed", "key", dictionary.Fold(key))
	return err
}

// ListEntries returns every entry in key order.
func (a *Admin) ListEntries() []dictionary.Entry {
	return a.store.Sorted()
}

// ErrLearnUnavailable is returned by Learn when no KeyDeriver is configured.
var ErrLearnUnavailable = errors.New("admin: key derivation is not configured")

// Learn derives a romaji key from a Japanese value and adds the entry.
func (a *Admin) Learn(value string) (key string, replaced bool, err error) {
	if a.deriver == nil {
		return "", false, ErrLearnUnavailable
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false, fmt.Errorf("%w: empty value", dictionary.ErrInvalidEntry)
	}
	key, err = a.deriver.RomajiKey(value)
	if err != nil {
		return "", false, fmt.Errorf("%w: cannot derive a key for %q: %v", dictionary.ErrInvalidEntry, value, err)
	}
	replaced, err = a.AddEntry(key, value)
	return key, replaced, err
}

// Import adds entries with a single save. Existing keys are kept unless
// overwrite is set. It returns how many keys were written.
func (a *Admin) Import(entries []dictionary.Entry, overwrite bool) (int, error) {
	n, err := a.store.InsertAll(entries, overwrite)
	a.logger.Info("dictionary import finished", "candidates", len(entries), "written", n)
	return n, err
}
