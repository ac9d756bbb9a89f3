package dictionary

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Entry is a single key -> replacement pair.
type Entry struct {
	Key   string
	Value string
}

// Store is the user dictionary. All reads and writes go through one RWMutex;
// a mutation and the save that follows it happen under the same write lock.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
	path    string
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and save reports.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPath binds the store to a dictionary file. Every successful mutation
// rewrites that file.
func WithPath(path string) Option {
	return func(s *Store) { s.path = path }
}

// New returns an empty store. Without WithPath it is memory-only.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]string),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load builds a memory-only store from r.
func Load(r io.Reader, opts ...Option) (*Store, error) {
	s := New(opts...)
	m, err := Parse(r)
	s.entries = m
	return s, err
}

// Open creates a store bound to path and loads it. A missing file yields an
// empty store and no error. Any other read failure is logged and returned as
// a *PersistenceError next to the (possibly partial) store, which is always
// usable.
func Open(path string, opts ...Option) (*Store, error) {
	s := New(append(opts, WithPath(path))...)
	m, err := readFile(path)
	s.entries = m
	if err != nil {
		s.logger.Warn("failed to load dictionary", "path", path, "error", err)
		return s, err
	}
	s.logger.Info("loaded dictionary entries", "path", path, "count", len(m))
	return s, nil
}

// Path returns the bound file path, or "" for a memory-only store.
func (s *Store) Path() string { return s.path }

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Get returns the value for key after folding it.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.entries[Fold(key)]
	return v, ok
}

// Insert stores value under the folded key, replacing any previous value, and
// saves the file. replaced reports whether the key already existed. A save
// failure is returned as a *PersistenceError after the in-memory insert has
// taken effect.
func (s *Store) Insert(key, value string) (replaced bool, err error) {
	key, value, err = normalizeEntry(key, value)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, replaced = s.entries[key]
	s.entries[key] = value
	return replaced, s.saveLocked()
}

// InsertAll stores every entry and saves once. Invalid entries are skipped.
// When overwrite is false existing keys are left alone. It returns the number
// of keys written.
func (s *Store) InsertAll(entries []Entry, overwrite bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range entries {
		key, value, err := normalizeEntry(e.Key, e.Value)
		if err != nil {
			continue
		}
		if _, exists := s.entries[key]; exists && !overwrite {
			continue
		}
		s.entries[key] = value
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return n, s.saveLocked()
}

// Remove deletes the folded key and saves the file. It reports false, without
// saving, when the key was absent.
func (s *Store) Remove(key string) (bool, error) {
	key = Fold(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, s.saveLocked()
}

// Entries returns a snapshot ordered for substitution: longest key first,
// equal lengths in lexicographic order. Length is counted in runes.
func (s *Store) Entries() []Entry {
	out := s.snapshot()
	sort.Slice(out, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(out[i].Key), utf8.RuneCountInString(out[j].Key)
		if li != lj {
			return li > lj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Sorted returns a snapshot in lexicographic key order.
func (s *Store) Sorted() []Entry {
	out := s.snapshot()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (s *Store) snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for k, v := range s.entries {
		out = append(out, Entry{Key: k, Value: v})
	}
	return out
}

// WriteTo writes the store in file format, sorted by key.
func (s *Store) WriteTo(w io.Writer) (int64, error) {
	return writeEntries(w, s.Sorted())
}

// Save rewrites the bound file. It is a no-op for memory-only stores.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

// Reload replaces the in-memory entries with the file contents. If the file
// is missing or unreadable the current entries are kept. The read and the
// swap happen under the write lock, so a concurrent mutation and its save are
// never undone.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var m map[string]string
	_, err := os.Stat(s.path)
	if err != nil {
		err = &PersistenceError{Op: "load", Path: s.path, Err: err}
	} else {
		m, err = readFile(s.path)
	}
	if err != nil {
		s.logger.Warn("dictionary reload failed, keeping current entries", "path", s.path, "error", err)
		return err
	}
	s.entries = m
	s.logger.Info("reloaded dictionary entries", "path", s.path, "count", len(m))
	return nil
}

// saveLocked assumes s.mu is held for writing.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	entries := make([]Entry, 0, len(s.entries))
	for k, v := range s.entries {
		entries = append(entries, Entry{Key: k, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	if err := writeFileAtomic(s.path, entries); err != nil {
		perr := &PersistenceError{Op: "save", Path: s.path, Err: err}
		s.logger.Warn("failed to save dictionary", "path", s.path, "error", err)
		return perr
	}
	s.logger.Info("dictionary saved", "path", s.path, "count", len(entries))
	return nil
}

// normalizeEntry folds the key and trims the value, rejecting anything the
// file format could not read back unchanged.
func normalizeEntry(key, value string) (string, string, error) {
	key = Fold(strings.TrimFunc(key, isControlOrSpace))
	value = strings.TrimFunc(value, isControlOrSpace)
	switch {
	case key == "":
		return "", "", fmt.Errorf("%w: empty key", ErrInvalidEntry)
	case strings.IndexFunc(key, isFieldSpace) >= 0:
		return "", "", fmt.Errorf("%w: key %q contains whitespace", ErrInvalidEntry, key)
	case strings.HasPrefix(key, commentPrefix):
		return "", "", fmt.Errorf("%w: key %q starts with %q", ErrInvalidEntry, key, commentPrefix)
	case value == "":
		return "", "", fmt.Errorf("%w: empty value for key %q", ErrInvalidEntry, key)
	case strings.ContainsAny(value, "\r\n"):
		return "", "", fmt.Errorf("%w: value for key %q spans lines", ErrInvalidEntry, key)
	}
	return key, value, nil
}

// readFile parses path. A missing file is an empty dictionary.
func readFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return make(map[string]string), &PersistenceError{Op: "load", Path: path, Err: err}
	}
	defer f.Close()
	m, err := Parse(f)
	if err != nil {
		return m, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	return m, nil
}

// writeFileAtomic replaces path with the serialized entries via a temp file
// in the same directory.
func writeFileAtomic(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".dict-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // fails harmlessly after a successful rename

	if _, err := writeEntries(tmp, entries); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
