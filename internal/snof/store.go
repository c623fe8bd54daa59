package snof

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store owns one backing .snof file and is the only component allowed to
// write it. Reads return the latest committed snapshot; all mutation goes
// through Replace/Mutate, which serialize on a store-wide lock so that two
// writers can never both load the old state and silently discard each
// other's change.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads and decodes the entire backing file. A missing file is an empty
// store; any other read failure is surfaced to the caller.
func (s *Store) Load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return Decode(data), nil
}

// Replace atomically overwrites the whole store with the given records.
func (s *Store) Replace(records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replaceLocked(records)
}

// Mutate runs one serialized load-transform-persist cycle: fn receives the
// current snapshot and returns the full replacement state. If fn returns an
// error nothing is written and the error is returned unchanged. The lock is
// held for the whole cycle, so decisions fn makes (uniqueness checks, token
// validation) cannot be invalidated by a concurrent writer.
func (s *Store) Mutate(fn func([]Record) ([]Record, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.Load()
	if err != nil {
		return err
	}

	next, err := fn(records)
	if err != nil {
		return err
	}

	return s.replaceLocked(next)
}

// replaceLocked writes to a temp file in the same directory and commits via
// rename, so a crash mid-write leaves either the old file or the new one,
// never a truncated mix. Callers must hold s.mu.
func (s *Store) replaceLocked(records []Record) error {
	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(Encode(records)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("committing %s: %w", s.path, err)
	}
	return nil
}
