// Package file implements the on-disk region store: one msgpack-encoded key
// table per (namespace, ttl), guarded by a read/write mutex. The layout
// mirrors a dbm-style keyed database without the platform baggage -
// whole-table read on Get, read-modify-write on Set/Del, atomic rename on
// save.
package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/unkn0wn-root/regioncache/internal/filelock"
	st "github.com/unkn0wn-root/regioncache/store"
)

type Store struct {
	path string
	lock Locker
}

var _ st.Store = (*Store)(nil)

// Locker serializes access to one table file: any number of readers exclusive
// of a writer, one writer exclusive of everyone. The default is the package's
// read/write mutex; external callers may supply their own (e.g. an advisory
// OS-level lock).
type Locker interface {
	AcquireRead(wait bool) bool
	AcquireWrite(wait bool) bool
	ReleaseRead()
	ReleaseWrite()
}

var _ Locker = (*filelock.Mutex)(nil)

// LockFactory builds the lock guarding one store file.
type LockFactory func(path string) Locker

func New(path string, lf LockFactory) *Store {
	if lf == nil {
		lf = func(string) Locker { return filelock.New() }
	}
	return &Store{path: path, lock: lf(path)}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// load reads the whole table. A missing or empty file is an empty table; a
// corrupt table also reads as empty rather than poisoning every operation.
func (s *Store) load() (map[string][]byte, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return map[string][]byte{}, nil
	}
	table := map[string][]byte{}
	if err := msgpack.Unmarshal(b, &table); err != nil {
		return map[string][]byte{}, nil
	}
	return table, nil
}

func (s *Store) save(table map[string][]byte) error {
	b, err := msgpack.Marshal(table)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.lock.AcquireRead(true)
	defer s.lock.ReleaseRead()
	table, err := s.load()
	if err != nil {
		return nil, false, err
	}
	v, ok := table[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.lock.AcquireWrite(true)
	defer s.lock.ReleaseWrite()
	table, err := s.load()
	if err != nil {
		return err
	}
	table[key] = value
	return s.save(table)
}

func (s *Store) Del(_ context.Context, key string) error {
	s.lock.AcquireWrite(true)
	defer s.lock.ReleaseWrite()
	table, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := table[key]; !ok {
		return nil
	}
	delete(table, key)
	return s.save(table)
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.lock.AcquireRead(true)
	defer s.lock.ReleaseRead()
	table, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(table))
	for k := range table {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Clear removes the backing file; the next write recreates it.
func (s *Store) Clear(context.Context) error {
	s.lock.AcquireWrite(true)
	defer s.lock.ReleaseWrite()
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Store) Close(context.Context) error { return nil }
