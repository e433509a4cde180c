// Package store persists shader build artifacts in a bbolt database.
//
// Entries are keyed by a digest of everything that determines the
// artifact (see NewKey) and encoded with msgpack. Entries written with a
// different schema version read as misses, so a format change never
// needs a migration.
package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"

	"github.com/gogpu/shaderbuild"
	"github.com/gogpu/shaderbuild/toolchain"
)

// SchemaVersion is written with every entry. Increment it when Entry
// changes.
const SchemaVersion uint16 = 1

const bucketArtifacts = "artifacts"

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("store: closed")

// Key identifies one artifact.
type Key [sha256.Size]byte

// NewKey digests parts. Each part is length-prefixed, so ("ab", "c") and
// ("a", "bc") give different keys.
func NewKey(parts ...[]byte) Key {
	h := sha256.New()
	var n [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(n[:], uint64(len(p)))
		h.Write(n[:])
		h.Write(p)
	}
	var k Key
	h.Sum(k[:0])
	return k
}

func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Entry is a stored build result.
type Entry struct {
	Schema      uint16                         `msgpack:"schema"`
	Name        string                         `msgpack:"name"`
	Path        string                         `msgpack:"path"`
	Format      toolchain.Format               `msgpack:"format"`
	Code        []byte                         `msgpack:"code"`
	Reflection  *shaderbuild.ProgramReflection `msgpack:"reflection"`
	Diagnostics string                         `msgpack:"diagnostics,omitempty"`
	Created     time.Time                      `msgpack:"created"`
}

// Store is safe for concurrent use, Close included. Operations that race
// with Close either complete or fail with ErrClosed.
type Store struct {
	mu sync.RWMutex
	db *bolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketArtifacts))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: initialize %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database. Further calls fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ""
	}
	return s.db.Path()
}

// Get returns the entry for key. A missing entry, or one written with
// another schema version, reports false without error.
func (s *Store) Get(key Key) (*Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, false, ErrClosed
	}
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketArtifacts)).Get(key[:]); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, false, err
	}

	var e Entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("store: decode %s: %w", key, err)
	}
	if e.Schema != SchemaVersion {
		return nil, false, nil
	}
	return &e, true, nil
}

// Put stores e under key, stamping the schema version and, when unset,
// the creation time.
func (s *Store) Put(key Key, e *Entry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	stored := *e
	stored.Schema = SchemaVersion
	if stored.Created.IsZero() {
		stored.Created = time.Now().UTC()
	}
	data, err := msgpack.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketArtifacts)).Put(key[:], data)
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key Key) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketArtifacts)).Delete(key[:])
	})
}

// Len returns the number of stored entries.
func (s *Store) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(bucketArtifacts)).Stats().KeyN
		return nil
	})
	return n, err
}

// Prune removes entries created before cutoff and entries of other schema
// versions. It returns the number removed.
func (s *Store) Prune(cutoff time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return 0, ErrClosed
	}
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketArtifacts))
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var e Entry
			if err := msgpack.Unmarshal(v, &e); err != nil || e.Schema != SchemaVersion || e.Created.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(bucketArtifacts)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(bucketArtifacts))
		return err
	})
}
