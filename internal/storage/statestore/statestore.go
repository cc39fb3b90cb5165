// Package statestore implements the optional persisted-state snapshot
// store (D7): a single-key goleveldb database holding the latest
// encoded service.Snapshot, grounded in the teacher's use of
// syndtr/goleveldb as a small embedded key-value store (the teacher's
// nodestore package offered a leveldb-backed Database.Backend
// alongside its pebble one; this package keeps that choice for the
// snapshot store specifically, leaving pebble to the append-only
// block log in blockstore, which benefits more from pebble's LSM
// write throughput).
package statestore

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

var snapshotKey = []byte("snapshot")

// Store persists a single latest-snapshot blob.
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if necessary) a goleveldb database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("statestore: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Save overwrites the persisted snapshot with data (the output of
// service.EncodeSnapshot).
func (s *Store) Save(data []byte) error {
	if err := s.db.Put(snapshotKey, data, nil); err != nil {
		return fmt.Errorf("statestore: save: %w", err)
	}
	return nil
}

// Load reads the persisted snapshot, if one exists.
func (s *Store) Load() (data []byte, ok bool, err error) {
	data, err = s.db.Get(snapshotKey, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("statestore: load: %w", err)
	}
	return data, true, nil
}
