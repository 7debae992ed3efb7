// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

package database

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/ground-x/ledgerstate/log"
)

// Overlay is a content-addressed key/value store: writes accumulate in an
// in-memory journal keyed by the caller's key (keccak(blob) for the trie
// and code writers, so writing the same blob twice leaves one journal
// entry) until Commit flushes them to the durable backend, or Discard
// drops them. Delete is the exception: it reaches the backend at once.
// Reads check the journal
// first and fall through to the backend on a miss, so an uncommitted write
// is visible to the writer that made it.
type Overlay struct {
	backend Database
	logger  log.Logger

	lock    sync.RWMutex
	journal map[string][]byte
}

// OpenDB opens (or creates) the durable backend selected by kind at path,
// wrapping it with the write journal. An empty path selects an in-memory
// backend regardless of kind, which is the right default for tests and for
// a State that was never asked to persist. killExisting wipes any existing
// store at path before opening it.
func OpenDB(kind Backend, path string, killExisting bool) (*Overlay, error) {
	logger := log.NewModuleLogger(log.StorageDatabase)

	if path == "" {
		logger.Info("Opening in-memory overlay (no path given)")
		return newOverlay(NewMemDatabase(), logger), nil
	}

	if killExisting {
		if err := os.RemoveAll(path); err != nil {
			return nil, err
		}
	}

	switch kind {
	case BadgerBackend:
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		db, err := NewBadgerDB(abs)
		if err != nil {
			return nil, err
		}
		return newOverlay(db, logger), nil
	case MemoryBackend:
		return newOverlay(NewMemDatabase(), logger), nil
	default:
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		db, err := NewLDBDatabase(abs, 128, OpenFileLimit)
		if err != nil {
			return nil, err
		}
		return newOverlay(db, logger), nil
	}
}

func newOverlay(backend Database, logger log.Logger) *Overlay {
	return &Overlay{
		backend: backend,
		logger:  logger,
		journal: make(map[string][]byte),
	}
}

// Get fetches the blob stored under key, checking the uncommitted journal
// before falling through to the durable backend.
func (o *Overlay) Get(key []byte) ([]byte, error) {
	o.lock.RLock()
	if blob, ok := o.journal[string(key)]; ok {
		o.lock.RUnlock()
		cpy := make([]byte, len(blob))
		copy(cpy, blob)
		return cpy, nil
	}
	o.lock.RUnlock()
	return o.backend.Get(key)
}

func (o *Overlay) Has(key []byte) (bool, error) {
	o.lock.RLock()
	if _, ok := o.journal[string(key)]; ok {
		o.lock.RUnlock()
		return true, nil
	}
	o.lock.RUnlock()
	return o.backend.Has(key)
}

// Put stages a key/value pair in the journal; it is not durable until
// Commit. Writing the same key twice simply replaces the staged value -
// content-addressed callers (Insert) never do this for the same key with
// different values, since the key is derived from the value itself.
func (o *Overlay) Put(key []byte, value []byte) error {
	o.lock.Lock()
	defer o.lock.Unlock()

	cpy := make([]byte, len(value))
	copy(cpy, value)
	o.journal[string(key)] = cpy
	return nil
}

// Delete removes key from the journal and from the backend immediately; it
// is not journaled, so Discard does not undo it.
func (o *Overlay) Delete(key []byte) error {
	o.lock.Lock()
	defer o.lock.Unlock()

	delete(o.journal, string(key))
	return o.backend.Delete(key)
}

// Insert stages blob under hash with a plain Put. Inserting the same hash
// twice leaves one journal entry; an entry the backend already holds is
// staged again and rewritten on the next Commit.
func (o *Overlay) Insert(hash, blob []byte) error {
	return o.Put(hash, blob)
}

// JournalSize returns the number of pending (uncommitted) journal entries.
func (o *Overlay) JournalSize() int {
	o.lock.RLock()
	defer o.lock.RUnlock()
	return len(o.journal)
}

// Commit flushes the journal to the durable backend as a single batch. On
// success the journal is cleared; on failure the journal is left intact so
// the caller can retry or Discard. This is the all-or-nothing boundary the
// state commit protocol relies on: a block is either fully persisted or the
// journal (and therefore the block) never existed as far as the backend is
// concerned.
func (o *Overlay) Commit() error {
	o.lock.Lock()
	defer o.lock.Unlock()

	if len(o.journal) == 0 {
		return nil
	}

	batch := o.backend.NewBatch()
	for key, value := range o.journal {
		if err := batch.Put([]byte(key), value); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		o.logger.Error("Overlay commit failed, journal retained", "entries", len(o.journal), "err", err)
		return err
	}
	if ldb, ok := o.backend.(*levelDB); ok {
		ldb.Stats()
	}
	o.logger.Debug("Overlay committed", "entries", len(o.journal))
	o.journal = make(map[string][]byte)
	return nil
}

// Discard drops every uncommitted journal entry without touching the
// durable backend.
func (o *Overlay) Discard() {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.journal = make(map[string][]byte)
}

func (o *Overlay) Close() {
	o.backend.Close()
}

func (o *Overlay) NewBatch() Batch {
	return o.backend.NewBatch()
}
