// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package database

import (
	"errors"
	"sync"
)

// ErrMemoryDBNotFound is returned by Get when the key is absent.
var ErrMemoryDBNotFound = errors.New("memorydb: key not found")

// MemDatabase is an ephemeral, in-process Database backend. It backs tests
// and the Overlay's default "no persistence requested" configuration.
type MemDatabase struct {
	db   map[string][]byte
	lock sync.RWMutex
}

func NewMemDatabase() *MemDatabase {
	return &MemDatabase{
		db: make(map[string][]byte),
	}
}

func (db *MemDatabase) Put(key []byte, value []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	cpy := make([]byte, len(value))
	copy(cpy, value)
	db.db[string(key)] = cpy
	return nil
}

func (db *MemDatabase) Has(key []byte) (bool, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	_, ok := db.db[string(key)]
	return ok, nil
}

func (db *MemDatabase) Get(key []byte) ([]byte, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if entry, ok := db.db[string(key)]; ok {
		cpy := make([]byte, len(entry))
		copy(cpy, entry)
		return cpy, nil
	}
	return nil, ErrMemoryDBNotFound
}

func (db *MemDatabase) Keys() [][]byte {
	db.lock.RLock()
	defer db.lock.RUnlock()

	keys := [][]byte{}
	for key := range db.db {
		keys = append(keys, []byte(key))
	}
	return keys
}

func (db *MemDatabase) Delete(key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	delete(db.db, string(key))
	return nil
}

func (db *MemDatabase) Close() {}

func (db *MemDatabase) NewBatch() Batch {
	return &memBatch{db: db}
}

func (db *MemDatabase) Len() int {
	db.lock.RLock()
	defer db.lock.RUnlock()
	return len(db.db)
}

type memBatchEntry struct {
	key    []byte
	value  []byte
	delete bool
}

type memBatch struct {
	db      *MemDatabase
	entries []memBatchEntry
	size    int
}

func (b *memBatch) Put(key, value []byte) error {
	cpyKey := make([]byte, len(key))
	copy(cpyKey, key)
	cpyVal := make([]byte, len(value))
	copy(cpyVal, value)
	b.entries = append(b.entries, memBatchEntry{key: cpyKey, value: cpyVal})
	b.size += len(value)
	return nil
}

func (b *memBatch) Delete(key []byte) error {
	cpyKey := make([]byte, len(key))
	copy(cpyKey, key)
	b.entries = append(b.entries, memBatchEntry{key: cpyKey, delete: true})
	b.size++
	return nil
}

func (b *memBatch) Write() error {
	for _, entry := range b.entries {
		if entry.delete {
			if err := b.db.Delete(entry.key); err != nil {
				return err
			}
			continue
		}
		if err := b.db.Put(entry.key, entry.value); err != nil {
			return err
		}
	}
	return nil
}

func (b *memBatch) ValueSize() int {
	return b.size
}

func (b *memBatch) Reset() {
	b.entries = nil
	b.size = 0
}
