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

// Package database implements the durable key-value backend the Overlay
// (storage/database.Overlay) flushes its journal to. Two real backends are
// wired - goleveldb (default) and badger (alternate) - plus an in-memory
// backend for tests.
package database

// Putter wraps the database write operation supported by both batches and
// raw database handles.
type Putter interface {
	Put(key []byte, value []byte) error
}

// Deleter wraps the database delete operation.
type Deleter interface {
	Delete(key []byte) error
}

// Database is a persistent key-value store. Apart from the basic data
// storage functionality it also supports batch writes.
type Database interface {
	Putter
	Deleter
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Close()
	NewBatch() Batch
}

// Batch is a write-only database that commits changes to its host database
// when Write is called. A batch cannot be used concurrently while it is
// being written.
type Batch interface {
	Putter
	Deleter
	ValueSize() int // amount of data in the batch
	Write() error
	// Reset resets the batch for reuse
	Reset()
}

// Backend selects which persistent key-value store OpenDB opens.
type Backend int

const (
	LevelDBBackend Backend = iota
	BadgerBackend
	MemoryBackend
)
