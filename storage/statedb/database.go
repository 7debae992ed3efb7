// Copyright 2017 The go-ethereum Authors
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

package statedb

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	ledgercommon "github.com/ground-x/ledgerstate/common"
	"github.com/ground-x/ledgerstate/storage/database"
)

// cleanCacheSize bounds how many raw trie-node blobs Database keeps around
// so repeated reads of hot branches (close to the world trie's root) don't
// round-trip through the overlay on every lookup.
const cleanCacheSize = 4096

// Database is the low-level node store every Trie reads through and writes
// to. It decodes/encodes nodes at the RLP boundary and keeps a clean cache
// of raw node blobs; the durable side of every read or write goes
// to the wrapped key-value store (normally a *database.Overlay).
type Database struct {
	diskdb database.Database

	cleans ledgercommon.Cache
	lock   sync.RWMutex
}

// NewDatabase wraps a raw key-value backend (an Overlay in production, a
// MemDatabase in tests) with the node blob cache.
func NewDatabase(diskdb database.Database) *Database {
	cleans, _ := ledgercommon.NewCache(ledgercommon.LRUConfig{CacheSize: cleanCacheSize})
	return &Database{diskdb: diskdb, cleans: cleans}
}

// insert writes an already-hashed node blob to the backing store. It always
// Puts; since the key is the node's own hash, re-inserting a node already
// present replaces it with identical bytes.
func (db *Database) insert(hash hashNode, blob []byte) error {
	if err := db.diskdb.Put(hash, blob); err != nil {
		return err
	}
	db.cleans.Add(string(hash), append([]byte(nil), blob...))
	return nil
}

// node resolves a hash to a decoded in-memory node.
func (db *Database) node(hash common.Hash) (node, error) {
	blob, err := db.Node(hash[:])
	if err != nil {
		return nil, err
	}
	return mustDecodeNode(hash[:], blob), nil
}

// Node returns the raw RLP blob stored under hash - contract code lookups
// (addressed by keccak(code)) and trie-node lookups both go through here.
func (db *Database) Node(hash []byte) ([]byte, error) {
	if v, ok := db.cleans.Get(string(hash)); ok {
		return v.([]byte), nil
	}
	blob, err := db.diskdb.Get(hash)
	if err != nil {
		return nil, err
	}
	db.cleans.Add(string(hash), append([]byte(nil), blob...))
	return blob, nil
}

// InsertBlob stores an arbitrary content-addressed blob (contract code)
// under its own hash, bypassing node decoding.
func (db *Database) InsertBlob(hash common.Hash, blob []byte) error {
	return db.insert(hashNode(hash[:]), blob)
}

// DiskDB exposes the wrapped backend for callers that need Prove's Putter
// or direct batch access.
func (db *Database) DiskDB() database.Database {
	return db.diskdb
}

func (db *Database) String() string {
	return fmt.Sprintf("statedb.Database(diskdb=%T)", db.diskdb)
}
