// Copyright 2015 The go-ethereum Authors
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

package state

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	ledgercommon "github.com/ground-x/ledgerstate/common"
	"github.com/ground-x/ledgerstate/storage/database"
	"github.com/ground-x/ledgerstate/storage/statedb"
)

// MaxTrieCacheGen mirrors the teacher's trie cache-generation knob; it is
// accepted by NewSecureTrie for signature parity (see statedb.NewSecureTrie)
// though this adaptation evicts nodes on an LRU basis instead of by
// generation count.
var MaxTrieCacheGen = uint16(120)

const (
	// maxPastTries bounds how many recently-committed world tries Database
	// keeps fully resident, so a State copy whose root matches a recent
	// commit can reuse it instead of re-walking the overlay.
	maxPastTries = 12

	codeSizeCacheSize = 100000
)

// Database wraps access to the world trie, per-account storage tries, and
// contract code, insulating StateDB from the trie package directly - the
// same separation of concerns as the teacher's blockchain/state.Database.
type Database interface {
	OpenTrie(root common.Hash) (Trie, error)
	OpenStorageTrie(root common.Hash) (Trie, error)
	CopyTrie(Trie) Trie
	ContractCode(codeHash common.Hash) ([]byte, error)
	ContractCodeSize(codeHash common.Hash) (int, error)
	TrieDB() *statedb.Database
}

// Trie is the subset of *statedb.SecureTrie that StateDB and stateObject
// need, kept as an interface so tests can substitute a fake.
type Trie interface {
	TryGet(key []byte) ([]byte, error)
	TryUpdate(key, value []byte) error
	TryDelete(key []byte) error
	Commit(onleaf statedb.LeafCallback) (common.Hash, error)
	Hash() common.Hash
	NodeIterator(startKey []byte) statedb.NodeIterator
	GetKey([]byte) []byte
	Prove(key []byte, fromLevel uint, proofDb database.Putter) error
}

// NewDatabase wraps a raw overlay/backend with the trie-node cache and the
// code-size cache.
func NewDatabase(db database.Database) Database {
	csc, _ := ledgercommon.NewCache(ledgercommon.LRUConfig{CacheSize: codeSizeCacheSize})
	return &cachingDB{
		db:            statedb.NewDatabase(db),
		codeSizeCache: csc,
	}
}

type cachingDB struct {
	db            *statedb.Database
	mu            sync.Mutex
	pastTries     []*statedb.SecureTrie
	codeSizeCache ledgercommon.Cache
}

func (db *cachingDB) OpenTrie(root common.Hash) (Trie, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i := len(db.pastTries) - 1; i >= 0; i-- {
		if db.pastTries[i].Hash() == root {
			return cachedTrie{db.pastTries[i].Copy(), db}, nil
		}
	}
	tr, err := statedb.NewSecureTrie(root, db.db, MaxTrieCacheGen)
	if err != nil {
		return nil, err
	}
	return cachedTrie{tr, db}, nil
}

func (db *cachingDB) pushTrie(t *statedb.SecureTrie) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if len(db.pastTries) >= maxPastTries {
		copy(db.pastTries, db.pastTries[1:])
		db.pastTries[len(db.pastTries)-1] = t
	} else {
		db.pastTries = append(db.pastTries, t)
	}
}

func (db *cachingDB) OpenStorageTrie(root common.Hash) (Trie, error) {
	tr, err := statedb.NewSecureTrie(root, db.db, 0)
	if err != nil {
		return nil, err
	}
	return tr, nil
}

func (db *cachingDB) CopyTrie(t Trie) Trie {
	switch t := t.(type) {
	case cachedTrie:
		return cachedTrie{t.SecureTrie.Copy(), db}
	case *statedb.SecureTrie:
		return t.Copy()
	default:
		panic(fmt.Errorf("unknown trie type %T", t))
	}
}

func (db *cachingDB) ContractCode(codeHash common.Hash) ([]byte, error) {
	code, err := db.db.Node(codeHash[:])
	if err == nil {
		db.codeSizeCache.Add(codeHash, len(code))
	}
	return code, err
}

func (db *cachingDB) ContractCodeSize(codeHash common.Hash) (int, error) {
	if cached, ok := db.codeSizeCache.Get(codeHash); ok {
		return cached.(int), nil
	}
	code, err := db.ContractCode(codeHash)
	return len(code), err
}

func (db *cachingDB) TrieDB() *statedb.Database {
	return db.db
}

// cachedTrie registers its SecureTrie with the owning cachingDB on every
// successful Commit, so a later State copy rooted at the same hash can
// reuse the in-memory tree instead of resolving it from the overlay again.
type cachedTrie struct {
	*statedb.SecureTrie
	db *cachingDB
}

func (m cachedTrie) Commit(onleaf statedb.LeafCallback) (common.Hash, error) {
	root, err := m.SecureTrie.Commit(onleaf)
	if err == nil {
		m.db.pushTrie(m.SecureTrie)
	}
	return root, err
}

func (m cachedTrie) Prove(key []byte, fromLevel uint, proofDb database.Putter) error {
	return m.SecureTrie.Prove(key, fromLevel, proofDb)
}
