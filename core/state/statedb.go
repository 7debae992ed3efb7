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

// Package state implements the account cache: a write-through mirror of
// world state sitting atop the authenticated trie (storage/statedb) and
// its overlay (storage/database).
package state

import (
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/ground-x/ledgerstate/core/kerrors"
	"github.com/ground-x/ledgerstate/log"
)

// StateDB is the account cache: lazily populated from the world trie on
// first touch, authoritative for every read/write within a block until
// Commit folds it back into the trie or Reset discards it.
type StateDB struct {
	db   Database
	trie Trie

	cache        map[common.Address]*stateObject
	cacheOrder   []common.Address // insertion order, for deterministic commit
	addrInCache  map[common.Address]bool

	journal        *journal
	validRevisions []revision
	nextRevisionID int

	// pending holds transaction hashes recorded against this state so
	// far, in order, with txSet as its membership index.
	pending    []*pendingTx
	txSet      map[common.Hash]bool

	lock sync.RWMutex

	dbErr error

	logger log.Logger
}

type pendingTx struct {
	hash common.Hash
	from common.Address
}

type revision struct {
	id           int
	journalIndex int
}

// New opens a StateDB rooted at root, backed by db.
func New(root common.Hash, db Database) (*StateDB, error) {
	tr, err := db.OpenTrie(root)
	if err != nil {
		return nil, err
	}
	return &StateDB{
		db:          db,
		trie:        tr,
		cache:       make(map[common.Address]*stateObject),
		addrInCache: make(map[common.Address]bool),
		journal:     newJournal(),
		txSet:       make(map[common.Hash]bool),
		logger:      log.NewModuleLogger(log.StateDB),
	}, nil
}

func (s *StateDB) setError(err error) {
	if s.dbErr == nil {
		s.dbErr = err
	}
}

func (s *StateDB) Error() error { return s.dbErr }

// ensureCached loads addr from the trie into the cache if absent.
// requireCode pulls the code blob eagerly;
// forceCreate inserts a zero account when the trie has none (journaled, so
// reverting past it removes the cache entry again), otherwise a
// miss leaves the cache untouched (reads then observe the zero account
// via getStateObject's nil fallback, never mutating the cache).
func (s *StateDB) ensureCached(addr common.Address, requireCode, forceCreate bool) *stateObject {
	if obj, ok := s.cache[addr]; ok {
		if requireCode {
			obj.Code()
		}
		return obj
	}
	var data Account
	enc, err := s.trie.TryGet(addr[:])
	if err != nil {
		s.setError(err)
		return nil
	}
	if len(enc) == 0 {
		if !forceCreate {
			return nil
		}
		data = newAccount()
		s.journal.append(createObjectChange{account: &addr})
	} else {
		if err := decodeAccountRLP(enc, &data); err != nil {
			s.setError(err)
			return nil
		}
	}
	obj := newObject(s, addr, data)
	s.setStateObject(obj)
	if requireCode {
		obj.Code()
	}
	return obj
}

func (s *StateDB) setStateObject(obj *stateObject) {
	if !s.addrInCache[obj.address] {
		s.addrInCache[obj.address] = true
		s.cacheOrder = append(s.cacheOrder, obj.address)
	}
	s.cache[obj.address] = obj
}

// AddressInUse reports whether addr currently has a cache entry or an
// account in the trie.
func (s *StateDB) AddressInUse(addr common.Address) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.ensureCached(addr, false, false) != nil
}

func (s *StateDB) Balance(addr common.Address) *big.Int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	obj := s.ensureCached(addr, false, false)
	if obj == nil {
		return new(big.Int)
	}
	return obj.Balance()
}

// AddBalance creates the account if absent and adds v modulo 2**256 -
// overflow is the caller's guarantee, not a runtime check.
func (s *StateDB) AddBalance(addr common.Address, v *big.Int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	obj := s.ensureCached(addr, false, true)
	if obj == nil {
		return
	}
	obj.AddBalance(v)
}

// SubBalance returns kerrors.ErrInsufficientBalance without mutating state
// when the current balance is less than v.
func (s *StateDB) SubBalance(addr common.Address, v *big.Int) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	obj := s.ensureCached(addr, false, true)
	if obj == nil {
		if v.Sign() == 0 {
			return nil
		}
		return errors.WithStack(kerrors.ErrInsufficientBalance)
	}
	if !obj.SubBalance(v) {
		return errors.WithStack(kerrors.ErrInsufficientBalance)
	}
	return nil
}

// TransactionsFrom returns the next expected nonce for addr.
func (s *StateDB) TransactionsFrom(addr common.Address) uint64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	obj := s.ensureCached(addr, false, false)
	if obj == nil {
		return 0
	}
	return obj.Nonce()
}

// NoteSending increments addr's nonce, creating the account if absent.
func (s *StateDB) NoteSending(addr common.Address) {
	s.lock.Lock()
	defer s.lock.Unlock()
	obj := s.ensureCached(addr, false, true)
	if obj == nil {
		return
	}
	s.journal.append(nonceChange{account: &addr, prev: obj.Nonce()})
	obj.setNonce(obj.Nonce() + 1)
}

func (s *StateDB) Storage(addr common.Address, key common.Hash) common.Hash {
	s.lock.RLock()
	defer s.lock.RUnlock()
	obj := s.ensureCached(addr, false, false)
	if obj == nil {
		return common.Hash{}
	}
	return obj.GetStorage(key)
}

// SetStorage records key=value in addr's pending delta; ensureCached with
// forceCreate=true materializes a previously-absent address on write.
func (s *StateDB) SetStorage(addr common.Address, key, value common.Hash) {
	s.lock.Lock()
	defer s.lock.Unlock()
	obj := s.ensureCached(addr, false, true)
	if obj == nil {
		return
	}
	obj.SetStorage(key, value)
}

func (s *StateDB) Code(addr common.Address) []byte {
	s.lock.RLock()
	defer s.lock.RUnlock()
	obj := s.ensureCached(addr, true, false)
	if obj == nil {
		return nil
	}
	return obj.Code()
}

func (s *StateDB) CodeSize(addr common.Address) int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	obj := s.ensureCached(addr, true, false)
	if obj == nil {
		return 0
	}
	return obj.CodeSize()
}

func (s *StateDB) SetCode(addr common.Address, code []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	obj := s.ensureCached(addr, false, true)
	if obj == nil {
		return
	}
	obj.SetCode(common.BytesToHash(crypto.Keccak256(code)), code)
}

// Suicide tombstones addr for removal at the next Commit. It returns
// false if addr has neither a cache entry nor a trie account to mark.
func (s *StateDB) Suicide(addr common.Address) bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	obj := s.ensureCached(addr, false, false)
	if obj == nil {
		return false
	}
	obj.markSuicided()
	return true
}

func (s *StateDB) HasSuicided(addr common.Address) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	obj := s.cache[addr]
	return obj != nil && !obj.alive
}

// getCommittedStorage resolves a storage key through the account's
// per-account trie, opened at its last-committed StorageRoot - the
// fallback path when the key isn't in the pending delta.
func (s *StateDB) getCommittedStorage(obj *stateObject, key common.Hash) common.Hash {
	tr, err := s.db.OpenStorageTrie(obj.data.StorageRoot)
	if err != nil {
		s.setError(err)
		return common.Hash{}
	}
	enc, err := tr.TryGet(key[:])
	if err != nil {
		s.setError(err)
		return common.Hash{}
	}
	if len(enc) == 0 {
		return common.Hash{}
	}
	return common.BytesToHash(decodeStorageRLP(enc))
}

// Snapshot records the journal length as a savepoint.
func (s *StateDB) Snapshot() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	id := s.nextRevisionID
	s.nextRevisionID++
	s.validRevisions = append(s.validRevisions, revision{id, s.journal.length()})
	return id
}

// RevertToSnapshot undoes every journal entry recorded since Snapshot(id).
func (s *StateDB) RevertToSnapshot(id int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	idx := sort.Search(len(s.validRevisions), func(i int) bool {
		return s.validRevisions[i].id >= id
	})
	if idx == len(s.validRevisions) || s.validRevisions[idx].id != id {
		panic("state: revision id not found")
	}
	snapshot := s.validRevisions[idx].journalIndex
	s.journal.revert(s, snapshot)
	s.validRevisions = s.validRevisions[:idx]
}

// RecordTransaction appends txHash/from to the pending list and dedup set.
func (s *StateDB) RecordTransaction(txHash common.Hash, from common.Address) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pending = append(s.pending, &pendingTx{hash: txHash, from: from})
	s.txSet[txHash] = true
}

func (s *StateDB) HasPending(txHash common.Hash) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.txSet[txHash]
}

func (s *StateDB) PendingCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.pending)
}

// Reset discards the cache and pending list, starting a fresh candidate
// atop root.
func (s *StateDB) Reset(root common.Hash) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	tr, err := s.db.OpenTrie(root)
	if err != nil {
		return err
	}
	s.trie = tr
	s.cache = make(map[common.Address]*stateObject)
	s.addrInCache = make(map[common.Address]bool)
	s.cacheOrder = nil
	s.pending = nil
	s.txSet = make(map[common.Hash]bool)
	s.journal = newJournal()
	s.validRevisions = s.validRevisions[:0]
	s.dbErr = nil
	return nil
}

// Commit folds every cache entry into the world trie, returning the new
// state root. The overlay flush (durability vs. discard) is the caller's
// responsibility via the Overlay itself; Commit only produces the new
// trie root in memory plus the node writes queued in the trie's Database.
func (s *StateDB) Commit(deleteEmptyObjects bool) (common.Hash, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, addr := range s.cacheOrder {
		obj := s.cache[addr]
		if obj == nil {
			continue
		}
		if !obj.alive || (deleteEmptyObjects && obj.empty()) {
			if err := s.trie.TryDelete(addr[:]); err != nil {
				return common.Hash{}, err
			}
			obj.deleted = true
			continue
		}
		if err := s.commitStorage(obj); err != nil {
			return common.Hash{}, err
		}
		if len(obj.code) > 0 && obj.dirtyCode {
			if err := s.db.TrieDB().InsertBlob(obj.data.CodeHash, obj.code); err != nil {
				return common.Hash{}, err
			}
			obj.dirtyCode = false
		}
		data, err := encodeAccountRLP(&obj.data)
		if err != nil {
			return common.Hash{}, err
		}
		if err := s.trie.TryUpdate(addr[:], data); err != nil {
			return common.Hash{}, err
		}
	}
	root, err := s.trie.Commit(nil)
	if err != nil {
		return common.Hash{}, err
	}
	s.cache = make(map[common.Address]*stateObject)
	s.addrInCache = make(map[common.Address]bool)
	s.cacheOrder = nil
	s.pending = nil
	s.txSet = make(map[common.Hash]bool)
	s.journal = newJournal()
	s.validRevisions = s.validRevisions[:0]
	return root, nil
}

// commitStorage folds an object's pending storageDelta into its
// per-account storage trie: zero values delete the key, everything else
// is RLP-encoded and inserted, and the new root replaces StorageRoot.
func (s *StateDB) commitStorage(obj *stateObject) error {
	if len(obj.storageDelta) == 0 {
		return nil
	}
	tr, err := s.db.OpenStorageTrie(obj.data.StorageRoot)
	if err != nil {
		return err
	}
	keys := make([]common.Hash, 0, len(obj.storageDelta))
	for k := range obj.storageDelta {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Big().Cmp(keys[j].Big()) < 0 })
	for _, key := range keys {
		value := obj.storageDelta[key]
		if (value == common.Hash{}) {
			if err := tr.TryDelete(key[:]); err != nil {
				return err
			}
			continue
		}
		enc, err := encodeStorageRLP(value)
		if err != nil {
			return err
		}
		if err := tr.TryUpdate(key[:], enc); err != nil {
			return err
		}
	}
	root, err := tr.Commit(nil)
	if err != nil {
		return err
	}
	obj.data.StorageRoot = root
	obj.storageDelta = make(map[common.Hash]common.Hash)
	obj.storageOrigin = make(map[common.Hash]common.Hash)
	return nil
}

// Copy makes a cheap clone: the returned StateDB shares this one's
// Database (and therefore the overlay) but owns an independent cache.
func (s *StateDB) Copy() *StateDB {
	s.lock.Lock()
	defer s.lock.Unlock()
	cpy := &StateDB{
		db:          s.db,
		trie:        s.db.CopyTrie(s.trie),
		cache:       make(map[common.Address]*stateObject, len(s.cache)),
		addrInCache: make(map[common.Address]bool, len(s.cache)),
		cacheOrder:  append([]common.Address(nil), s.cacheOrder...),
		journal:     newJournal(),
		txSet:       make(map[common.Hash]bool, len(s.txSet)),
		logger:      s.logger,
	}
	for addr, obj := range s.cache {
		cpy.cache[addr] = obj.deepCopy(cpy)
		cpy.addrInCache[addr] = true
	}
	for _, p := range s.pending {
		cpy.pending = append(cpy.pending, &pendingTx{hash: p.hash, from: p.from})
	}
	for h := range s.txSet {
		cpy.txSet[h] = true
	}
	return cpy
}

// RootHash returns the trie's current root without committing anything -
// reflects only what's already been folded in by a prior Commit.
func (s *StateDB) RootHash() common.Hash {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.trie.Hash()
}

// Database exposes the underlying state.Database, e.g. for a miner
// building a fresh StateDB atop the same backend.
func (s *StateDB) Database() Database { return s.db }
