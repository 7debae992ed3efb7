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

package statedb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ground-x/ledgerstate/storage/database"
)

// SecureTrie wraps Trie and hashes every key with keccak256 before it
// touches the tree. Both the world trie (keyed by Address) and every
// per-account storage trie (keyed by a 256-bit storage slot) are
// SecureTries, so an attacker who can choose keys can't bias the trie's
// shape toward a worst-case branching factor.
//
// A cache of hash->original key is kept so GetKey can still answer "what
// address/slot does this path correspond to", which iteration and proofs
// need; trie generations that care about cache growth bound it and let
// older SecureTrie instances from past blocks fall out of use.
type SecureTrie struct {
	trie             Trie
	hashKeyBuf       [32]byte
	secKeyCache      map[string][]byte
	secKeyCacheOwner *SecureTrie
}

// NewSecureTrie creates a SecureTrie rooted at root. cachelimit is accepted
// for signature parity with the teacher's trie-cache-generation knob; this
// adaptation doesn't evict by generation; the clean-node cache in Database
// bounds memory instead.
func NewSecureTrie(root common.Hash, db *Database, cachelimit uint16) (*SecureTrie, error) {
	if db == nil {
		panic("statedb.NewSecureTrie called with nil database")
	}
	trie, err := New(root, db)
	if err != nil {
		return nil, err
	}
	return &SecureTrie{trie: *trie}, nil
}

func (t *SecureTrie) TryGet(key []byte) ([]byte, error) {
	return t.trie.TryGet(t.hashKey(key))
}

func (t *SecureTrie) TryUpdate(key, value []byte) error {
	hk := t.hashKey(key)
	err := t.trie.TryUpdate(hk, value)
	if err != nil {
		return err
	}
	t.getSecKeyCache()[string(hk)] = append([]byte(nil), key...)
	return nil
}

func (t *SecureTrie) TryDelete(key []byte) error {
	hk := t.hashKey(key)
	delete(t.getSecKeyCache(), string(hk))
	return t.trie.TryDelete(hk)
}

// GetKey returns the preimage of a hashed key stashed in the cache built up
// by TryUpdate in this process; it returns nil for keys this SecureTrie
// never itself wrote (e.g. loaded fresh from a database with none of the
// corresponding updates replayed). Commit clears the cache, so keys written
// before the last Commit also return nil.
func (t *SecureTrie) GetKey(shaKey []byte) []byte {
	if key, ok := t.getSecKeyCache()[string(shaKey)]; ok {
		return key
	}
	return nil
}

func (t *SecureTrie) Commit(onleaf LeafCallback) (common.Hash, error) {
	if len(t.getSecKeyCache()) > 0 {
		t.secKeyCache = make(map[string][]byte)
	}
	return t.trie.Commit(onleaf)
}

func (t *SecureTrie) Hash() common.Hash {
	return t.trie.Hash()
}

func (t *SecureTrie) Copy() *SecureTrie {
	cpy := *t
	return &cpy
}

func (t *SecureTrie) NodeIterator(start []byte) NodeIterator {
	return t.trie.NodeIterator(start)
}

func (t *SecureTrie) Prove(key []byte, fromLevel uint, proofDb database.Putter) error {
	return t.trie.Prove(t.hashKey(key), fromLevel, proofDb)
}

func (t *SecureTrie) hashKey(key []byte) []byte {
	h := crypto.Keccak256(key)
	copy(t.hashKeyBuf[:], h)
	return t.hashKeyBuf[:]
}

func (t *SecureTrie) getSecKeyCache() map[string][]byte {
	if t != t.secKeyCacheOwner {
		t.secKeyCacheOwner = t
		t.secKeyCache = make(map[string][]byte)
	}
	return t.secKeyCache
}
