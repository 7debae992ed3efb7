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

package state

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// stateObject is a cache entry: the write-through mirror of one account,
// carrying spec.md §3's transient overlay (storageDelta, freshCode, alive)
// alongside the durable Account record it was loaded from (or will create).
type stateObject struct {
	address common.Address
	data    Account

	db *StateDB

	// storageDelta holds pending storage writes not yet folded into
	// data.StorageRoot; it is overwritten on every setStorage. Reads from
	// the trie fill storageOrigin, not this map.
	storageDelta map[common.Hash]common.Hash
	storageOrigin map[common.Hash]common.Hash // values as last read from the trie, for change detection

	// code holds the account's code once loaded by Code or installed by
	// SetCode; dirtyCode marks code installed this session (a create, or
	// an upgrade path), whose blob is written out at commit.
	code []byte

	alive   bool // false marks this entry tombstoned by Suicide
	deleted bool // true once commit has folded a tombstoned entry out

	dirtyCode bool
}

func newObject(db *StateDB, address common.Address, data Account) *stateObject {
	if data.Balance == nil {
		data.Balance = new(big.Int)
	}
	if data.StorageRoot == (common.Hash{}) {
		data.StorageRoot = emptyRoot
	}
	if data.CodeHash == (common.Hash{}) {
		data.CodeHash = emptyCodeHash
	}
	return &stateObject{
		db:            db,
		address:       address,
		data:          data,
		storageDelta:  make(map[common.Hash]common.Hash),
		storageOrigin: make(map[common.Hash]common.Hash),
		alive:         true,
	}
}

func (o *stateObject) empty() bool {
	return o.data.Empty()
}

func (o *stateObject) setNonce(n uint64) { o.data.Nonce = n }
func (o *stateObject) Nonce() uint64     { return o.data.Nonce }

func (o *stateObject) setBalance(amount *big.Int) { o.data.Balance = amount }
func (o *stateObject) Balance() *big.Int          { return o.data.Balance }

func (o *stateObject) AddBalance(amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	o.db.journal.append(balanceChange{account: &o.address, prev: new(big.Int).Set(o.data.Balance)})
	o.setBalance(new(big.Int).Add(o.data.Balance, amount))
}

// SubBalance returns false (InsufficientBalance) without mutating anything
// when amount exceeds the current balance.
func (o *stateObject) SubBalance(amount *big.Int) bool {
	if amount.Sign() == 0 {
		return true
	}
	if o.data.Balance.Cmp(amount) < 0 {
		return false
	}
	o.db.journal.append(balanceChange{account: &o.address, prev: new(big.Int).Set(o.data.Balance)})
	o.setBalance(new(big.Int).Sub(o.data.Balance, amount))
	return true
}

// setStorageDelta is the raw, journal-unaware setter used by revert.
func (o *stateObject) setStorageDelta(key, value common.Hash) {
	o.storageDelta[key] = value
}

// SetStorage records key=value in the pending delta; the per-account
// storage trie isn't touched until commit (spec.md §4.1 setStorage).
func (o *stateObject) SetStorage(key, value common.Hash) {
	prev := o.GetStorage(key)
	if prev == value {
		return
	}
	o.db.journal.append(storageChange{account: &o.address, key: key, prevalue: prev})
	o.setStorageDelta(key, value)
}

// GetStorage reads the pending delta first, then the per-account trie.
func (o *stateObject) GetStorage(key common.Hash) common.Hash {
	if value, dirty := o.storageDelta[key]; dirty {
		return value
	}
	if value, cached := o.storageOrigin[key]; cached {
		return value
	}
	value := o.db.getCommittedStorage(o, key)
	o.storageOrigin[key] = value
	return value
}

func (o *stateObject) setCode(codeHash common.Hash, code []byte) {
	o.code = code
	o.data.CodeHash = codeHash
	o.dirtyCode = true
}

func (o *stateObject) SetCode(codeHash common.Hash, code []byte) {
	prevcode := o.Code()
	o.db.journal.append(codeChange{account: &o.address, prevhash: o.data.CodeHash[:], prevcode: prevcode})
	o.setCode(codeHash, code)
}

func (o *stateObject) Code() []byte {
	if len(o.code) > 0 || o.data.CodeHash == emptyCodeHash {
		return o.code
	}
	code, err := o.db.db.ContractCode(o.data.CodeHash)
	if err != nil {
		o.db.setError(err)
		return nil
	}
	o.code = code
	return code
}

func (o *stateObject) CodeSize() int {
	return len(o.Code())
}

func (o *stateObject) markSuicided() {
	o.db.journal.append(suicideChange{
		account:     &o.address,
		prevAlive:   o.alive,
		prevbalance: new(big.Int).Set(o.data.Balance),
	})
	o.alive = false
	o.data.Balance = new(big.Int)
}

func (o *stateObject) deepCopy(db *StateDB) *stateObject {
	cpy := &stateObject{
		address:       o.address,
		data:          o.data.DeepCopy(),
		db:            db,
		storageDelta:  make(map[common.Hash]common.Hash, len(o.storageDelta)),
		storageOrigin: make(map[common.Hash]common.Hash, len(o.storageOrigin)),
		code:          append([]byte(nil), o.code...),
		alive:         o.alive,
		deleted:       o.deleted,
		dirtyCode:     o.dirtyCode,
	}
	for k, v := range o.storageDelta {
		cpy.storageDelta[k] = v
	}
	for k, v := range o.storageOrigin {
		cpy.storageOrigin[k] = v
	}
	return cpy
}

func (o *stateObject) equalCode(code []byte) bool {
	return bytes.Equal(o.Code(), code)
}
