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

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Account is the durable, RLP-encoded record the world trie stores under
// an address: (nonce, balance, storageRoot, codeHash). It carries none of
// a stateObject's transient overlay (storageDelta, freshCode, alive) -
// those exist only on the cache entry built around it.
type Account struct {
	Nonce       uint64
	Balance     *big.Int
	StorageRoot common.Hash
	CodeHash    common.Hash
}

// emptyCodeHash is keccak256 of the empty byte string - every
// externally-owned account's CodeHash.
var emptyCodeHash = common.HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")

// emptyRoot is the root hash of an empty trie - every externally-owned
// account's StorageRoot.
var emptyRoot = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

func newAccount() Account {
	return Account{
		Nonce:       0,
		Balance:     new(big.Int),
		StorageRoot: emptyRoot,
		CodeHash:    emptyCodeHash,
	}
}

// Empty reports the invariant of spec.md §3: an account with nonce=0,
// balance=0, empty storage, empty code is indistinguishable from absent.
func (a *Account) Empty() bool {
	return a.Nonce == 0 && a.Balance.Sign() == 0 &&
		a.StorageRoot == emptyRoot && a.CodeHash == emptyCodeHash
}

func (a *Account) DeepCopy() Account {
	return Account{
		Nonce:       a.Nonce,
		Balance:     new(big.Int).Set(a.Balance),
		StorageRoot: a.StorageRoot,
		CodeHash:    a.CodeHash,
	}
}
