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
	"github.com/ethereum/go-ethereum/rlp"
)

// accountRLP is the on-trie 4-element list of spec.md §4.2 step 4:
// (nonce, balance, storageRoot, codeHash).
type accountRLP struct {
	Nonce       uint64
	Balance     *big.Int
	StorageRoot common.Hash
	CodeHash    common.Hash
}

func encodeAccountRLP(a *Account) ([]byte, error) {
	return rlp.EncodeToBytes(accountRLP{
		Nonce:       a.Nonce,
		Balance:     a.Balance,
		StorageRoot: a.StorageRoot,
		CodeHash:    a.CodeHash,
	})
}

func decodeAccountRLP(enc []byte, a *Account) error {
	var dec accountRLP
	if err := rlp.DecodeBytes(enc, &dec); err != nil {
		return err
	}
	a.Nonce = dec.Nonce
	a.Balance = dec.Balance
	a.StorageRoot = dec.StorageRoot
	a.CodeHash = dec.CodeHash
	return nil
}

// encodeStorageRLP / decodeStorageRLP implement spec.md §4.2 step 2's
// "insert rlp(v) under key k": a storage slot's value is RLP-encoded as a
// big-endian integer with leading zero bytes stripped, the canonical
// encoding for a 256-bit value.
func encodeStorageRLP(v common.Hash) ([]byte, error) {
	return rlp.EncodeToBytes(v.Big())
}

func decodeStorageRLP(enc []byte) []byte {
	var v big.Int
	if err := rlp.DecodeBytes(enc, &v); err != nil {
		return nil
	}
	return common.BytesToHash(v.Bytes()).Bytes()
}
