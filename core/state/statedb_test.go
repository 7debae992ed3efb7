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
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/ledgerstate/storage/database"
)

func newTestStateDB(t *testing.T) *StateDB {
	t.Helper()
	ov, err := database.OpenDB(database.MemoryBackend, "", false)
	require.NoError(t, err)
	sdb, err := New(common.Hash{}, NewDatabase(ov))
	require.NoError(t, err)
	return sdb
}

func TestEmptyStateDBRootIsEmptyTrie(t *testing.T) {
	sdb := newTestStateDB(t)
	require.Equal(t, emptyRoot, sdb.RootHash())
}

func TestAddBalanceCreatesAccount(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x00000000000000000000000000000000000001")

	require.False(t, sdb.AddressInUse(addr))
	sdb.AddBalance(addr, big.NewInt(100))
	require.True(t, sdb.AddressInUse(addr))
	require.Equal(t, 0, sdb.Balance(addr).Cmp(big.NewInt(100)))
}

func TestSubBalanceInsufficientLeavesStateUnchanged(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x00000000000000000000000000000000000001")
	sdb.AddBalance(addr, big.NewInt(100))

	err := sdb.SubBalance(addr, big.NewInt(200))
	require.Error(t, err)
	require.Equal(t, 0, sdb.Balance(addr).Cmp(big.NewInt(100)))
}

func TestNoteSendingIncrementsNonce(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x00000000000000000000000000000000000001")

	require.Equal(t, uint64(0), sdb.TransactionsFrom(addr))
	sdb.NoteSending(addr)
	require.Equal(t, uint64(1), sdb.TransactionsFrom(addr))
	sdb.NoteSending(addr)
	require.Equal(t, uint64(2), sdb.TransactionsFrom(addr))
}

// TestStorageRoundTripThroughCommit establishes spec.md §8's storage
// round-trip property: after SetStorage/Commit/reopen, Storage(c,k) == v,
// and a never-written key reads back as zero.
func TestStorageRoundTripThroughCommit(t *testing.T) {
	ov, err := database.OpenDB(database.MemoryBackend, "", false)
	require.NoError(t, err)
	db := NewDatabase(ov)

	sdb, err := New(common.Hash{}, db)
	require.NoError(t, err)

	addr := common.HexToAddress("0x00000000000000000000000000000000000001")
	key := common.BigToHash(big.NewInt(7))
	val := common.BigToHash(big.NewInt(42))
	sdb.SetStorage(addr, key, val)

	root, err := sdb.Commit(false)
	require.NoError(t, err)

	reopened, err := New(root, db)
	require.NoError(t, err)
	require.Equal(t, val, reopened.Storage(addr, key))
	require.Equal(t, common.Hash{}, reopened.Storage(addr, common.BigToHash(big.NewInt(8))))
}

// TestSetStorageZeroIsIndistinguishableFromUnset exercises spec.md §4.2's
// "v == 0 delete key k" commit rule.
func TestSetStorageZeroIsIndistinguishableFromUnset(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x00000000000000000000000000000000000001")
	key := common.BigToHash(big.NewInt(1))

	sdb.SetStorage(addr, key, common.BigToHash(big.NewInt(5)))
	sdb.SetStorage(addr, key, common.Hash{})

	_, err := sdb.Commit(false)
	require.NoError(t, err)
	obj := sdb.ensureCached(addr, false, false)
	require.NotNil(t, obj)
	require.Equal(t, emptyRoot, obj.data.StorageRoot, "writing then zeroing a slot must leave the account's storage trie empty")
}

func TestSnapshotRevertUndoesBalanceAndStorage(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x00000000000000000000000000000000000001")
	key := common.BigToHash(big.NewInt(1))

	sdb.AddBalance(addr, big.NewInt(100))
	snap := sdb.Snapshot()

	sdb.AddBalance(addr, big.NewInt(900))
	sdb.SetStorage(addr, key, common.BigToHash(big.NewInt(42)))
	require.Equal(t, 0, sdb.Balance(addr).Cmp(big.NewInt(1000)))

	sdb.RevertToSnapshot(snap)
	require.Equal(t, 0, sdb.Balance(addr).Cmp(big.NewInt(100)))
	require.Equal(t, common.Hash{}, sdb.Storage(addr, key))
}

func TestCommitRollbackDuality(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x00000000000000000000000000000000000001")
	rootBefore := sdb.RootHash()

	sdb.AddBalance(addr, big.NewInt(500))
	require.NoError(t, sdb.Reset(rootBefore))
	require.Equal(t, rootBefore, sdb.RootHash())
	require.Equal(t, 0, sdb.Balance(addr).Sign())
}

func TestCopySharesOverlayButNotCache(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x00000000000000000000000000000000000001")
	sdb.AddBalance(addr, big.NewInt(100))

	cp := sdb.Copy()
	cp.AddBalance(addr, big.NewInt(900))

	require.Equal(t, 0, sdb.Balance(addr).Cmp(big.NewInt(100)))
	require.Equal(t, 0, cp.Balance(addr).Cmp(big.NewInt(1000)))
}

func TestSuicideTombstonesAccountAtCommit(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x00000000000000000000000000000000000001")
	sdb.AddBalance(addr, big.NewInt(100))

	require.True(t, sdb.Suicide(addr))
	require.True(t, sdb.HasSuicided(addr))

	root, err := sdb.Commit(false)
	require.NoError(t, err)
	require.Equal(t, emptyRoot, root)
}

func TestRecordTransactionTracksPendingAndDedup(t *testing.T) {
	sdb := newTestStateDB(t)
	addr := common.HexToAddress("0x00000000000000000000000000000000000001")
	h := common.HexToHash("0xdeadbeef")

	require.False(t, sdb.HasPending(h))
	sdb.RecordTransaction(h, addr)
	require.True(t, sdb.HasPending(h))
	require.Equal(t, 1, sdb.PendingCount())
}
