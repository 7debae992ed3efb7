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

package core

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/ledgerstate/core/types"
	"github.com/ground-x/ledgerstate/params"
)

// fakeQueue is a minimal in-memory TransactionQueue test double: Pending
// returns a snapshot, Remove drops the first matching hash.
type fakeQueue struct {
	txs []*types.Transaction
}

func (q *fakeQueue) Pending() []*types.Transaction {
	out := make([]*types.Transaction, len(q.txs))
	copy(out, q.txs)
	return out
}

func (q *fakeQueue) Remove(hash common.Hash) {
	for i, tx := range q.txs {
		if tx.Hash() == hash {
			q.txs = append(q.txs[:i], q.txs[i+1:]...)
			return
		}
	}
}

func (q *fakeQueue) has(hash common.Hash) bool {
	for _, tx := range q.txs {
		if tx.Hash() == hash {
			return true
		}
	}
	return false
}

func TestSyncIsNoOpWhenCanonical(t *testing.T) {
	alice := newTestAccount(t)
	s, genesisHeader := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})
	chain := newFakeChain(genesisHeader)

	require.NoError(t, s.Sync(chain))
	require.Equal(t, genesisHeader.Hash(), s.PreviousBlock().Hash())
}

func TestSyncResetsToHead(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	coinbase := newTestAccount(t)
	s, genesisHeader := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})
	chain := newFakeChain(genesisHeader)

	builder := s.Copy()
	tx := signedTransfer(t, alice, bob.addr, 0, big.NewInt(1000), params.TxGas, big.NewInt(1))
	header := buildNextHeader(t, builder, genesisHeader, []*types.Transaction{tx}, coinbase.addr)
	chain.Add(header)

	require.NoError(t, s.Sync(chain))
	require.Equal(t, header.Hash(), s.PreviousBlock().Hash())
	require.Equal(t, header.Root, s.RootHash())
	require.Equal(t, 0, s.Balance(bob.addr).Cmp(big.NewInt(1000)))
	require.Empty(t, s.Pending())
}

func TestSyncQueueAppliesInNonceOrder(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})

	tx1 := signedTransfer(t, alice, bob.addr, 0, big.NewInt(100), params.TxGas, big.NewInt(1))
	tx0 := signedTransfer(t, alice, bob.addr, 1, big.NewInt(200), params.TxGas, big.NewInt(1))
	// Queued out of order; SyncQueue must still apply nonce 0 before nonce 1.
	queue := &fakeQueue{txs: []*types.Transaction{tx0, tx1}}

	mutated, err := s.SyncQueue(queue)
	require.NoError(t, err)
	require.True(t, mutated)
	require.Equal(t, 0, s.Balance(bob.addr).Cmp(big.NewInt(300)))
	require.Equal(t, uint64(2), s.TransactionsFrom(alice.addr))
	require.Empty(t, queue.txs)
}

func TestSyncQueueLeavesNonceGapQueued(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})

	// Nonce 1 arrives without nonce 0 ever being queued: it can't apply yet
	// and must remain queued rather than be dropped.
	gapTx := signedTransfer(t, alice, bob.addr, 1, big.NewInt(100), params.TxGas, big.NewInt(1))
	queue := &fakeQueue{txs: []*types.Transaction{gapTx}}

	mutated, err := s.SyncQueue(queue)
	require.NoError(t, err)
	require.False(t, mutated)
	require.True(t, queue.has(gapTx.Hash()))
	require.Equal(t, uint64(0), s.TransactionsFrom(alice.addr))
}

func TestSyncQueueDropsUnaffordableTransaction(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(100),
	})

	tooExpensive := signedTransfer(t, alice, bob.addr, 0, big.NewInt(1_000_000), params.TxGas, big.NewInt(1))
	queue := &fakeQueue{txs: []*types.Transaction{tooExpensive}}

	mutated, err := s.SyncQueue(queue)
	require.NoError(t, err)
	require.False(t, mutated)
	require.False(t, queue.has(tooExpensive.Hash()))
}

func TestSyncQueueSkipsAlreadyPendingTransaction(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})

	tx := signedTransfer(t, alice, bob.addr, 0, big.NewInt(100), params.TxGas, big.NewInt(1))
	require.NoError(t, s.Execute(tx))
	balanceAfterFirst := new(big.Int).Set(s.Balance(bob.addr))

	queue := &fakeQueue{txs: []*types.Transaction{tx}}
	mutated, err := s.SyncQueue(queue)
	require.NoError(t, err)
	require.False(t, mutated)
	require.False(t, queue.has(tx.Hash()))
	require.Equal(t, 0, balanceAfterFirst.Cmp(s.Balance(bob.addr)))
}

func TestCullDropsStaleAndUnaffordableEntriesOnly(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})
	require.NoError(t, s.Execute(signedTransfer(t, alice, bob.addr, 0, big.NewInt(1), params.TxGas, big.NewInt(1))))

	stale := signedTransfer(t, alice, bob.addr, 0, big.NewInt(1), params.TxGas, big.NewInt(1))
	unaffordable := signedTransfer(t, alice, bob.addr, 1, big.NewInt(10_000_000), params.TxGas, big.NewInt(1))
	stillGood := signedTransfer(t, alice, bob.addr, 1, big.NewInt(100), params.TxGas, big.NewInt(1))

	queue := &fakeQueue{txs: []*types.Transaction{stale, unaffordable, stillGood}}
	require.NoError(t, s.Cull(queue))

	require.False(t, queue.has(stale.Hash()))
	require.False(t, queue.has(unaffordable.Hash()))
	require.True(t, queue.has(stillGood.Hash()))
	// Cull never mutates this State's own cache.
	require.Equal(t, uint64(1), s.TransactionsFrom(alice.addr))
}
