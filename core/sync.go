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
	"github.com/ethereum/go-ethereum/common"

	"github.com/ground-x/ledgerstate/core/types"
)

// TransactionQueue is the pending-transaction pool collaborator spec.md
// §4.7 calls "transactionQueue": an external service SyncQueue/Cull only
// read from and remove entries of, never mutate otherwise.
type TransactionQueue interface {
	// Pending returns the queued transactions in the order they should be
	// considered for application (typically nonce-then-arrival order).
	Pending() []*types.Transaction

	// Remove drops a transaction from the queue, e.g. because it is
	// already applied or has become permanently invalid.
	Remove(hash common.Hash)
}

// Sync is spec.md §4.7 sync(chain): bring this State to the chain's
// current head. If previousBlock is still canonical, this is a no-op;
// otherwise the cache is reset to the head block's post-state and the
// candidate starts empty against it; no pending transaction is re-applied
// here.
func (s *State) Sync(chain ChainReader) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkPoisoned(); err != nil {
		return err
	}

	head := chain.CurrentHash()
	if head == s.previousBlock.Hash() {
		return nil
	}
	s.stopMining()

	headHeader, err := chain.Info(head)
	if err != nil {
		return err
	}
	if err := s.db.Reset(headHeader.Root); err != nil {
		return s.poison(err)
	}
	s.previousBlock = headHeader.Copy()
	s.currentBlock = headHeader.Copy()
	s.currentTxs = nil
	s.currentUncles = nil
	s.sealed = false
	return nil
}

// SyncQueue is spec.md §4.7 sync(transactionQueue): drop from queue every
// transaction already folded into pending, then attempt the remainder in
// nonce order, dropping (from the queue) any that are stale or whose
// sender can't afford them. Returns whether any transaction was applied.
func (s *State) SyncQueue(queue TransactionQueue) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkPoisoned(); err != nil {
		return false, err
	}

	pending := make(map[common.Hash]bool, len(s.currentTxs))
	for _, tx := range s.currentTxs {
		pending[tx.Hash()] = true
	}

	txs := queue.Pending()
	byAddr := make(map[common.Address][]*types.Transaction)
	for _, tx := range txs {
		if pending[tx.Hash()] {
			queue.Remove(tx.Hash())
			continue
		}
		sender, err := tx.Sender()
		if err != nil {
			queue.Remove(tx.Hash())
			continue
		}
		byAddr[sender] = append(byAddr[sender], tx)
	}

	mutated := false
	for sender, list := range byAddr {
		sortTransactionsByNonce(list)
		expected := s.db.TransactionsFrom(sender)
		for _, tx := range list {
			if tx.Nonce() < expected {
				queue.Remove(tx.Hash())
				continue
			}
			if tx.Nonce() > expected {
				// A gap: stop applying this sender's queued transactions
				// until the missing nonce arrives, but leave it queued.
				break
			}
			if err := s.execute(tx); err != nil {
				queue.Remove(tx.Hash())
				continue
			}
			queue.Remove(tx.Hash())
			mutated = true
			expected++
		}
	}
	return mutated, nil
}

// Cull is spec.md §4.7 cull(transactionQueue): the read-only variant of
// SyncQueue. It removes stale or unaffordable entries from queue without
// ever touching this State's cache.
func (s *State) Cull(queue TransactionQueue) error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if err := s.checkPoisoned(); err != nil {
		return err
	}

	for _, tx := range queue.Pending() {
		sender, err := tx.Sender()
		if err != nil {
			queue.Remove(tx.Hash())
			continue
		}
		expected := s.db.TransactionsFrom(sender)
		if tx.Nonce() < expected {
			queue.Remove(tx.Hash())
			continue
		}
		cost := tx.Cost()
		if s.db.Balance(sender).Cmp(cost) < 0 {
			queue.Remove(tx.Hash())
		}
	}
	return nil
}

// sortTransactionsByNonce is a small insertion sort; queues are expected
// to hold at most a handful of transactions per sender.
func sortTransactionsByNonce(txs []*types.Transaction) {
	for i := 1; i < len(txs); i++ {
		for j := i; j > 0 && txs[j].Nonce() < txs[j-1].Nonce(); j-- {
			txs[j], txs[j-1] = txs[j-1], txs[j]
		}
	}
}
