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
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/ground-x/ledgerstate/core/kerrors"
	"github.com/ground-x/ledgerstate/core/state"
	"github.com/ground-x/ledgerstate/core/types"
	"github.com/ground-x/ledgerstate/log"
	"github.com/ground-x/ledgerstate/params"
)

// State is the facade spec.md §3 describes: the coupling of the account
// cache (core/state.StateDB) with the pending transaction/uncle list of
// the candidate block being assembled on top of it. Every mutating method
// (Execute, Sync, Playback, CommitToMine, Rollback, Mine) requires the
// caller hold single-writer discipline; reads may run concurrently with
// each other but not with a mutation (spec.md §5).
type State struct {
	config *params.ChainConfig
	sdb    state.Database
	chain  ChainReader
	runner CodeRunner

	db *state.StateDB

	previousBlock *types.Header
	currentBlock  *types.Header

	currentTxs    []*types.Transaction
	currentUncles []*types.Header
	sealed        bool // CommitToMine has folded the cache for this candidate already

	miningStop int32 // atomic cancellation flag; see Mine
	callDepth  int   // re-entrancy depth for nested Create/Call, bounded by params.CallCreateDepth

	lock     sync.RWMutex
	poisoned error

	logger log.Logger
}

// NewState opens a State rooted at previousBlock's state, ready to accept
// Execute calls for a new candidate atop it.
func NewState(cfg *params.ChainConfig, sdb state.Database, chain ChainReader, runner CodeRunner, previousBlock *types.Header) (*State, error) {
	db, err := state.New(previousBlock.Root, sdb)
	if err != nil {
		return nil, err
	}
	if runner == nil {
		runner = NullRunner{}
	}
	return &State{
		config:        cfg,
		sdb:           sdb,
		chain:         chain,
		runner:        runner,
		db:            db,
		previousBlock: previousBlock,
		currentBlock:  previousBlock.Copy(),
		logger:        log.NewModuleLogger(log.Core),
	}, nil
}

func (s *State) checkPoisoned() error {
	if s.poisoned != nil {
		return errors.Wrap(kerrors.ErrPoisonedState, s.poisoned.Error())
	}
	return nil
}

// poison marks the State permanently failed after a database error,
// per spec.md §7's DatabaseFailure policy: "fatal; the State instance is
// poisoned; the caller must discard it."
func (s *State) poison(err error) error {
	if s.poisoned == nil {
		s.poisoned = errors.Wrap(kerrors.ErrDatabaseFailure, err.Error())
	}
	return s.poisoned
}

// stopMining sets the cancellation flag Mine polls; Sync, Rollback and
// CommitToMine all implicitly call it (spec.md §5 Cancellation).
func (s *State) stopMining() {
	atomic.StoreInt32(&s.miningStop, 1)
}

// AddressInUse reports whether addr has a cache entry or trie account.
func (s *State) AddressInUse(addr common.Address) bool {
	return s.db.AddressInUse(addr)
}

// Balance returns addr's current balance (zero for an absent account).
func (s *State) Balance(addr common.Address) *big.Int {
	return s.db.Balance(addr)
}

// Storage returns the value stored under key in addr's storage.
func (s *State) Storage(addr common.Address, key common.Hash) common.Hash {
	return s.db.Storage(addr, key)
}

// TransactionsFrom is the next nonce expected from addr.
func (s *State) TransactionsFrom(addr common.Address) uint64 {
	return s.db.TransactionsFrom(addr)
}

// RootHash is the world trie's current root, reflecting only what a
// prior Commit already folded in - it does not implicitly commit.
func (s *State) RootHash() common.Hash {
	return s.db.RootHash()
}

// Pending is the ordered list of transactions applied since the last
// Rollback, Sync or Playback, i.e. the candidate block's transaction set.
func (s *State) Pending() []*types.Transaction {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make([]*types.Transaction, len(s.currentTxs))
	copy(out, s.currentTxs)
	return out
}

// CurrentBlock returns a copy of the header being assembled.
func (s *State) CurrentBlock() *types.Header { return s.currentBlock.Copy() }

// PreviousBlock returns the baseline header this candidate is built on.
func (s *State) PreviousBlock() *types.Header { return s.previousBlock.Copy() }

// Rollback discards the uncommitted candidate - cache, pending list, and
// in-flight mining - resetting back to previousBlock's committed root.
// This is the Reset/rollback half of spec.md §4.2's commit/rollback duality.
func (s *State) Rollback() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.stopMining()
	if err := s.db.Reset(s.previousBlock.Root); err != nil {
		return s.poison(err)
	}
	s.currentBlock = s.previousBlock.Copy()
	s.currentTxs = nil
	s.currentUncles = nil
	s.sealed = false
	return nil
}

// Copy makes a cheap clone sharing this State's overlay/trie-node cache
// but owning an independent account cache and candidate block, per
// spec.md §5 "Shared resources" / §9 "Copy semantics of State".
func (s *State) Copy() *State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return &State{
		config:        s.config,
		sdb:           s.sdb,
		chain:         s.chain,
		runner:        s.runner,
		db:            s.db.Copy(),
		previousBlock: s.previousBlock.Copy(),
		currentBlock:  s.currentBlock.Copy(),
		currentTxs:    append([]*types.Transaction(nil), s.currentTxs...),
		currentUncles: append([]*types.Header(nil), s.currentUncles...),
		logger:        s.logger,
	}
}
