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

	"github.com/pkg/errors"
	"gopkg.in/fatih/set.v0"

	"github.com/ground-x/ledgerstate/core/kerrors"
	"github.com/ground-x/ledgerstate/core/types"
	"github.com/ground-x/ledgerstate/storage/database"
)

// Playback is spec.md §4.5: decode (already done - block arrives decoded),
// verify the header against parent and every uncle against grandParent,
// replay the block's transactions against parent's post-state, apply
// rewards, and either commit (fullCommit) or discard. Any failure leaves
// no partial state: a header or uncle failure returns before the working
// cache is touched, and a failure during replay resets the working cache
// back to parent's root before Playback returns.
func (s *State) Playback(block *types.Block, parent, grandParent *types.Header, fullCommit bool) (*big.Int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkPoisoned(); err != nil {
		return nil, err
	}
	s.stopMining()

	header := block.Header()
	if err := verifyHeader(header, parent); err != nil {
		return nil, errors.Wrap(kerrors.ErrInvalidBlock, err.Error())
	}
	uncles := block.Uncles()
	if err := s.verifyUncles(header, uncles, grandParent); err != nil {
		return nil, errors.Wrap(kerrors.ErrInvalidBlock, err.Error())
	}

	if err := s.db.Reset(parent.Root); err != nil {
		return nil, s.poison(err)
	}
	s.currentBlock = header.Copy()
	s.currentTxs = nil
	s.currentUncles = uncles
	s.sealed = false

	for _, tx := range block.Transactions() {
		if err := s.execute(tx); err != nil {
			s.db.Reset(parent.Root)
			return nil, errors.Wrap(kerrors.ErrInvalidBlock, err.Error())
		}
	}

	s.applyRewards(header, uncles)

	root, err := s.db.Commit(true)
	if err != nil {
		return nil, s.poison(err)
	}
	if root != header.Root {
		s.db.Reset(parent.Root)
		return nil, errors.Wrapf(kerrors.ErrStateRootMismatch, "got %s want %s", root.Hex(), header.Root.Hex())
	}

	if ov := s.diskOverlay(); ov != nil {
		if fullCommit {
			if err := ov.Commit(); err != nil {
				return nil, s.poison(err)
			}
		} else {
			ov.Discard()
		}
	}
	if fullCommit {
		s.previousBlock = header.Copy()
	}
	if err := s.db.Reset(s.previousBlock.Root); err != nil {
		return nil, s.poison(err)
	}

	blocksPlayedMeter.Mark(1)
	return new(big.Int).Set(header.Difficulty), nil
}

// diskOverlay returns the underlying content-addressed overlay, if the
// backing store is one (it always is in production; tests may use a bare
// in-memory statedb.Database that skips the durability distinction).
func (s *State) diskOverlay() *database.Overlay {
	ov, _ := s.sdb.TrieDB().DiskDB().(*database.Overlay)
	return ov
}

// verifyHeader is spec.md §4.5 step 1: number, timestamp, gas-limit
// bound, and difficulty must all follow from parent.
func verifyHeader(header, parent *types.Header) error {
	if header.Number == nil || parent.Number == nil || header.Number.Cmp(new(big.Int).Add(parent.Number, big1)) != 0 {
		return errors.WithStack(kerrors.ErrInvalidNumber)
	}
	if header.Time <= parent.Time {
		return errors.WithStack(kerrors.ErrInvalidTimestamp)
	}
	if !gasLimitBounds(parent.GasLimit, header.GasLimit) {
		return errors.WithStack(kerrors.ErrGasLimitOutOfBounds)
	}
	want := calcDifficulty(header.Time, parent)
	if header.Difficulty == nil || header.Difficulty.Cmp(want) != 0 {
		return errors.WithStack(kerrors.ErrInvalidDifficulty)
	}
	return nil
}

// verifyUncles is spec.md §4.5 step 2: at most params.MaxUncles uncles,
// none repeated, none already an ancestor of the including block, and
// each validated against grandParent per the usual uncle-depth rule
// ([1,8) blocks behind the including block).
func (s *State) verifyUncles(header *types.Header, uncles []*types.Header, grandParent *types.Header) error {
	if len(uncles) > s.config.MaxUncles {
		return errors.WithStack(kerrors.ErrTooManyUncles)
	}
	seen := set.New()
	for _, uncle := range uncles {
		h := uncle.Hash()
		if seen.Has(h) {
			return errors.WithStack(kerrors.ErrDuplicateUncle)
		}
		seen.Add(h)

		if uncle.Number == nil || header.Number == nil {
			return errors.WithStack(kerrors.ErrInvalidBlock)
		}
		depth := new(big.Int).Sub(header.Number, uncle.Number)
		if depth.Sign() <= 0 || depth.Cmp(big.NewInt(8)) >= 0 {
			return errors.WithStack(kerrors.ErrUncleIsAncestor)
		}
		if s.chain != nil {
			if _, err := s.chain.Ancestor(header.ParentHash, h); err == nil {
				return errors.WithStack(kerrors.ErrUncleIsAncestor)
			}
		}
		if uncle.ParentHash != grandParent.Hash() && uncle.ParentHash != grandParent.ParentHash {
			// Accept uncles whose parent is any ancestor within the
			// permitted depth window, not only the immediate grandparent,
			// by walking s.chain.Ancestor; with no chain attached, such a
			// parent is accepted unchecked.
			if s.chain != nil {
				if _, err := s.chain.Ancestor(header.ParentHash, uncle.ParentHash); err != nil {
					return errors.WithStack(kerrors.ErrUncleIsAncestor)
				}
			}
		}
	}
	return nil
}
