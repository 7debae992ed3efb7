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
	"crypto/rand"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"gopkg.in/fatih/set.v0"

	"github.com/ground-x/ledgerstate/core/kerrors"
	"github.com/ground-x/ledgerstate/core/types"
)

// MineInfo is the result of a Mine call - spec.md §4.6's reporting
// structure. bestSoFar lets a caller show search progress even on a
// cancelled or timed-out attempt.
type MineInfo struct {
	Completed      bool
	RequiredEffort *big.Int // the target the search hashed against
	BestSoFar      *big.Int // lowest hash value seen, interpreted as an unsigned integer
	CurrentBytes   []byte   // RLP [header, txs, uncles] with a valid nonce, set iff Completed
}

// CommitToMine is spec.md §4.6: freeze the pending set into currentBlock,
// fold the cache into the trie, and apply rewards so the resulting root
// reflects post-reward balances. It is idempotent: a second call with no
// intervening Rollback/Sync is a no-op, since sealed is already true.
func (s *State) CommitToMine(chain ChainReader) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if err := s.checkPoisoned(); err != nil {
		return err
	}
	if s.sealed {
		return nil
	}
	s.stopMining()

	uncles, err := s.eligibleUncles(chain)
	if err != nil {
		return err
	}
	s.currentUncles = uncles

	header := s.currentBlock.Copy()
	if len(s.currentTxs) == 0 {
		header.TxHash = types.EmptyRootHash
	} else {
		header.TxHash = types.DeriveTxsHash(s.currentTxs)
	}
	if len(uncles) == 0 {
		header.UncleHash = types.EmptyUncleHash
	} else {
		header.UncleHash = types.DeriveUnclesHash(uncles)
	}
	s.currentBlock = header

	s.applyRewards(s.currentBlock, uncles)

	root, err := s.db.Commit(true)
	if err != nil {
		return s.poison(err)
	}
	s.currentBlock.Root = root
	s.sealed = true
	return nil
}

// eligibleUncles selects up to params.MaxUncles headers from chain that
// are valid uncles of the candidate being assembled: not already an
// ancestor, not already included as an uncle, and within the uncle-depth
// window of the candidate's parent's recent ancestry.
func (s *State) eligibleUncles(chain ChainReader) ([]*types.Header, error) {
	if chain == nil {
		return nil, nil
	}
	ancestors, err := chain.Ancestor(s.previousBlock.Hash(), chain.GenesisHash())
	if err != nil {
		// No recorded ancestry (e.g. previousBlock is genesis itself) is not
		// fatal to mining; it just means no uncles are eligible yet.
		return nil, nil
	}

	family := set.New()
	for _, h := range ancestors {
		family.Add(h.Hash())
	}

	var uncles []*types.Header
	for depth := 1; depth < 8 && len(uncles) < s.config.MaxUncles; depth++ {
		if depth >= len(ancestors) {
			break
		}
		parent := ancestors[depth]
		for _, candidate := range ancestors {
			if candidate.ParentHash != parent.ParentHash || candidate.Hash() == parent.Hash() {
				continue
			}
			if family.Has(candidate.Hash()) {
				continue
			}
			uncles = append(uncles, candidate)
			family.Add(candidate.Hash())
			if len(uncles) >= s.config.MaxUncles {
				break
			}
		}
	}
	return uncles, nil
}

// Mine is spec.md §4.6: search for a nonce satisfying the candidate
// block's difficulty target, for at most msTimeout milliseconds, yielding
// to the cancellation flag at least once per millisecond. CommitToMine
// must have already been called - Mine never implicitly seals.
func (s *State) Mine(msTimeout int64) (MineInfo, error) {
	s.lock.RLock()
	sealed := s.sealed
	header := s.currentBlock.Copy()
	txs := append([]*types.Transaction(nil), s.currentTxs...)
	uncles := append([]*types.Header(nil), s.currentUncles...)
	s.lock.RUnlock()

	if err := s.checkPoisoned(); err != nil {
		return MineInfo{}, err
	}
	if !sealed {
		return MineInfo{}, kerrors.ErrBlockNotSealed
	}

	atomic.StoreInt32(&s.miningStop, 0)
	defer atomic.StoreInt32(&s.miningStop, 1)

	target := new(big.Int).Div(maxUint256, header.Difficulty)
	seedHash := header.HashNoNonce()

	deadline := time.Now().Add(time.Duration(msTimeout) * time.Millisecond)
	best := new(big.Int).Set(maxUint256)

	var nonceBuf [8]byte
	if _, err := rand.Read(nonceBuf[:]); err != nil {
		return MineInfo{}, s.poison(err)
	}
	nonce := (uint64(nonceBuf[0]) << 56) | (uint64(nonceBuf[1]) << 48) | (uint64(nonceBuf[2]) << 40) |
		(uint64(nonceBuf[3]) << 32) | (uint64(nonceBuf[4]) << 24) | (uint64(nonceBuf[5]) << 16) |
		(uint64(nonceBuf[6]) << 8) | uint64(nonceBuf[7])

	for {
		if atomic.LoadInt32(&s.miningStop) != 0 {
			return MineInfo{Completed: false, RequiredEffort: target, BestSoFar: best}, nil
		}
		if time.Now().After(deadline) {
			return MineInfo{Completed: false, RequiredEffort: target, BestSoFar: best}, nil
		}

		digest := crypto.Keccak256(seedHash[:], encodeNonce(nonce))
		miningAttemptsMeter.Mark(1)
		value := new(big.Int).SetBytes(digest)
		if value.Cmp(best) < 0 {
			best = value
		}
		if value.Cmp(target) <= 0 {
			sealedHeader := header.Copy()
			sealedHeader.Nonce = types.EncodeNonce(nonce)
			sealedHeader.MixDigest = common.BytesToHash(digest)

			raw, err := rlp.EncodeToBytes([]interface{}{sealedHeader, txs, uncles})
			if err != nil {
				return MineInfo{}, s.poison(err)
			}
			blocksMinedCounter.Inc(1)
			return MineInfo{Completed: true, RequiredEffort: target, BestSoFar: best, CurrentBytes: raw}, nil
		}
		nonce++
	}
}

func encodeNonce(n uint64) []byte {
	b := types.EncodeNonce(n)
	return b[:]
}

// maxUint256 is 2^256 - 1, the difficulty target's numerator per the
// classic proof-of-work rule: target = maxUint256 / difficulty.
var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big1, 256), big1)
