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

// buildNextHeader assembles a syntactically-valid successor header to
// parent, with the given transactions already folded into builder's cache
// - used so the test can hand Playback a block whose declared stateRoot
// actually matches independently-replayed execution.
func buildNextHeader(t *testing.T, builder *State, parent *types.Header, txs []*types.Transaction, coinbase common.Address) *types.Header {
	t.Helper()
	// Playback credits fees to the replayed header's coinbase, so the
	// builder must execute against the same coinbase.
	builder.currentBlock.Coinbase = coinbase
	for _, tx := range txs {
		require.NoError(t, builder.execute(tx))
	}

	header := parent.Copy()
	header.ParentHash = parent.Hash()
	header.Number = new(big.Int).Add(parent.Number, big1)
	header.Time = parent.Time + 15
	header.Difficulty = calcDifficulty(header.Time, parent)
	header.Coinbase = coinbase
	if len(txs) == 0 {
		header.TxHash = types.EmptyRootHash
	} else {
		header.TxHash = types.DeriveTxsHash(txs)
	}
	header.UncleHash = types.EmptyUncleHash

	builder.applyRewards(header, nil)
	root, err := builder.db.Commit(true)
	require.NoError(t, err)
	header.Root = root
	return header
}

func TestPlaybackAppliesBlockAndCommits(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	coinbase := newTestAccount(t)

	s, genesisHeader := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})
	builder, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})

	tx := signedTransfer(t, alice, bob.addr, 0, big.NewInt(1000), params.TxGas, big.NewInt(1))
	header := buildNextHeader(t, builder, genesisHeader, []*types.Transaction{tx}, coinbase.addr)
	block := types.NewBlock(header, []*types.Transaction{tx}, nil).WithSeal(header)

	diff, err := s.Playback(block, genesisHeader, genesisHeader, true)
	require.NoError(t, err)
	require.Equal(t, 0, diff.Cmp(header.Difficulty))

	require.Equal(t, header.Root, s.RootHash())
	require.Equal(t, 0, s.Balance(bob.addr).Cmp(big.NewInt(1000)))
	require.True(t, s.Balance(coinbase.addr).Sign() > 0)
	require.Equal(t, header.Hash(), s.PreviousBlock().Hash())
}

func TestPlaybackRejectsBadStateRoot(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	coinbase := newTestAccount(t)

	s, genesisHeader := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})
	builder, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})

	tx := signedTransfer(t, alice, bob.addr, 0, big.NewInt(1000), params.TxGas, big.NewInt(1))
	header := buildNextHeader(t, builder, genesisHeader, []*types.Transaction{tx}, coinbase.addr)
	header.Root = common.Hash{0x1}
	block := types.NewBlock(header, []*types.Transaction{tx}, nil).WithSeal(header)

	_, err := s.Playback(block, genesisHeader, genesisHeader, true)
	require.Error(t, err)
	// No partial state persists: the cache is back at genesis.
	require.Equal(t, genesisHeader.Root, s.RootHash())
}

func TestPlaybackRejectsBadHeaderNumber(t *testing.T) {
	alice := newTestAccount(t)
	coinbase := newTestAccount(t)
	s, genesisHeader := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})
	builder, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})

	header := buildNextHeader(t, builder, genesisHeader, nil, coinbase.addr)
	header.Number = new(big.Int).Add(header.Number, big1) // skip a number
	block := types.NewBlock(header, nil, nil).WithSeal(header)

	_, err := s.Playback(block, genesisHeader, genesisHeader, true)
	require.Error(t, err)
}

func TestPlaybackDiscardLeavesOverlayUncommitted(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	coinbase := newTestAccount(t)

	s, genesisHeader := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})
	builder, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})

	tx := signedTransfer(t, alice, bob.addr, 0, big.NewInt(1000), params.TxGas, big.NewInt(1))
	header := buildNextHeader(t, builder, genesisHeader, []*types.Transaction{tx}, coinbase.addr)
	block := types.NewBlock(header, []*types.Transaction{tx}, nil).WithSeal(header)

	// Genesis construction staged its trie nodes in the journal; persist
	// them so the journal holds only what Playback itself writes.
	require.NoError(t, s.diskOverlay().Commit())
	before := s.diskOverlay().JournalSize()
	_, err := s.Playback(block, genesisHeader, genesisHeader, false)
	require.NoError(t, err)
	require.Equal(t, before, s.diskOverlay().JournalSize())
	// previousBlock does not advance on a non-committing playback.
	require.Equal(t, genesisHeader.Hash(), s.PreviousBlock().Hash())
}
