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
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/ledgerstate/core/kerrors"
)

func TestCommitToMineIsIdempotent(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})
	tx := signedTransfer(t, alice, bob.addr, 0, big.NewInt(1000), 21000, big.NewInt(1))
	require.NoError(t, s.Execute(tx))

	require.NoError(t, s.CommitToMine(nil))
	root := s.CurrentBlock().Root

	// A second call with no intervening Rollback/Sync must be a no-op: the
	// sealed root does not change even though the underlying cache could in
	// principle be re-folded.
	require.NoError(t, s.CommitToMine(nil))
	require.Equal(t, root, s.CurrentBlock().Root)
}

func TestMineWithoutCommitToMineFails(t *testing.T) {
	alice := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})
	_, err := s.Mine(10)
	require.ErrorIs(t, err, kerrors.ErrBlockNotSealed)
}

func TestMineTimesOutWithoutCompleting(t *testing.T) {
	alice := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})
	require.NoError(t, s.CommitToMine(nil))

	// A difficulty this far above the genesis default makes a match within
	// a few milliseconds of hashing astronomically unlikely, so the search
	// should simply report it ran out of time.
	header := s.currentBlock.Copy()
	header.Difficulty = new(big.Int).Lsh(big.NewInt(1), 200)
	s.currentBlock = header

	info, err := s.Mine(5)
	require.NoError(t, err)
	require.False(t, info.Completed)
	require.Nil(t, info.CurrentBytes)
	require.NotNil(t, info.BestSoFar)
}

func TestMineStopsOnCancellation(t *testing.T) {
	alice := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})
	require.NoError(t, s.CommitToMine(nil))
	header := s.currentBlock.Copy()
	header.Difficulty = new(big.Int).Lsh(big.NewInt(1), 200)
	s.currentBlock = header

	done := make(chan MineInfo, 1)
	go func() {
		info, err := s.Mine(60_000)
		require.NoError(t, err)
		done <- info
	}()

	time.Sleep(20 * time.Millisecond)
	atomic.StoreInt32(&s.miningStop, 1)

	select {
	case info := <-done:
		require.False(t, info.Completed)
	case <-time.After(2 * time.Second):
		t.Fatal("Mine did not observe cancellation")
	}
}

func TestMineCompletesAtTrivialDifficulty(t *testing.T) {
	alice := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})
	require.NoError(t, s.CommitToMine(nil))

	header := s.currentBlock.Copy()
	header.Difficulty = big.NewInt(1)
	s.currentBlock = header

	info, err := s.Mine(5000)
	require.NoError(t, err)
	require.True(t, info.Completed)
	require.NotEmpty(t, info.CurrentBytes)
	require.True(t, info.BestSoFar.Cmp(info.RequiredEffort) <= 0)
}
