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

	"github.com/ground-x/ledgerstate/core/types"
)

// applyRewards is spec.md §4.5 step 5: credit coinbase blockReward plus
// blockReward*uncles/32, and credit each uncle's own coinbase a reward
// scaled down by its depth from the including block.
func (s *State) applyRewards(header *types.Header, uncles []*types.Header) {
	reward := new(big.Int).Set(s.config.BlockReward)
	if len(uncles) > 0 {
		extra := new(big.Int).Mul(s.config.BlockReward, big.NewInt(int64(len(uncles))))
		extra.Div(extra, big.NewInt(32))
		reward.Add(reward, extra)
	}
	s.db.AddBalance(header.Coinbase, reward)

	for _, uncle := range uncles {
		depth := new(big.Int).Sub(header.Number, uncle.Number).Int64()
		s.db.AddBalance(uncle.Coinbase, s.uncleReward(depth))
	}
}

// uncleReward is BlockReward*(8-depth)/8, paid to the uncle's own
// coinbase; depth is (includingNumber - uncleNumber), required to be in
// [1,8) by verifyUncles.
func (s *State) uncleReward(depth int64) *big.Int {
	r := new(big.Int).Set(s.config.BlockReward)
	r.Mul(r, big.NewInt(8-depth))
	r.Div(r, big.NewInt(8))
	return r
}
