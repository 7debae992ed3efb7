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
	"github.com/ground-x/ledgerstate/params"
)

var (
	big1          = big.NewInt(1)
	big2          = big.NewInt(2)
	bigMinus99    = big.NewInt(-99)
	bigTenSeconds = big.NewInt(10)
)

// calcDifficulty is the retargeting rule spec.md §4.5 step 1 and §6.6
// reference: the classic single-uncle-aware adjustment, scaled by
// params.DifficultyBoundDivisor and floored at params.MinimumDifficulty.
//
// adjust = max(1 - (time-parent.time)/10, -99) when parent has no uncles,
// or max(2 - (time-parent.time)/10, -99) when it does.
func calcDifficulty(time uint64, parent *types.Header) *big.Int {
	bigTime := new(big.Int).SetUint64(time)
	bigParentTime := new(big.Int).SetUint64(parent.Time)

	x := new(big.Int).Sub(bigTime, bigParentTime)
	x.Div(x, bigTenSeconds)

	base := big1
	if parent.UncleHash != types.EmptyUncleHash {
		base = big2
	}
	x.Sub(big.NewInt(0).Set(base), x)
	if x.Cmp(bigMinus99) < 0 {
		x.Set(bigMinus99)
	}

	y := new(big.Int).Div(parent.Difficulty, params.DifficultyBoundDivisor)
	x.Mul(y, x)
	x.Add(parent.Difficulty, x)

	if x.Cmp(params.MinimumDifficulty) < 0 {
		x.Set(params.MinimumDifficulty)
	}
	return x
}

// gasLimitBounds reports whether child's gas limit is within the
// parent-derived bound (spec.md §4.5 step 1): it may move by at most
// parent/params.GasLimitBoundDivisor in either direction, and never below
// params.MinGasLimit.
func gasLimitBounds(parent, child uint64) bool {
	if child < params.MinGasLimit {
		return false
	}
	diff := int64(parent) - int64(child)
	if diff < 0 {
		diff = -diff
	}
	limit := int64(parent) / int64(params.GasLimitBoundDivisor)
	return diff <= limit
}
