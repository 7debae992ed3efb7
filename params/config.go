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

package params

import "math/big"

// ChainConfig is the single immutable configuration value every State,
// block-pipeline, and miner is constructed with (spec design note:
// "Global-ish constants belong in a single immutable configuration value
// injected at State construction, not a process-wide mutable.").
type ChainConfig struct {
	ChainID *big.Int

	// DataGas is charged per byte of transaction calldata, split into the
	// zero-byte and non-zero-byte rates.
	TxDataZeroGas    uint64
	TxDataNonZeroGas uint64

	// Intrinsic base cost of a transaction, before any calldata or VM
	// execution: CallBaseGas for a plain call, CreationBaseGas for a
	// contract-creation transaction.
	CallBaseGas     uint64
	CreationBaseGas uint64

	BlockReward *big.Int
	MaxUncles   int
}

// DefaultChainConfig mirrors the constants in protocol_params.go.
func DefaultChainConfig() *ChainConfig {
	return &ChainConfig{
		ChainID:          big.NewInt(1),
		TxDataZeroGas:    TxDataZeroGas,
		TxDataNonZeroGas: TxDataNonZeroGas,
		CallBaseGas:      TxGas,
		CreationBaseGas:  TxGasContractCreation,
		BlockReward:      BlockReward,
		MaxUncles:        MaxUncles,
	}
}
