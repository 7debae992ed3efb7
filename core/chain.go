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

	"github.com/ethereum/go-ethereum/common"

	"github.com/ground-x/ledgerstate/core/types"
)

// BlockDetails is the subset of a block's chain-position metadata the
// state engine needs from the chain collaborator without pulling in a
// full header (spec.md §6.2).
type BlockDetails struct {
	TotalDifficulty *big.Int
	Number          uint64
	Parent          common.Hash
}

// ChainReader is the block-chain store collaborator, spec.md §6.2: the
// external service that persists sealed blocks and answers parent/
// ancestor queries. The state engine only queries it, never mutates it.
type ChainReader interface {
	Info(hash common.Hash) (*types.Header, error)
	Details(hash common.Hash) (*BlockDetails, error)
	CurrentHash() common.Hash
	GenesisHash() common.Hash

	// Ancestor walks back from hash toward ancestor, returning the
	// header chain in descending-number order (hash's header first).
	// It returns an error if ancestor is not actually an ancestor of hash.
	Ancestor(hash, ancestor common.Hash) ([]*types.Header, error)
}
