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

	"github.com/ground-x/ledgerstate/core/state"
	"github.com/ground-x/ledgerstate/core/types"
	"github.com/ground-x/ledgerstate/params"
)

// GenesisAlloc is spec.md §6.5's genesisState(): a fixed mapping of
// addresses to initial balances.
type GenesisAlloc map[common.Address]*big.Int

// Genesis describes the block a chain starts from.
type Genesis struct {
	Config     *params.ChainConfig
	Timestamp  uint64
	ExtraData  []byte
	GasLimit   uint64
	Difficulty *big.Int
	Coinbase   common.Address
	Alloc      GenesisAlloc
}

// DefaultGenesisAlloc is a small well-known two-account allocation, useful
// as a baseline for tests and for §9 scenario S6 (mine-and-replay on a
// two-account genesis).
func DefaultGenesisAlloc() GenesisAlloc {
	return GenesisAlloc{
		common.HexToAddress("0x0000000000000000000000000000000000000a"): big.NewInt(1_000_000_000_000_000_000),
		common.HexToAddress("0x0000000000000000000000000000000000000b"): big.NewInt(0),
	}
}

// DefaultGenesis returns a Genesis using params.DefaultChainConfig,
// params.GenesisDifficulty and params.GenesisGasLimit.
func DefaultGenesis() *Genesis {
	return &Genesis{
		Config:     params.DefaultChainConfig(),
		GasLimit:   params.GenesisGasLimit,
		Difficulty: new(big.Int).Set(params.GenesisDifficulty),
		Alloc:      DefaultGenesisAlloc(),
	}
}

// ToBlock commits the genesis allocation into a brand-new StateDB rooted
// at the empty trie, then returns the resulting header (spec.md §6.5:
// "hashing this through an empty trie produces the well-known genesis
// state root"). The committed trie nodes are staged in db's overlay
// journal but the overlay is not flushed; the caller decides whether to
// persist it.
func (g *Genesis) ToBlock(db state.Database) (*types.Header, error) {
	sdb, err := state.New(common.Hash{}, db)
	if err != nil {
		return nil, err
	}
	for addr, balance := range g.Alloc {
		sdb.AddBalance(addr, balance)
	}
	root, err := sdb.Commit(false)
	if err != nil {
		return nil, err
	}
	head := &types.Header{
		ParentHash: common.Hash{},
		UncleHash:  types.EmptyUncleHash,
		Coinbase:   g.Coinbase,
		Root:       root,
		TxHash:     types.EmptyRootHash,
		Difficulty: new(big.Int).Set(g.Difficulty),
		Number:     new(big.Int),
		GasLimit:   g.GasLimit,
		Time:       g.Timestamp,
		Extra:      append([]byte(nil), g.ExtraData...),
	}
	return head, nil
}
