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
	"github.com/pkg/errors"

	"github.com/ground-x/ledgerstate/core/types"
)

// fakeChain is a minimal in-memory ChainReader standing in for the chain
// store collaborator, recording headers by hash in insertion order so
// Ancestor can walk back through them.
type fakeChain struct {
	genesis common.Hash
	current common.Hash
	headers map[common.Hash]*types.Header
}

func newFakeChain(genesis *types.Header) *fakeChain {
	c := &fakeChain{
		genesis: genesis.Hash(),
		current: genesis.Hash(),
		headers: map[common.Hash]*types.Header{genesis.Hash(): genesis},
	}
	return c
}

func (c *fakeChain) Add(h *types.Header) {
	c.headers[h.Hash()] = h
	c.current = h.Hash()
}

func (c *fakeChain) Info(hash common.Hash) (*types.Header, error) {
	h, ok := c.headers[hash]
	if !ok {
		return nil, errors.New("fakeChain: unknown header")
	}
	return h, nil
}

func (c *fakeChain) Details(hash common.Hash) (*BlockDetails, error) {
	h, ok := c.headers[hash]
	if !ok {
		return nil, errors.New("fakeChain: unknown header")
	}
	return &BlockDetails{
		TotalDifficulty: new(big.Int).Set(h.Difficulty),
		Number:          h.Number.Uint64(),
		Parent:          h.ParentHash,
	}, nil
}

func (c *fakeChain) CurrentHash() common.Hash { return c.current }
func (c *fakeChain) GenesisHash() common.Hash { return c.genesis }

func (c *fakeChain) Ancestor(hash, ancestor common.Hash) ([]*types.Header, error) {
	var chain []*types.Header
	cur := hash
	for {
		h, ok := c.headers[cur]
		if !ok {
			return nil, errors.New("fakeChain: broken ancestry")
		}
		chain = append(chain, h)
		if cur == ancestor {
			return chain, nil
		}
		if cur == c.genesis {
			return nil, errors.New("fakeChain: ancestor not found")
		}
		cur = h.ParentHash
	}
}
