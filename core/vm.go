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

// Package core is the state core and block pipeline: transaction
// execution, contract create/call dispatch, block playback/assembly, and
// the reward/difficulty rules that tie them together. The cache and trie
// layers it builds on live in core/state and storage/statedb.
package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// VMStateDB is the narrow privileged capability object spec.md's design
// notes call for: exactly the storage/balance/code primitives a code
// interpreter needs plus the nested create/call hooks, not State's public
// nonce/commit surface. A *State implements this and is handed to
// CodeRunner.Run at the start of every Create/Call.
type VMStateDB interface {
	GetBalance(addr common.Address) *big.Int
	GetState(addr common.Address, key common.Hash) common.Hash
	SetState(addr common.Address, key, value common.Hash)
	GetCode(addr common.Address) []byte
	SetCode(addr common.Address, code []byte)
	Exist(addr common.Address) bool

	// Create and Call let the interpreter re-enter the state engine for
	// nested CREATE/CALL opcodes; depth is bounded by params.CallCreateDepth.
	Create(sender common.Address, endowment *big.Int, gas uint64, code []byte) (common.Address, uint64, error)
	Call(target, sender common.Address, value *big.Int, data []byte, gas uint64) ([]byte, uint64, error)
}

// CodeRunner is the seam to the EVM byte-code interpreter, which spec.md
// §1 explicitly places out of scope: Run is handed the code being
// executed, its input, a gas budget, and the privileged capability
// object, and returns the output and what's left of the gas.
type CodeRunner interface {
	Run(cap VMStateDB, code, input []byte, gas uint64) (ret []byte, gasLeft uint64, err error)
}

// NullRunner is the default CodeRunner wired when a State isn't given an
// interpreter of its own: it treats every call/create as a plain value
// transfer that consumes no extra gas and deploys no code, which is
// enough to exercise gas accounting and balance transfer without
// depending on the (out-of-scope) EVM. Tests that need contract storage
// effects substitute a scripted CodeRunner.
type NullRunner struct{}

func (NullRunner) Run(_ VMStateDB, _, _ []byte, gas uint64) ([]byte, uint64, error) {
	return nil, gas, nil
}
