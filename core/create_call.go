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
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ground-x/ledgerstate/params"
)

// errDepthExceeded guards the re-entrancy bound of spec.md §9: nested
// calls share the same cache, so depth (not stack memory) is what must
// be bounded.
var errDepthExceeded = errors.New("core: call/create depth exceeded")

// ErrCallReverted is returned by Create/Call instead of a plain error
// when the inner code run faults or runs out of gas. spec.md §7 treats
// this as a normal execution outcome, not an engine error: the cache
// changes the failing frame made are reverted, but the enclosing
// transaction still applies and consumes all its gas. Callers check for
// it with errors.Is rather than treating it as a hard failure.
var ErrCallReverted = errors.New("core: call reverted")

// Create is spec.md §4.4 create: derive the new contract's address from
// sender and sender's current nonce minus one (execute has already counted
// the creating transaction; 0 when the nonce is still 0) - Create itself
// does not advance the nonce - transfer endowment to it,
// then run code as the init program - its return value becomes the
// deployed code. Create is re-entrant: the EVM's CREATE opcode reaches it
// again through the VMStateDB capability handed to CodeRunner.Run, and
// every nested frame gets its own cache snapshot/restore so an
// out-of-gas/fault frame reverts only what it touched, per spec.md §4.4's
// "Both operations are re-entrant ... nested calls read and mutate the
// same cache". Create does not take State's lock: it runs under whatever
// top-level mutation (Execute) already holds it.
func (s *State) Create(sender common.Address, endowment *big.Int, gas uint64, code []byte) (common.Address, uint64, error) {
	if uint64(s.callDepth) >= params.CallCreateDepth {
		return common.Address{}, gas, errDepthExceeded
	}
	s.callDepth++
	defer func() { s.callDepth-- }()

	nonce := s.db.TransactionsFrom(sender)
	var newAddr common.Address
	if nonce == 0 {
		newAddr = createAddress(sender, 0)
	} else {
		newAddr = createAddress(sender, nonce-1)
	}

	snap := s.db.Snapshot()
	if err := s.transfer(sender, newAddr, endowment); err != nil {
		s.db.RevertToSnapshot(snap)
		return common.Address{}, gas, err
	}

	ret, gasLeft, runErr := s.runner.Run(s, code, nil, gas)
	if runErr != nil {
		// Insufficient gas (or any other VM fault) during deployment
		// leaves no account: spec.md §4.4.
		s.db.RevertToSnapshot(snap)
		return common.Address{}, gasLeft, ErrCallReverted
	}
	s.db.SetCode(newAddr, ret)
	return newAddr, gasLeft, nil
}

// Call is spec.md §4.4 call: transfer value from sender to target, and if
// target has code, invoke it with data as input. ret is the (possibly
// empty) return data. err is ErrCallReverted, not a real error, when the
// run faulted or ran out of gas - spec.md's "returns false exactly when
// the call exhausted its gas budget".
func (s *State) Call(target, sender common.Address, value *big.Int, data []byte, gas uint64) ([]byte, uint64, error) {
	if uint64(s.callDepth) >= params.CallCreateDepth {
		return nil, gas, errDepthExceeded
	}
	s.callDepth++
	defer func() { s.callDepth-- }()

	snap := s.db.Snapshot()
	if err := s.transfer(sender, target, value); err != nil {
		s.db.RevertToSnapshot(snap)
		return nil, gas, err
	}

	code := s.db.Code(target)
	if len(code) == 0 {
		return nil, gas, nil
	}

	ret, gasLeft, runErr := s.runner.Run(s, code, data, gas)
	if runErr != nil {
		s.db.RevertToSnapshot(snap)
		return nil, gasLeft, ErrCallReverted
	}
	return ret, gasLeft, nil
}

// CallInto is the top-level shape of call spec.md §4.4 describes: the
// return slice is copied into a fixed-size out buffer (truncated to its
// length) and the result collapses to the plain success/exhausted bool
// the spec's pseudo-signature returns.
func (s *State) CallInto(target, sender common.Address, value *big.Int, data []byte, gas uint64, out []byte) (bool, uint64, error) {
	ret, gasLeft, err := s.Call(target, sender, value, data, gas)
	if errors.Is(err, ErrCallReverted) {
		return false, gasLeft, nil
	}
	if err != nil {
		return false, gasLeft, err
	}
	if out != nil {
		copy(out, ret)
	}
	return true, gasLeft, nil
}

// transfer moves amount from one account to another as a single
// journaled step; a failed SubBalance leaves both sides untouched.
func (s *State) transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	if err := s.db.SubBalance(from, amount); err != nil {
		return err
	}
	s.db.AddBalance(to, amount)
	return nil
}

// createAddress is spec.md §4.4: keccak(rlp([sender, sender_nonce]))[12:].
func createAddress(sender common.Address, nonce uint64) common.Address {
	data, _ := rlp.EncodeToBytes([]interface{}{sender, nonce})
	return common.BytesToAddress(crypto.Keccak256(data)[12:])
}

// --- VMStateDB: the privileged capability object handed to a CodeRunner ---

func (s *State) GetBalance(addr common.Address) *big.Int { return s.db.Balance(addr) }

func (s *State) GetState(addr common.Address, key common.Hash) common.Hash {
	return s.db.Storage(addr, key)
}

func (s *State) SetState(addr common.Address, key, value common.Hash) {
	s.db.SetStorage(addr, key, value)
}

func (s *State) GetCode(addr common.Address) []byte { return s.db.Code(addr) }

func (s *State) SetCode(addr common.Address, code []byte) { s.db.SetCode(addr, code) }

func (s *State) Exist(addr common.Address) bool { return s.db.AddressInUse(addr) }
