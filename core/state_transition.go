// Copyright 2018 The klaytn Authors
// Copyright 2014 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.
//
// This file is derived from core/state_transition.go (2018/06/04), pared
// down to the plain value-transfer/contract-creation model spec.md
// describes (no fee delegation, no governance-deferred fees).

package core

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/ground-x/ledgerstate/core/kerrors"
	"github.com/ground-x/ledgerstate/core/types"
)

// IntrinsicGas is spec.md §4.3 step 3: dataGas*len(data) plus the
// creation or call base cost, depending on whether this transaction
// creates a contract. Like go-ethereum, zero and non-zero calldata bytes
// are charged at different rates.
func (s *State) IntrinsicGas(tx *types.Transaction) uint64 {
	gas := s.config.CallBaseGas
	if tx.To() == nil {
		gas = s.config.CreationBaseGas
	}
	for _, b := range tx.Data() {
		if b == 0 {
			gas += s.config.TxDataZeroGas
		} else {
			gas += s.config.TxDataNonZeroGas
		}
	}
	return gas
}

// Execute is spec.md §4.3: decode (already done - tx arrives decoded),
// validate signature/nonce/intrinsic gas, prepay gas, dispatch to
// Create/Call with a working gas counter, refund what's unused, and
// record the transaction as pending. Any returned error means no state
// changed; the caller drops the transaction (spec.md §7).
func (s *State) Execute(tx *types.Transaction) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.execute(tx)
}

// execute is the unlocked implementation Execute and Playback (which
// already holds the lock across a whole block) share.
func (s *State) execute(tx *types.Transaction) error {
	if err := s.checkPoisoned(); err != nil {
		return err
	}

	sender, err := tx.Sender()
	if err != nil {
		return errors.WithStack(err)
	}

	// Idempotent against re-submission of a transaction already folded
	// into this candidate - the dedup set of spec.md §4.3 step 8.
	if s.db.HasPending(tx.Hash()) {
		return nil
	}

	expected := s.db.TransactionsFrom(sender)
	switch {
	case tx.Nonce() < expected:
		txRejectedCounter.Inc(1)
		return errors.WithStack(kerrors.ErrNonceTooLow)
	case tx.Nonce() > expected:
		txRejectedCounter.Inc(1)
		return errors.WithStack(kerrors.ErrNonceTooHigh)
	}

	intrinsic := s.IntrinsicGas(tx)
	if tx.Gas() < intrinsic {
		txRejectedCounter.Inc(1)
		return errors.WithStack(kerrors.ErrOutOfGasIntrinsic)
	}

	cost := new(big.Int).Mul(new(big.Int).SetUint64(tx.Gas()), tx.GasPrice())
	if s.db.Balance(sender).Cmp(cost) < 0 {
		txRejectedCounter.Inc(1)
		return errors.WithStack(kerrors.ErrInsufficientBalance)
	}

	// Everything from here mutates the cache (gas prepay, nonce) before
	// Create/Call even runs. A fault that isn't ErrCallReverted - most
	// notably the value transfer itself failing on insufficient balance -
	// means the transaction as a whole is rejected per spec.md §7/§8 S2
	// ("state unchanged"), not merely that one frame. Snapshot here so
	// that path can undo the prepay and nonce bump along with whatever
	// Create/Call already touched.
	snap := s.db.Snapshot()

	if err := s.db.SubBalance(sender, cost); err != nil {
		s.db.RevertToSnapshot(snap)
		txRejectedCounter.Inc(1)
		return errors.WithStack(kerrors.ErrInsufficientBalance)
	}

	s.db.NoteSending(sender)

	gas := tx.Gas() - intrinsic
	var gasLeft uint64
	if tx.To() == nil {
		_, gasLeft, err = s.Create(sender, tx.Value(), gas, tx.Data())
	} else {
		_, gasLeft, err = s.Call(*tx.To(), sender, tx.Value(), tx.Data(), gas)
	}
	if err != nil {
		if !errors.Is(err, ErrCallReverted) {
			// Not a frame fault but a rejection of the transaction
			// itself (e.g. the outermost value transfer couldn't
			// afford its own balance check) - undo the gas prepay
			// and nonce bump too, so the transaction leaves no trace.
			s.db.RevertToSnapshot(snap)
			txRejectedCounter.Inc(1)
			return err
		}
		// spec.md §7: OutOfGas/VM fault is a normal outcome, not an
		// error - the transaction still applies, having consumed all
		// the gas it was given.
		gasLeft = 0
	}

	s.db.AddBalance(sender, new(big.Int).Mul(new(big.Int).SetUint64(gasLeft), tx.GasPrice()))
	used := tx.Gas() - gasLeft
	s.db.AddBalance(s.currentBlock.Coinbase, new(big.Int).Mul(new(big.Int).SetUint64(used), tx.GasPrice()))

	s.db.RecordTransaction(tx.Hash(), sender)
	s.currentTxs = append(s.currentTxs, tx)
	txExecutedCounter.Inc(1)
	return nil
}
