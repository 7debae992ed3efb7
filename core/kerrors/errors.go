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

// Package kerrors collects the sentinel errors the state engine returns,
// so callers can discriminate failure kinds with errors.Is/As instead of
// string matching.
package kerrors

import "github.com/pkg/errors"

var (
	// ErrInsufficientBalance is returned by subBalance and by the
	// gas-prepay / value-transfer steps of execute when the sender's
	// balance is less than the amount requested.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNonceTooLow is returned by execute when the transaction's nonce
	// is behind transactionsFrom(sender).
	ErrNonceTooLow = errors.New("nonce too low")

	// ErrNonceTooHigh is returned by execute when the transaction's nonce
	// is ahead of transactionsFrom(sender).
	ErrNonceTooHigh = errors.New("nonce too high")

	// ErrOutOfGasIntrinsic is returned when a transaction's gas limit is
	// below its own intrinsic cost before any execution happens.
	ErrOutOfGasIntrinsic = errors.New("intrinsic gas exceeds gas limit")

	// ErrInvalidBlock wraps a header/uncle verification failure during
	// playback; the reason is attached via errors.Wrap at the call site.
	ErrInvalidBlock = errors.New("invalid block")

	// ErrDatabaseFailure marks an overlay I/O error. It is fatal: the
	// State instance that surfaces it must be discarded by the caller.
	ErrDatabaseFailure = errors.New("database failure")

	// ErrTooManyUncles is returned by playback when a block names more
	// than params.MaxUncles uncles.
	ErrTooManyUncles = errors.New("too many uncles")

	// ErrDuplicateUncle is returned by playback when a block names the
	// same uncle more than once.
	ErrDuplicateUncle = errors.New("duplicate uncle")

	// ErrUncleIsAncestor is returned by playback when an uncle is itself
	// one of the including block's own ancestors, is not 1 to 7 blocks
	// behind the including block, or has a parent that is not an
	// ancestor of the including block.
	ErrUncleIsAncestor = errors.New("uncle is ancestor")

	// ErrInvalidNumber is returned by playback when a block's number
	// doesn't immediately follow its stated parent.
	ErrInvalidNumber = errors.New("invalid block number")

	// ErrInvalidTimestamp is returned when a block's timestamp doesn't
	// strictly follow its parent's.
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrInvalidDifficulty is returned when a block's difficulty doesn't
	// match the retargeting rule applied to its parent.
	ErrInvalidDifficulty = errors.New("invalid difficulty")

	// ErrGasLimitOutOfBounds is returned when a block's gas limit moves
	// by more than the bound divisor from its parent's.
	ErrGasLimitOutOfBounds = errors.New("gas limit out of bounds")

	// ErrStateRootMismatch is returned by playback when the post-execution
	// trie root doesn't match the block's declared state root.
	ErrStateRootMismatch = errors.New("state root mismatch")

	// ErrPoisonedState is returned by a State's Execute, Sync, SyncQueue,
	// Cull, Playback, CommitToMine and Mine once it has observed
	// ErrDatabaseFailure; it never recovers.
	ErrPoisonedState = errors.New("state instance poisoned by prior database failure")

	// ErrBlockNotSealed is returned by Mine when CommitToMine has not yet
	// frozen a candidate to search a nonce for.
	ErrBlockNotSealed = errors.New("candidate block not sealed; call commitToMine first")
)
