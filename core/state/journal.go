// Copyright 2017 The go-ethereum Authors
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

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// journalEntry is one undoable mutation. revert restores the StateDB to
// how it looked immediately before the entry was recorded - this is the
// "savepoint/restore over the cache at each frame" of spec.md §4.4.
type journalEntry interface {
	revert(*StateDB)
	dirtied() *common.Address
}

// journal is a linear undo log; RevertToSnapshot replays entries in
// reverse order down to a previously recorded length, exactly the same
// mechanism go-ethereum-family state databases use for per-call-frame
// rollback.
type journal struct {
	entries []journalEntry
	dirties map[common.Address]int // address -> number of changes
}

func newJournal() *journal {
	return &journal{dirties: make(map[common.Address]int)}
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
	if addr := entry.dirtied(); addr != nil {
		j.dirties[*addr]++
	}
}

// revert undoes every entry recorded after snapshot, in reverse order.
func (j *journal) revert(s *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(s)
		if addr := j.entries[i].dirtied(); addr != nil {
			if j.dirties[*addr]--; j.dirties[*addr] == 0 {
				delete(j.dirties, *addr)
			}
		}
	}
	j.entries = j.entries[:snapshot]
}

func (j *journal) length() int { return len(j.entries) }

type (
	createObjectChange struct {
		account *common.Address
	}
	balanceChange struct {
		account *common.Address
		prev    *big.Int
	}
	nonceChange struct {
		account *common.Address
		prev    uint64
	}
	storageChange struct {
		account      *common.Address
		key, prevalue common.Hash
	}
	codeChange struct {
		account            *common.Address
		prevcode, prevhash []byte
	}
	suicideChange struct {
		account     *common.Address
		prevAlive   bool
		prevbalance *big.Int
	}
	touchChange struct {
		account *common.Address
	}
)

func (ch createObjectChange) revert(s *StateDB) {
	delete(s.cache, *ch.account)
}
func (ch createObjectChange) dirtied() *common.Address { return ch.account }

func (ch balanceChange) revert(s *StateDB) {
	s.cache[*ch.account].setBalance(ch.prev)
}
func (ch balanceChange) dirtied() *common.Address { return ch.account }

func (ch nonceChange) revert(s *StateDB) {
	s.cache[*ch.account].setNonce(ch.prev)
}
func (ch nonceChange) dirtied() *common.Address { return ch.account }

func (ch storageChange) revert(s *StateDB) {
	s.cache[*ch.account].setStorageDelta(ch.key, ch.prevalue)
}
func (ch storageChange) dirtied() *common.Address { return ch.account }

func (ch codeChange) revert(s *StateDB) {
	s.cache[*ch.account].setCode(common.BytesToHash(ch.prevhash), ch.prevcode)
}
func (ch codeChange) dirtied() *common.Address { return ch.account }

func (ch suicideChange) revert(s *StateDB) {
	obj := s.cache[*ch.account]
	obj.alive = ch.prevAlive
	obj.data.Balance = ch.prevbalance
}
func (ch suicideChange) dirtied() *common.Address { return ch.account }

func (ch touchChange) revert(s *StateDB)           {}
func (ch touchChange) dirtied() *common.Address    { return ch.account }
