// Copyright 2015 The go-ethereum Authors
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

package statedb

import "bytes"

// NodeIterator walks a trie's key/value pairs in key order, except that a
// key which is a prefix of other stored keys comes after them. Next advances
// to the next leaf; Key/Value/Error report the current position. It is
// used by full-state iteration (e.g. a snapshot export) rather than by the
// hot account/storage read path, which always goes through TryGet.
type NodeIterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
}

type nodeIteratorState struct {
	node   node
	parent *nodeIteratorState
	index  int // next child index to descend into for a fullNode
	key    []byte
}

type nodeIterator struct {
	trie  *Trie
	stack []*nodeIteratorState
	key   []byte
	value []byte
	err   error
	start []byte
}

func newNodeIterator(trie *Trie, start []byte) NodeIterator {
	it := &nodeIterator{trie: trie, start: start}
	if trie.root != nil {
		it.stack = append(it.stack, &nodeIteratorState{node: trie.root})
	}
	return it
}

func (it *nodeIterator) Key() []byte   { return it.key }
func (it *nodeIterator) Value() []byte { return it.value }
func (it *nodeIterator) Error() error  { return it.err }

// Next performs a depth-first walk, yielding every valueNode reached.
// Hash-only nodes are resolved through the trie's database on the fly.
func (it *nodeIterator) Next() bool {
	for len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]
		switch n := top.node.(type) {
		case hashNode:
			resolved, err := it.trie.resolveHash(n)
			if err != nil {
				it.err = err
				return false
			}
			top.node = resolved
			continue
		case *shortNode:
			if top.index == 0 {
				top.index++
				it.stack = append(it.stack, &nodeIteratorState{
					node: n.Val,
					key:  concat(top.key, n.Key...),
				})
				continue
			}
			it.stack = it.stack[:len(it.stack)-1]
		case *fullNode:
			descended := false
			for top.index < 17 {
				i := top.index
				top.index++
				if n.Children[i] == nil {
					continue
				}
				var childKey []byte
				if i < 16 {
					childKey = concat(top.key, byte(i))
				} else {
					childKey = top.key
				}
				it.stack = append(it.stack, &nodeIteratorState{
					node: n.Children[i],
					key:  childKey,
				})
				descended = true
				break
			}
			if !descended {
				it.stack = it.stack[:len(it.stack)-1]
			}
		case valueNode:
			it.stack = it.stack[:len(it.stack)-1]
			key := hexToKeybytes(top.key)
			if bytes.Compare(key, it.start) < 0 {
				continue
			}
			it.key = key
			it.value = append([]byte(nil), n...)
			return true
		default:
			it.stack = it.stack[:len(it.stack)-1]
		}
	}
	return false
}
