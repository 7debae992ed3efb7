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

package statedb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// hasher collapses a node tree into its canonical hashes, replacing any
// subtree whose RLP encoding is 32 bytes or longer with a hashNode pointing
// at it, and leaving shorter subtrees embedded inline - the same rule the
// reference MPT spec uses to decide what gets its own database entry.
type hasher struct {
	tmp    []byte
	sha    []byte
	onleaf LeafCallback
}

// LeafCallback is invoked by Commit for every resolved leaf (account) node
// right after it is hashed, so callers can thread extra work (e.g. queuing
// the account's own storage root for a nested commit) through the same walk.
type LeafCallback func(leaf []byte, parent common.Hash) error

func newHasher(onleaf LeafCallback) *hasher {
	return &hasher{onleaf: onleaf}
}

// hash returns the (possibly embedded) hashed form of n, and - when force
// or the encoding is >= 32 bytes - the cached node with its hash recorded
// so Commit doesn't need to recompute it.
func (h *hasher) hash(n node, db *Database, force bool) (node, node, error) {
	if hash, dirty := n.cache(); hash != nil && !dirty {
		return hash, n, nil
	}
	collapsed, cached, err := h.hashChildren(n, db)
	if err != nil {
		return hashNode{}, n, err
	}
	hashed, err := h.store(collapsed, db, force)
	if err != nil {
		return hashNode{}, n, err
	}
	cachedHash, _ := hashed.(hashNode)
	switch cn := cached.(type) {
	case *shortNode:
		cn.flags.hash = cachedHash
		if db != nil {
			cn.flags.dirty = false
		}
	case *fullNode:
		cn.flags.hash = cachedHash
		if db != nil {
			cn.flags.dirty = false
		}
	}
	return hashed, cached, nil
}

func (h *hasher) hashChildren(original node, db *Database) (node, node, error) {
	var err error
	switch n := original.(type) {
	case *shortNode:
		collapsed, cached := n.copy(), n.copy()
		collapsed.Key = hexToCompact(n.Key)
		cached.Key = append([]byte(nil), n.Key...)

		if _, ok := n.Val.(valueNode); !ok {
			collapsed.Val, cached.Val, err = h.hash(n.Val, db, false)
			if err != nil {
				return original, original, err
			}
		}
		return collapsed, cached, nil
	case *fullNode:
		collapsed, cached := n.copy(), n.copy()
		for i := 0; i < 16; i++ {
			if n.Children[i] != nil {
				collapsed.Children[i], cached.Children[i], err = h.hash(n.Children[i], db, false)
				if err != nil {
					return original, original, err
				}
			}
		}
		cached.Children[16] = n.Children[16]
		return collapsed, cached, nil
	default:
		return n, original, nil
	}
}

func (h *hasher) store(n node, db *Database, force bool) (node, error) {
	if _, isHash := n.(hashNode); n == nil || isHash {
		return n, nil
	}
	h.tmp = h.tmp[:0]
	if err := rlp.Encode(sliceWriter{&h.tmp}, n); err != nil {
		panic("encode error: " + err.Error())
	}
	if len(h.tmp) < 32 && !force {
		return n, nil
	}
	hash := h.makeHashNode(h.tmp)

	if db != nil {
		switch n := n.(type) {
		case *shortNode:
			n.flags.hash = hash
		case *fullNode:
			n.flags.hash = hash
		}
		if h.onleaf != nil {
			if sn, ok := n.(*shortNode); ok {
				if vn, ok := sn.Val.(valueNode); ok {
					if err := h.onleaf(vn, common.BytesToHash(hash)); err != nil {
						return nil, err
					}
				}
			}
		}
		if err := db.insert(hash, h.tmp); err != nil {
			return nil, err
		}
	}
	return hash, nil
}

func (h *hasher) makeHashNode(data []byte) hashNode {
	return hashNode(crypto.Keccak256(data))
}

type sliceWriter struct{ b *[]byte }

func (w sliceWriter) Write(p []byte) (int, error) {
	*w.b = append(*w.b, p...)
	return len(p), nil
}
