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

package statedb

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ground-x/ledgerstate/storage/database"
)

// emptyRoot is the known root hash of an empty trie, i.e. RLP(empty string).
var emptyRoot = common.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

// ErrNotFound is returned (wrapped) by New, TryGet, the mutating methods,
// Prove and NodeIterator when a hash node can't be resolved from the
// database. A key that is simply absent from the trie is not an error.
var ErrNotFound = errors.New("statedb: node not found in database")

// Trie is a Merkle-Patricia trie: an authenticated key/value mapping whose
// Hash is a cryptographic digest of every key and value stored in it.
type Trie struct {
	db   *Database
	root node

	originalRoot common.Hash
}

// New creates a Trie rooted at root. An all-zero root opens an empty trie;
// any other root must already be resolvable through db or New returns an
// error - callers should never silently start mining atop a trie they
// couldn't actually load.
func New(root common.Hash, db *Database) (*Trie, error) {
	if db == nil {
		panic("statedb.New called with nil database")
	}
	trie := &Trie{db: db, originalRoot: root}
	if root != (common.Hash{}) && root != emptyRoot {
		rootnode, err := trie.resolveHash(root[:])
		if err != nil {
			return nil, err
		}
		trie.root = rootnode
	}
	return trie, nil
}

// NodeIterator returns an iterator over the trie's key/value pairs whose
// keys are >= start (in hex-nibble order).
func (t *Trie) NodeIterator(start []byte) NodeIterator {
	return newNodeIterator(t, start)
}

// GetKey is the identity function for a raw Trie; SecureTrie overrides it
// to recover the original key from its keccak digest.
func (t *Trie) GetKey(shaKey []byte) []byte {
	return shaKey
}

// TryGet returns the value stored for key, or nil if the key isn't present.
func (t *Trie) TryGet(key []byte) ([]byte, error) {
	value, newroot, didResolve, err := t.tryGet(t.root, keybytesToHex(key), 0)
	if err == nil && didResolve {
		t.root = newroot
	}
	return value, err
}

func (t *Trie) tryGet(origNode node, key []byte, pos int) (value []byte, newnode node, didResolve bool, err error) {
	switch n := origNode.(type) {
	case nil:
		return nil, nil, false, nil
	case valueNode:
		return n, n, false, nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !bytesEqual(n.Key, key[pos:pos+len(n.Key)]) {
			return nil, n, false, nil
		}
		value, newnode, didResolve, err = t.tryGet(n.Val, key, pos+len(n.Key))
		if err == nil && didResolve {
			n = n.copy()
			n.Val = newnode
		}
		return value, n, didResolve, err
	case *fullNode:
		value, newnode, didResolve, err = t.tryGet(n.Children[key[pos]], key, pos+1)
		if err == nil && didResolve {
			n = n.copy()
			n.Children[key[pos]] = newnode
		}
		return value, n, didResolve, err
	case hashNode:
		child, err := t.resolveHash(n)
		if err != nil {
			return nil, n, true, err
		}
		value, newnode, _, err := t.tryGet(child, key, pos)
		return value, newnode, true, err
	default:
		panic(fmt.Sprintf("invalid node: %v", origNode))
	}
}

// TryUpdate associates value with key, inserting the key if it wasn't
// already present. Storing an empty value is equivalent to TryDelete.
func (t *Trie) TryUpdate(key, value []byte) error {
	k := keybytesToHex(key)
	if len(value) != 0 {
		_, n, err := t.insert(t.root, nil, k, valueNode(value))
		if err != nil {
			return err
		}
		t.root = n
	} else {
		_, n, err := t.delete(t.root, nil, k)
		if err != nil {
			return err
		}
		t.root = n
	}
	return nil
}

func (t *Trie) insert(n node, prefix, key []byte, value node) (bool, node, error) {
	if len(key) == 0 {
		if v, ok := n.(valueNode); ok {
			return !bytesEqual(v, value.(valueNode)), value, nil
		}
		return true, value, nil
	}
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen == len(n.Key) {
			dirty, nn, err := t.insert(n.Val, append(prefix, key[:matchlen]...), key[matchlen:], value)
			if !dirty || err != nil {
				return false, n, err
			}
			return true, &shortNode{n.Key, nn, nodeFlag{dirty: true}}, nil
		}
		branch := &fullNode{flags: nodeFlag{dirty: true}}
		var err error
		_, branch.Children[n.Key[matchlen]], err = t.insert(nil, append(prefix, n.Key[:matchlen+1]...), n.Key[matchlen+1:], n.Val)
		if err != nil {
			return false, nil, err
		}
		_, branch.Children[key[matchlen]], err = t.insert(nil, append(prefix, key[:matchlen+1]...), key[matchlen+1:], value)
		if err != nil {
			return false, nil, err
		}
		if matchlen == 0 {
			return true, branch, nil
		}
		return true, &shortNode{key[:matchlen], branch, nodeFlag{dirty: true}}, nil

	case *fullNode:
		dirty, nn, err := t.insert(n.Children[key[0]], append(prefix, key[0]), key[1:], value)
		if !dirty || err != nil {
			return false, n, err
		}
		n = n.copy()
		n.flags.dirty = true
		n.Children[key[0]] = nn
		return true, n, nil

	case nil:
		return true, &shortNode{append([]byte(nil), key...), value, nodeFlag{dirty: true}}, nil

	case hashNode:
		rn, err := t.resolveHash(n)
		if err != nil {
			return false, nil, err
		}
		dirty, nn, err := t.insert(rn, prefix, key, value)
		if !dirty || err != nil {
			return false, rn, err
		}
		return true, nn, nil

	default:
		panic(fmt.Sprintf("invalid node: %v", n))
	}
}

// TryDelete removes key from the trie; it is a no-op if the key is absent.
func (t *Trie) TryDelete(key []byte) error {
	k := keybytesToHex(key)
	_, n, err := t.delete(t.root, nil, k)
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) delete(n node, prefix, key []byte) (bool, node, error) {
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen < len(n.Key) {
			return false, n, nil
		}
		if matchlen == len(key) {
			return true, nil, nil
		}
		dirty, child, err := t.delete(n.Val, append(prefix, key[:len(n.Key)]...), key[len(n.Key):])
		if !dirty || err != nil {
			return false, n, err
		}
		switch child := child.(type) {
		case *shortNode:
			return true, &shortNode{concat(n.Key, child.Key...), child.Val, nodeFlag{dirty: true}}, nil
		default:
			return true, &shortNode{n.Key, child, nodeFlag{dirty: true}}, nil
		}

	case *fullNode:
		dirty, nn, err := t.delete(n.Children[key[0]], append(prefix, key[0]), key[1:])
		if !dirty || err != nil {
			return false, n, err
		}
		n = n.copy()
		n.flags.dirty = true
		n.Children[key[0]] = nn

		pos := -1
		for i, cld := range &n.Children {
			if cld != nil {
				if pos == -1 {
					pos = i
				} else {
					pos = -2
					break
				}
			}
		}
		if pos >= 0 {
			if pos != 16 {
				cnode, err := t.resolve(n.Children[pos], prefix)
				if err != nil {
					return false, nil, err
				}
				if cnode, ok := cnode.(*shortNode); ok {
					k := append([]byte{byte(pos)}, cnode.Key...)
					return true, &shortNode{k, cnode.Val, nodeFlag{dirty: true}}, nil
				}
			}
			return true, &shortNode{[]byte{byte(pos)}, n.Children[pos], nodeFlag{dirty: true}}, nil
		}
		return true, n, nil

	case valueNode:
		return true, nil, nil

	case nil:
		return false, nil, nil

	case hashNode:
		rn, err := t.resolveHash(n)
		if err != nil {
			return false, nil, err
		}
		dirty, nn, err := t.delete(rn, prefix, key)
		if !dirty || err != nil {
			return false, rn, err
		}
		return true, nn, nil

	default:
		panic(fmt.Sprintf("invalid node: %v", n))
	}
}

func (t *Trie) resolve(n node, prefix []byte) (node, error) {
	if n, ok := n.(hashNode); ok {
		return t.resolveHash(n)
	}
	return n, nil
}

func (t *Trie) resolveHash(n hashNode) (node, error) {
	var h common.Hash
	copy(h[:], n)
	blob, err := t.db.Node(n)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", ErrNotFound, err)
	}
	return mustDecodeNode(n, blob), nil
}

// Hash returns the trie's root hash without writing anything to the
// database - repeated calls before Commit always recompute it, since
// intermediate mutations keep the tree marked dirty.
func (t *Trie) Hash() common.Hash {
	if t.root == nil {
		return emptyRoot
	}
	hash, cached, _ := newHasher(nil).hash(t.root, nil, true)
	t.root = cached
	var out common.Hash
	if h, ok := hash.(hashNode); ok {
		copy(out[:], h)
	} else {
		return emptyRoot
	}
	return out
}

// Commit writes every dirty node to the database and returns the new root
// hash. onleaf, if non-nil, is invoked once per resolved leaf value.
func (t *Trie) Commit(onleaf LeafCallback) (common.Hash, error) {
	if t.db == nil {
		panic("Commit called on trie with nil database")
	}
	if t.root == nil {
		t.originalRoot = emptyRoot
		return emptyRoot, nil
	}
	hash, cached, err := newHasher(onleaf).hash(t.root, t.db, true)
	if err != nil {
		return common.Hash{}, err
	}
	t.root = cached
	var out common.Hash
	if h, ok := hash.(hashNode); ok {
		copy(out[:], h)
	} else {
		out = emptyRoot
	}
	t.originalRoot = out
	return out, nil
}

// Copy returns an independent copy of the trie sharing the underlying
// database but not its in-memory node tree.
func (t *Trie) Copy() *Trie {
	return &Trie{db: t.db, root: t.root, originalRoot: t.originalRoot}
}

// Prove writes the Merkle proof for key (every node on the path from the
// root) into proofDb, keyed by the node's own hash.
func (t *Trie) Prove(key []byte, fromLevel uint, proofDb database.Putter) error {
	hexKey := keybytesToHex(key)
	var nodes []node
	tn := t.root
	for len(hexKey) > 0 && tn != nil {
		switch n := tn.(type) {
		case *shortNode:
			if len(hexKey) < len(n.Key) || !bytesEqual(n.Key, hexKey[:len(n.Key)]) {
				tn = nil
			} else {
				tn = n.Val
				hexKey = hexKey[len(n.Key):]
			}
			nodes = append(nodes, n)
		case *fullNode:
			tn = n.Children[hexKey[0]]
			hexKey = hexKey[1:]
			nodes = append(nodes, n)
		case hashNode:
			var err error
			tn, err = t.resolveHash(n)
			if err != nil {
				return err
			}
		default:
			panic(fmt.Sprintf("invalid node: %v", tn))
		}
	}
	h := newHasher(nil)
	for i, n := range nodes {
		if fromLevel > 0 {
			fromLevel--
			continue
		}
		collapsed, _, _ := h.hashChildren(n, nil)
		hashed, _ := h.store(collapsed, nil, false)
		if hash, ok := hashed.(hashNode); ok || i == 0 {
			enc, err := nodeToRLP(collapsed)
			if err != nil {
				return err
			}
			var key []byte
			if ok {
				key = hash
			} else {
				key = []byte(fmt.Sprintf("embedded-%d", i))
			}
			proofDb.Put(key, enc)
		}
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func concat(s1 []byte, s2 ...byte) []byte {
	r := make([]byte, len(s1)+len(s2))
	copy(r, s1)
	copy(r[len(s1):], s2)
	return r
}
