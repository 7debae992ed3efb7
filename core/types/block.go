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

package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// Header is BlockInfo: everything a block commits to except its body.
type Header struct {
	ParentHash  common.Hash
	UncleHash   common.Hash
	Coinbase    common.Address
	Root        common.Hash // world state root
	TxHash      common.Hash // root of the transaction list
	Difficulty  *big.Int
	Number      *big.Int
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
	MixDigest   common.Hash
	Nonce       BlockNonce
}

// BlockNonce is the 8-byte proof-of-work nonce.
type BlockNonce [8]byte

func EncodeNonce(i uint64) BlockNonce {
	var n BlockNonce
	for i2 := 0; i2 < 8; i2++ {
		n[i2] = byte(i >> uint(56-i2*8))
	}
	return n
}

func (n BlockNonce) Uint64() uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(n[i])
	}
	return v
}

// Hash returns the keccak256 RLP hash of the header - the value uncles,
// parent links, and PoW all commit to.
func (h *Header) Hash() common.Hash {
	return rlpHash(h)
}

// HashNoNonce is the value the proof-of-work search hashes against; it
// excludes MixDigest and Nonce, the two fields the search itself produces.
func (h *Header) HashNoNonce() common.Hash {
	cpy := *h
	cpy.MixDigest = common.Hash{}
	cpy.Nonce = BlockNonce{}
	return rlpHash(&cpy)
}

func (h *Header) Copy() *Header {
	cpy := *h
	if h.Difficulty != nil {
		cpy.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if h.Number != nil {
		cpy.Number = new(big.Int).Set(h.Number)
	}
	if len(h.Extra) > 0 {
		cpy.Extra = append([]byte(nil), h.Extra...)
	}
	return &cpy
}

func rlpHash(v interface{}) common.Hash {
	b, err := rlp.EncodeToBytes(v)
	if err != nil {
		panic(err)
	}
	return common.BytesToHash(crypto.Keccak256(b))
}

// Body is a block's uncommitted-to-header content: its transaction list
// and the headers of the uncles it includes.
type Body struct {
	Transactions []*Transaction
	Uncles       []*Header
}

// Block couples a Header with its Body. Block is immutable once built;
// playback works from a decoded Block and never mutates it in place.
type Block struct {
	header       *Header
	transactions Transactions
	uncles       []*Header

	hash common.Hash
}

func NewBlock(header *Header, txs []*Transaction, uncles []*Header) *Block {
	b := &Block{header: header.Copy()}
	if len(txs) == 0 {
		b.header.TxHash = EmptyRootHash
	} else {
		b.header.TxHash = DeriveTxsHash(txs)
		b.transactions = make(Transactions, len(txs))
		copy(b.transactions, txs)
	}
	if len(uncles) == 0 {
		b.header.UncleHash = EmptyUncleHash
	} else {
		b.header.UncleHash = DeriveUnclesHash(uncles)
		b.uncles = make([]*Header, len(uncles))
		for i := range uncles {
			b.uncles[i] = uncles[i].Copy()
		}
	}
	return b
}

// NewBlockWithHeader wraps header with an empty body; the caller is
// expected to attach a body separately (used while assembling a candidate
// before its transaction/uncle lists are finalized).
func NewBlockWithHeader(header *Header) *Block {
	return &Block{header: header.Copy()}
}

func (b *Block) Header() *Header             { return b.header.Copy() }
func (b *Block) Number() *big.Int            { return new(big.Int).Set(b.header.Number) }
func (b *Block) NumberU64() uint64           { return b.header.Number.Uint64() }
func (b *Block) Difficulty() *big.Int        { return new(big.Int).Set(b.header.Difficulty) }
func (b *Block) Time() uint64                { return b.header.Time }
func (b *Block) ParentHash() common.Hash     { return b.header.ParentHash }
func (b *Block) UncleHash() common.Hash      { return b.header.UncleHash }
func (b *Block) Coinbase() common.Address    { return b.header.Coinbase }
func (b *Block) Root() common.Hash           { return b.header.Root }
func (b *Block) TxHash() common.Hash         { return b.header.TxHash }
func (b *Block) GasLimit() uint64            { return b.header.GasLimit }
func (b *Block) GasUsed() uint64             { return b.header.GasUsed }
func (b *Block) MixDigest() common.Hash      { return b.header.MixDigest }
func (b *Block) Nonce() uint64               { return b.header.Nonce.Uint64() }
func (b *Block) Extra() []byte               { return append([]byte(nil), b.header.Extra...) }
func (b *Block) Transactions() Transactions  { return b.transactions }
func (b *Block) Uncles() []*Header           { return b.uncles }

func (b *Block) Hash() common.Hash {
	if b.hash != (common.Hash{}) {
		return b.hash
	}
	b.hash = b.header.Hash()
	return b.hash
}

func (b *Block) WithSeal(header *Header) *Block {
	cpy := *b
	cpy.header = header.Copy()
	cpy.hash = common.Hash{}
	return &cpy
}

func (b *Block) WithBody(txs []*Transaction, uncles []*Header) *Block {
	block := &Block{
		header:       b.header.Copy(),
		transactions: make([]*Transaction, len(txs)),
		uncles:       make([]*Header, len(uncles)),
	}
	copy(block.transactions, txs)
	for i := range uncles {
		block.uncles[i] = uncles[i].Copy()
	}
	return block
}

// EmptyRootHash/EmptyUncleHash are the canonical RLP hashes of an empty
// list, matching spec.md's "keccak(currentTxs) / keccak(currentUncles)"
// when there are none.
var (
	EmptyRootHash  = rlpHash([]*Transaction(nil))
	EmptyUncleHash = rlpHash([]*Header(nil))
)

// DeriveTxsHash/DeriveUnclesHash implement spec.md §4.6's
// `keccak(currentTxs)` / `keccak(currentUncles)`: the keccak of the RLP
// encoding of the whole list, not a Merkle root over the list.
func DeriveTxsHash(txs []*Transaction) common.Hash {
	return rlpHash(txs)
}

func DeriveUnclesHash(uncles []*Header) common.Hash {
	return rlpHash(uncles)
}
