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

package types

import (
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// ErrInvalidSig is returned by Sender when a transaction's v/r/s triple
// doesn't recover to a valid public key.
var ErrInvalidSig = errors.New("invalid transaction v, r, s values")

// txdata is the exact wire tuple of spec.md §3 Transaction:
// (nonce, gasPrice, gas, to, value, data, signature). The signature is
// split into its v/r/s components for RLP, as usual.
type txdata struct {
	AccountNonce uint64
	Price        *big.Int
	GasLimit     uint64
	Recipient    *common.Address `rlp:"nil"` // nil means contract creation
	Amount       *big.Int
	Payload      []byte

	V *big.Int
	R *big.Int
	S *big.Int
}

// Transaction is the immutable, RLP-decodable wire form of a transaction.
// Signature verification and sender recovery are out of scope as VM/crypto
// internals per spec.md §1, but *recovering* the already-attached
// signature's sender (not producing one) is squarely this engine's job,
// since execute needs to know who to debit.
type Transaction struct {
	data txdata

	hash atomic.Value
	size atomic.Value
	from atomic.Value
}

func NewTransaction(nonce uint64, to common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return newTransaction(nonce, &to, amount, gasLimit, gasPrice, data)
}

func NewContractCreation(nonce uint64, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return newTransaction(nonce, nil, amount, gasLimit, gasPrice, data)
}

func newTransaction(nonce uint64, to *common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	d := txdata{
		AccountNonce: nonce,
		Recipient:    to,
		Payload:      data,
		GasLimit:     gasLimit,
		Price:        new(big.Int),
		Amount:       new(big.Int),
		V:            new(big.Int),
		R:            new(big.Int),
		S:            new(big.Int),
	}
	if amount != nil {
		d.Amount.Set(amount)
	}
	if gasPrice != nil {
		d.Price.Set(gasPrice)
	}
	return &Transaction{data: d}
}

func (tx *Transaction) WithSignature(v, r, s *big.Int) *Transaction {
	cpy := &Transaction{data: tx.data}
	cpy.data.V, cpy.data.R, cpy.data.S = v, r, s
	return cpy
}

func (tx *Transaction) Nonce() uint64              { return tx.data.AccountNonce }
func (tx *Transaction) GasPrice() *big.Int         { return new(big.Int).Set(tx.data.Price) }
func (tx *Transaction) Gas() uint64                { return tx.data.GasLimit }
func (tx *Transaction) Value() *big.Int            { return new(big.Int).Set(tx.data.Amount) }
func (tx *Transaction) Data() []byte               { return append([]byte(nil), tx.data.Payload...) }
func (tx *Transaction) CheckNonce() bool           { return true }

// To returns the recipient, or nil for a contract-creation transaction.
func (tx *Transaction) To() *common.Address {
	if tx.data.Recipient == nil {
		return nil
	}
	to := *tx.data.Recipient
	return &to
}

// Cost is gas*gasPrice + value, the amount the §4.3 execute preCheck
// deducts up front from the sender (minus the value, which step 6's
// create/call dispatch transfers separately).
func (tx *Transaction) Cost() *big.Int {
	total := new(big.Int).Mul(tx.data.Price, new(big.Int).SetUint64(tx.data.GasLimit))
	total.Add(total, tx.data.Amount)
	return total
}

func (tx *Transaction) RawSignatureValues() (v, r, s *big.Int) {
	return tx.data.V, tx.data.R, tx.data.S
}

// Hash returns the keccak256 RLP hash of the whole transaction, memoized.
func (tx *Transaction) Hash() common.Hash {
	if hash := tx.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	h := rlpHash(tx)
	tx.hash.Store(h)
	return h
}

func (tx *Transaction) Size() uint64 {
	if size := tx.size.Load(); size != nil {
		return size.(uint64)
	}
	enc, _ := rlp.EncodeToBytes(&tx.data)
	tx.size.Store(uint64(len(enc)))
	return uint64(len(enc))
}

// signingHash is the hash a signature covers - the same fields as Hash
// but with v/r/s left out, matching the pre-signature digest every v/r/s
// scheme signs over.
func (tx *Transaction) signingHash() common.Hash {
	return rlpHash([]interface{}{
		tx.data.AccountNonce,
		tx.data.Price,
		tx.data.GasLimit,
		tx.data.Recipient,
		tx.data.Amount,
		tx.data.Payload,
	})
}

// SignTx signs tx with prv and returns the signed copy, mirroring
// go-ethereum's types.SignTx for the legacy (non-EIP155) signature scheme:
// v is the recovery id plus 27, matching what Sender expects back.
func SignTx(tx *Transaction, prv *ecdsa.PrivateKey) (*Transaction, error) {
	sig, err := crypto.Sign(tx.signingHash().Bytes(), prv)
	if err != nil {
		return nil, err
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	v := new(big.Int).SetUint64(uint64(sig[64]) + 27)
	return tx.WithSignature(v, r, s), nil
}

// Sender recovers the address that signed this transaction. Recovery
// itself (secp256k1 Ecrecover) is the explicitly out-of-scope crypto
// collaborator from spec.md §1; this is the one seam where the engine
// calls out to it.
func (tx *Transaction) Sender() (common.Address, error) {
	if from := tx.from.Load(); from != nil {
		return from.(common.Address), nil
	}
	v, r, s := tx.RawSignatureValues()
	if r == nil || s == nil || v == nil {
		return common.Address{}, ErrInvalidSig
	}
	sig := make([]byte, 65)
	rb, sb := r.Bytes(), s.Bytes()
	copy(sig[32-len(rb):32], rb)
	copy(sig[64-len(sb):64], sb)
	recovery := byte(v.Uint64())
	if recovery >= 27 {
		recovery -= 27
	}
	sig[64] = recovery

	pub, err := crypto.SigToPub(tx.signingHash().Bytes(), sig)
	if err != nil {
		return common.Address{}, ErrInvalidSig
	}
	addr := crypto.PubkeyToAddress(*pub)
	tx.from.Store(addr)
	return addr, nil
}

// Transactions is a list of transactions as carried in a block body.
type Transactions []*Transaction

func (s Transactions) Len() int { return len(s) }
