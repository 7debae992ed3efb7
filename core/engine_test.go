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
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/ledgerstate/core/state"
	"github.com/ground-x/ledgerstate/core/types"
	"github.com/ground-x/ledgerstate/params"
	"github.com/ground-x/ledgerstate/storage/database"
)

// testAccount is a keypair with a known address, used throughout the test
// suite to sign transactions against a freshly-built genesis.
type testAccount struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func newTestAccount(t *testing.T) testAccount {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return testAccount{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// newTestState builds a State rooted at a genesis block funding the given
// accounts, using an in-memory overlay backend.
func newTestState(t *testing.T, alloc map[common.Address]*big.Int) (*State, *types.Header) {
	t.Helper()

	ov, err := database.OpenDB(database.MemoryBackend, "", false)
	require.NoError(t, err)
	sdb := state.NewDatabase(ov)

	genesis := DefaultGenesis()
	genesis.Alloc = GenesisAlloc{}
	for addr, bal := range alloc {
		genesis.Alloc[addr] = bal
	}
	genesisHeader, err := genesis.ToBlock(sdb)
	require.NoError(t, err)

	s, err := NewState(genesis.Config, sdb, nil, nil, genesisHeader)
	require.NoError(t, err)
	return s, genesisHeader
}

func signedTransfer(t *testing.T, from testAccount, to common.Address, nonce uint64, value *big.Int, gas uint64, gasPrice *big.Int) *types.Transaction {
	t.Helper()
	tx := types.NewTransaction(nonce, to, value, gas, gasPrice, nil)
	signed, err := types.SignTx(tx, from.key)
	require.NoError(t, err)
	return signed
}

func signedCreation(t *testing.T, from testAccount, nonce uint64, code []byte, gas uint64, gasPrice *big.Int) *types.Transaction {
	t.Helper()
	tx := types.NewContractCreation(nonce, big.NewInt(0), gas, gasPrice, code)
	signed, err := types.SignTx(tx, from.key)
	require.NoError(t, err)
	return signed
}

func TestNewStateRootMatchesGenesis(t *testing.T) {
	alice := newTestAccount(t)
	s, genesisHeader := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000_000_000_000_000),
	})
	require.Equal(t, genesisHeader.Root, s.RootHash())
	require.Equal(t, 0, s.Balance(alice.addr).Cmp(big.NewInt(1_000_000_000_000_000_000)))
}

func TestExecuteTransferMovesBalanceAndNonce(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})

	tx := signedTransfer(t, alice, bob.addr, 0, big.NewInt(1000), params.TxGas, big.NewInt(1))
	require.NoError(t, s.Execute(tx))

	require.Equal(t, 0, s.Balance(bob.addr).Cmp(big.NewInt(1000)))
	require.Equal(t, uint64(1), s.TransactionsFrom(alice.addr))

	spent := new(big.Int).Mul(big.NewInt(int64(params.TxGas)), big.NewInt(1))
	want := new(big.Int).Sub(big.NewInt(1_000_000), big.NewInt(1000))
	want.Sub(want, spent)
	require.Equal(t, 0, s.Balance(alice.addr).Cmp(want))
}

func TestExecuteRejectsBadNonce(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})

	tx := signedTransfer(t, alice, bob.addr, 5, big.NewInt(1), params.TxGas, big.NewInt(1))
	err := s.Execute(tx)
	require.Error(t, err)
	require.Equal(t, 0, s.Balance(alice.addr).Cmp(big.NewInt(1_000_000)))
}

func TestExecuteRejectsInsufficientBalance(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(100),
	})

	tx := signedTransfer(t, alice, bob.addr, 0, big.NewInt(1), params.TxGas, big.NewInt(1))
	err := s.Execute(tx)
	require.Error(t, err)
}

// TestExecuteRejectsInsufficientValueLeavesNonceUnchanged is spec.md §8 S2:
// a zero-gas-price transfer whose value exceeds the sender's balance must
// be rejected with state fully unchanged, including the sender's nonce -
// the upfront cost check (gas*gasPrice) is zero and passes trivially, so
// the failure only surfaces once Call attempts the value transfer itself.
func TestExecuteRejectsInsufficientValueLeavesNonceUnchanged(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1000),
	})

	tx := signedTransfer(t, alice, bob.addr, 0, big.NewInt(2000), params.TxGas, big.NewInt(0))
	err := s.Execute(tx)
	require.Error(t, err)

	require.Equal(t, uint64(0), s.TransactionsFrom(alice.addr))
	require.Equal(t, 0, s.Balance(alice.addr).Cmp(big.NewInt(1000)))
	require.Equal(t, 0, s.Balance(bob.addr).Sign())
}

func TestRollbackDiscardsCandidate(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	s, genesisHeader := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})

	tx := signedTransfer(t, alice, bob.addr, 0, big.NewInt(1000), params.TxGas, big.NewInt(1))
	require.NoError(t, s.Execute(tx))
	require.NoError(t, s.Rollback())

	require.Equal(t, genesisHeader.Root, s.RootHash())
	require.Equal(t, 0, s.Balance(alice.addr).Cmp(big.NewInt(1_000_000)))
	require.Equal(t, uint64(0), s.TransactionsFrom(alice.addr))
	require.Empty(t, s.Pending())
}

func TestCopyDiverges(t *testing.T) {
	alice := newTestAccount(t)
	bob := newTestAccount(t)
	s, _ := newTestState(t, map[common.Address]*big.Int{
		alice.addr: big.NewInt(1_000_000),
	})

	cp := s.Copy()
	tx := signedTransfer(t, alice, bob.addr, 0, big.NewInt(1000), params.TxGas, big.NewInt(1))
	require.NoError(t, cp.Execute(tx))

	require.Equal(t, uint64(0), s.TransactionsFrom(alice.addr))
	require.Equal(t, uint64(1), cp.TransactionsFrom(alice.addr))
}
