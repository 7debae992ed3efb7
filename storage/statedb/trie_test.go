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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ground-x/ledgerstate/storage/database"
)

func newTestTrie(t *testing.T) (*Trie, *Database) {
	t.Helper()
	ov, err := database.OpenDB(database.MemoryBackend, "", false)
	require.NoError(t, err)
	db := NewDatabase(ov)
	tr, err := New(common.Hash{}, db)
	require.NoError(t, err)
	return tr, db
}

func TestEmptyTrieHash(t *testing.T) {
	tr, _ := newTestTrie(t)
	require.Equal(t, emptyRoot, tr.Hash())
}

// TestTrieInsertGethVector1 reproduces go-ethereum's TestInsert case 1.
func TestTrieInsertGethVector1(t *testing.T) {
	tr, _ := newTestTrie(t)
	require.NoError(t, tr.TryUpdate([]byte("doe"), []byte("reindeer")))
	require.NoError(t, tr.TryUpdate([]byte("dog"), []byte("puppy")))
	require.NoError(t, tr.TryUpdate([]byte("dogglesworth"), []byte("cat")))

	want := common.HexToHash("8aad789dff2f538bca5d8ea56e8abe10f4c7ba3a5dea95fea4cd6e7c3a1168d3")
	require.Equal(t, want, tr.Hash())
}

// TestTrieInsertGethVector2 reproduces go-ethereum's TestInsert case 2.
func TestTrieInsertGethVector2(t *testing.T) {
	tr, _ := newTestTrie(t)
	require.NoError(t, tr.TryUpdate([]byte("A"), []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")))

	want := common.HexToHash("d23786fb4a010da3ce639d66d5e904a11dbc02746d1ce25029e53290cabf28ab")
	require.Equal(t, want, tr.Hash())
}

// TestTrieDeleteGethVector reproduces go-ethereum's TestDelete.
func TestTrieDeleteGethVector(t *testing.T) {
	tr, _ := newTestTrie(t)
	vals := []struct{ k, v string }{
		{"do", "verb"},
		{"ether", "wookiedoo"},
		{"horse", "stallion"},
		{"shaman", "horse"},
		{"doge", "coin"},
		{"ether", ""},
		{"dog", "puppy"},
		{"shaman", ""},
	}
	for _, val := range vals {
		if val.v == "" {
			require.NoError(t, tr.TryDelete([]byte(val.k)))
		} else {
			require.NoError(t, tr.TryUpdate([]byte(val.k), []byte(val.v)))
		}
	}

	want := common.HexToHash("5991bb8c6514148a29db676a14ac506cd2cd5775ace63c30a4fe457715e9ac84")
	require.Equal(t, want, tr.Hash())
}

func TestTrieGetExistingAndMissingKeys(t *testing.T) {
	tr, _ := newTestTrie(t)
	require.NoError(t, tr.TryUpdate([]byte("doe"), []byte("reindeer")))
	require.NoError(t, tr.TryUpdate([]byte("dog"), []byte("puppy")))

	got, err := tr.TryGet([]byte("dog"))
	require.NoError(t, err)
	require.Equal(t, []byte("puppy"), got)

	got, err = tr.TryGet([]byte("cat"))
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestTrieCommitAndReopen(t *testing.T) {
	tr, db := newTestTrie(t)
	require.NoError(t, tr.TryUpdate([]byte("doe"), []byte("reindeer")))
	require.NoError(t, tr.TryUpdate([]byte("dog"), []byte("puppy")))

	root, err := tr.Commit(nil)
	require.NoError(t, err)
	require.Equal(t, root, tr.Hash())

	reopened, err := New(root, db)
	require.NoError(t, err)
	got, err := reopened.TryGet([]byte("dog"))
	require.NoError(t, err)
	require.Equal(t, []byte("puppy"), got)
}

func TestTrieProveVerifiable(t *testing.T) {
	tr, _ := newTestTrie(t)
	require.NoError(t, tr.TryUpdate([]byte("doe"), []byte("reindeer")))
	require.NoError(t, tr.TryUpdate([]byte("dog"), []byte("puppy")))
	require.NoError(t, tr.TryUpdate([]byte("dogglesworth"), []byte("cat")))
	_, err := tr.Commit(nil)
	require.NoError(t, err)

	proofDB := database.NewMemDatabase()
	require.NoError(t, tr.Prove([]byte("dog"), 0, proofDB))
	require.True(t, proofDB.Len() > 0)
}

func TestSecureTrieHashesKeys(t *testing.T) {
	ov, err := database.OpenDB(database.MemoryBackend, "", false)
	require.NoError(t, err)
	db := NewDatabase(ov)

	st, err := NewSecureTrie(common.Hash{}, db, 0)
	require.NoError(t, err)
	require.NoError(t, st.TryUpdate([]byte("somekey"), []byte("somevalue")))

	got, err := st.TryGet([]byte("somekey"))
	require.NoError(t, err)
	require.Equal(t, []byte("somevalue"), got)

	plain, _ := newTestTrie(t)
	require.NoError(t, plain.TryUpdate([]byte("somekey"), []byte("somevalue")))
	require.NotEqual(t, plain.Hash(), st.Hash(), "secure trie must hash differently than a plain trie over the same raw key")
}
