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

package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOverlayReadsOwnUncommittedWrite(t *testing.T) {
	ov, err := OpenDB(MemoryBackend, "", false)
	require.NoError(t, err)

	require.NoError(t, ov.Put([]byte("k"), []byte("v1")))
	got, err := ov.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)
	require.Equal(t, 1, ov.JournalSize())
}

func TestOverlayCommitFlushesToBackend(t *testing.T) {
	ov, err := OpenDB(MemoryBackend, "", false)
	require.NoError(t, err)
	backend := ov.backend.(*MemDatabase)

	require.NoError(t, ov.Put([]byte("k"), []byte("v1")))
	_, err = backend.Get([]byte("k"))
	require.Error(t, err, "uncommitted write must not reach the backend yet")

	require.NoError(t, ov.Commit())
	require.Equal(t, 0, ov.JournalSize())

	got, err := backend.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)
}

func TestOverlayDiscardDropsJournal(t *testing.T) {
	ov, err := OpenDB(MemoryBackend, "", false)
	require.NoError(t, err)

	require.NoError(t, ov.Put([]byte("k"), []byte("v1")))
	ov.Discard()
	require.Equal(t, 0, ov.JournalSize())

	_, err = ov.Get([]byte("k"))
	require.Error(t, err)
}

func TestOverlayHasChecksJournalThenBackend(t *testing.T) {
	ov, err := OpenDB(MemoryBackend, "", false)
	require.NoError(t, err)

	ok, err := ov.Has([]byte("missing"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, ov.Put([]byte("k"), []byte("v1")))
	ok, err = ov.Has([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, ov.Commit())
	ok, err = ov.Has([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOverlayInsertIsContentAddressedDedup(t *testing.T) {
	ov, err := OpenDB(MemoryBackend, "", false)
	require.NoError(t, err)

	require.NoError(t, ov.Insert([]byte("hash1"), []byte("blob")))
	require.NoError(t, ov.Insert([]byte("hash1"), []byte("blob")))
	require.Equal(t, 1, ov.JournalSize())
}

func TestMemDatabaseBatch(t *testing.T) {
	db := NewMemDatabase()
	batch := db.NewBatch()
	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Delete([]byte("b")))
	require.NoError(t, batch.Write())

	got, err := db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)
	require.Equal(t, 1, db.Len())
}
