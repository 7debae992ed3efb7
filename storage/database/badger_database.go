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
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger"

	"github.com/ground-x/ledgerstate/log"
)

const gcThreshold = int64(1 << 30) // GB
const sizeGCTickerTime = 1 * time.Minute

// badgerDB is the alternate overlay backend (§6.1): a crash-safe,
// LSM-based key-value store, selected via database.BadgerBackend instead
// of the default goleveldb one.
type badgerDB struct {
	fn string // directory for reporting
	db *badger.DB

	gcTicker *time.Ticker

	logger log.Logger
}

func getBadgerDBDefaultOption(dbDir string) badger.Options {
	opts := badger.DefaultOptions
	opts.Dir = dbDir
	opts.ValueDir = dbDir
	return opts
}

// NewBadgerDB opens (or creates) a badger-backed key-value store.
func NewBadgerDB(dbDir string) (*badgerDB, error) {
	localLogger := log.New("dbDir", dbDir)

	if fi, err := os.Stat(dbDir); err == nil {
		if !fi.IsDir() {
			return nil, fmt.Errorf("badgerDB: %v is not a directory", dbDir)
		}
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("badgerDB: failed to create %v: %v", dbDir, err)
		}
	} else {
		return nil, fmt.Errorf("badgerDB: failed to stat %v: %v", dbDir, err)
	}

	opts := getBadgerDBDefaultOption(dbDir)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerDB: failed to open %v: %v", dbDir, err)
	}

	bg := &badgerDB{
		fn:       dbDir,
		db:       db,
		logger:   localLogger,
		gcTicker: time.NewTicker(sizeGCTickerTime),
	}
	go bg.runValueLogGC()
	return bg, nil
}

// runValueLogGC periodically reclaims badger's value log once it has grown
// past gcThreshold since the last reclaim.
func (bg *badgerDB) runValueLogGC() {
	_, lastValueLogSize := bg.db.Size()
	for range bg.gcTicker.C {
		_, currValueLogSize := bg.db.Size()
		if currValueLogSize-lastValueLogSize < gcThreshold {
			continue
		}
		if err := bg.db.RunValueLogGC(0.5); err != nil {
			bg.logger.Error("runValueLogGC failed", "err", err)
			continue
		}
		_, lastValueLogSize = bg.db.Size()
	}
}

func (bg *badgerDB) Path() string { return bg.fn }

func (bg *badgerDB) Put(key []byte, value []byte) error {
	txn := bg.db.NewTransaction(true)
	defer txn.Discard()
	if err := txn.Set(key, value); err != nil {
		return err
	}
	return txn.Commit(nil)
}

func (bg *badgerDB) Has(key []byte) (bool, error) {
	txn := bg.db.NewTransaction(false)
	defer txn.Discard()
	_, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (bg *badgerDB) Get(key []byte) ([]byte, error) {
	txn := bg.db.NewTransaction(false)
	defer txn.Discard()
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}
	return item.Value()
}

func (bg *badgerDB) Delete(key []byte) error {
	txn := bg.db.NewTransaction(true)
	defer txn.Discard()
	if err := txn.Delete(key); err != nil {
		return err
	}
	return txn.Commit(nil)
}

func (bg *badgerDB) Close() {
	bg.gcTicker.Stop()
	if err := bg.db.Close(); err == nil {
		bg.logger.Info("Database closed")
	} else {
		bg.logger.Error("Failed to close database", "err", err)
	}
}

func (bg *badgerDB) NewBatch() Batch {
	txn := bg.db.NewTransaction(true)
	return &badgerBatch{db: bg.db, txn: txn}
}

type badgerBatch struct {
	db   *badger.DB
	txn  *badger.Txn
	size int
}

func (b *badgerBatch) Put(key, value []byte) error {
	err := b.txn.Set(key, value)
	b.size += len(value)
	return err
}

func (b *badgerBatch) Delete(key []byte) error {
	err := b.txn.Delete(key)
	b.size++
	return err
}

func (b *badgerBatch) Write() error {
	return b.txn.Commit(nil)
}

func (b *badgerBatch) ValueSize() int {
	return b.size
}

func (b *badgerBatch) Reset() {
	b.txn = b.db.NewTransaction(true)
	b.size = 0
}
