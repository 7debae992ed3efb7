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

package database

import (
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/ground-x/ledgerstate/log"
	"github.com/ground-x/ledgerstate/metrics"
)

// OpenFileLimit bounds the number of leveldb file handles kept open.
var OpenFileLimit = 64

type levelDB struct {
	fn string      // filename for reporting
	db *leveldb.DB // LevelDB instance

	compTimeMeter  metrics.Meter
	compReadMeter  metrics.Meter
	compWriteMeter metrics.Meter
	diskReadMeter  metrics.Meter
	diskWriteMeter metrics.Meter

	quitLock sync.Mutex
	quitChan chan chan error

	log log.Logger
}

func getLDBOptions(ldbCacheSize, numHandles int) *opt.Options {
	return &opt.Options{
		OpenFilesCacheCapacity: numHandles,
		BlockCacheCapacity:     ldbCacheSize / 2 * opt.MiB,
		WriteBuffer:            ldbCacheSize / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
		DisableBufferPool:      true,
	}
}

// NewLDBDatabase opens (or creates) a leveldb-backed key-value store at the
// given directory, recovering from a previous unclean shutdown if needed.
func NewLDBDatabase(file string, ldbCacheSize, numHandles int) (*levelDB, error) {
	logger := log.New("database", file)

	if ldbCacheSize < 16 {
		ldbCacheSize = 16
	}
	if numHandles < 16 {
		numHandles = 16
	}
	logger.Info("Allocated LevelDB with write buffer and file handles", "writeBufferSize", ldbCacheSize, "numHandles", numHandles)

	db, err := leveldb.OpenFile(file, getLDBOptions(ldbCacheSize, numHandles))
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, err
	}
	ldb := &levelDB{
		fn:  file,
		db:  db,
		log: logger,
	}
	ldb.meter(3 * time.Second)
	return ldb, nil
}

// Path returns the path to the database directory.
func (db *levelDB) Path() string {
	return db.fn
}

func (db *levelDB) Put(key []byte, value []byte) error {
	return db.db.Put(key, value, nil)
}

func (db *levelDB) Has(key []byte) (bool, error) {
	return db.db.Has(key, nil)
}

func (db *levelDB) Get(key []byte) ([]byte, error) {
	dat, err := db.db.Get(key, nil)
	if err != nil {
		return nil, err
	}
	return dat, nil
}

func (db *levelDB) Delete(key []byte) error {
	return db.db.Delete(key, nil)
}

func (db *levelDB) Close() {
	db.quitLock.Lock()
	defer db.quitLock.Unlock()

	err := db.db.Close()
	if err == nil {
		db.log.Info("Database closed")
	} else {
		db.log.Error("Failed to close database", "err", err)
	}
}

// meter registers the compaction/IO counters against the metrics package;
// collection itself is driven by the caller sampling db.db.Stats on demand,
// keeping this adapted copy free of the teacher's background goroutine.
func (db *levelDB) meter(prefix time.Duration) {
	db.compTimeMeter = metrics.NewRegisteredMeter("db/compact/time", nil)
	db.compReadMeter = metrics.NewRegisteredMeter("db/compact/read", nil)
	db.compWriteMeter = metrics.NewRegisteredMeter("db/compact/write", nil)
	db.diskReadMeter = metrics.NewRegisteredMeter("db/disk/read", nil)
	db.diskWriteMeter = metrics.NewRegisteredMeter("db/disk/write", nil)
}

// Stats samples the underlying leveldb counters into the registered meters.
// Overlay.Commit calls this after every flush so operators get live
// compaction/IO visibility without a dedicated polling goroutine per DB.
func (db *levelDB) Stats() {
	s := new(leveldb.DBStats)
	if err := db.db.Stats(s); err != nil {
		return
	}
	var compRead, compWrite int64
	var compTime time.Duration
	for i := range s.LevelDurations {
		compTime += s.LevelDurations[i]
		compRead += s.LevelRead[i]
		compWrite += s.LevelWrite[i]
	}
	db.compTimeMeter.Mark(int64(compTime))
	db.compReadMeter.Mark(compRead)
	db.compWriteMeter.Mark(compWrite)
	db.diskReadMeter.Mark(int64(s.IORead))
	db.diskWriteMeter.Mark(int64(s.IOWrite))
}

func (db *levelDB) NewBatch() Batch {
	return &ldbBatch{db: db.db, b: new(leveldb.Batch)}
}

type ldbBatch struct {
	db   *leveldb.DB
	b    *leveldb.Batch
	size int
}

func (b *ldbBatch) Put(key, value []byte) error {
	b.b.Put(key, value)
	b.size += len(value)
	return nil
}

func (b *ldbBatch) Delete(key []byte) error {
	b.b.Delete(key)
	b.size++
	return nil
}

func (b *ldbBatch) Write() error {
	return b.db.Write(b.b, nil)
}

func (b *ldbBatch) ValueSize() int {
	return b.size
}

func (b *ldbBatch) Reset() {
	b.b.Reset()
	b.size = 0
}
