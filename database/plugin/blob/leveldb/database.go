// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package leveldb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/blinklabs-io/lazarus/database/types"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// reader is the read surface shared by leveldb snapshots and transactions
type reader interface {
	Get([]byte, *opt.ReadOptions) ([]byte, error)
	NewIterator(*util.Range, *opt.ReadOptions) iterator.Iterator
}

// leveldbTxn reads from a snapshot when read-only and writes through a
// leveldb transaction otherwise
type leveldbTxn struct {
	store    *BlobStoreLevelDB
	snap     *leveldb.Snapshot
	tr       *leveldb.Transaction
	finished bool
}

func (t *leveldbTxn) reader() reader {
	if t.tr != nil {
		return t.tr
	}
	return t.snap
}

func (t *leveldbTxn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if t.tr != nil {
		return t.tr.Commit()
	}
	if t.snap != nil {
		t.snap.Release()
	}
	return nil
}

func (t *leveldbTxn) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if t.tr != nil {
		t.tr.Discard()
	}
	if t.snap != nil {
		t.snap.Release()
	}
	return nil
}

type leveldbIterator struct {
	iter    iterator.Iterator
	reverse bool
}

func (it *leveldbIterator) Rewind() {
	if it.reverse {
		it.iter.Last()
		return
	}
	it.iter.First()
}

func (it *leveldbIterator) Seek(prefix []byte) { it.iter.Seek(prefix) }
func (it *leveldbIterator) Valid() bool        { return it.iter.Valid() }

func (it *leveldbIterator) ValidForPrefix(p []byte) bool {
	return it.iter.Valid() && bytes.HasPrefix(it.iter.Key(), p)
}

func (it *leveldbIterator) Next() {
	if it.reverse {
		it.iter.Prev()
		return
	}
	it.iter.Next()
}

func (it *leveldbIterator) Item() types.BlobItem {
	// The iterator reuses its buffers, so copy before handing out
	return &leveldbItem{
		key:   slices.Clone(it.iter.Key()),
		value: slices.Clone(it.iter.Value()),
	}
}

func (it *leveldbIterator) Close()     { it.iter.Release() }
func (it *leveldbIterator) Err() error { return it.iter.Error() }

type errorIterator struct {
	err error
}

func (it *errorIterator) Rewind()                      {}
func (it *errorIterator) Seek(prefix []byte)           {}
func (it *errorIterator) Valid() bool                  { return false }
func (it *errorIterator) ValidForPrefix(p []byte) bool { return false }
func (it *errorIterator) Next()                        {}
func (it *errorIterator) Item() types.BlobItem         { return nil }
func (it *errorIterator) Close()                       {}
func (it *errorIterator) Err() error                   { return it.err }

type leveldbItem struct {
	key   []byte
	value []byte
}

func (i *leveldbItem) Key() []byte {
	return slices.Clone(i.key)
}

func (i *leveldbItem) ValueCopy(dst []byte) ([]byte, error) {
	return append(dst[:0], i.value...), nil
}

// BlobStoreLevelDB stores all data in leveldb. Data is not persisted when no data dir is configured
type BlobStoreLevelDB struct {
	db                 *leveldb.DB
	logger             *slog.Logger
	dataDir            string
	blockCacheCapacity int
	openFilesCacheSize int
}

// New creates a new database
func New(opts ...BlobStoreLevelDBOptionFunc) (*BlobStoreLevelDB, error) {
	db := &BlobStoreLevelDB{
		blockCacheCapacity: DefaultBlockCacheCapacity,
		openFilesCacheSize: DefaultOpenFilesCacheSize,
	}
	for _, opt := range opts {
		opt(db)
	}
	if db.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	dbOpts := &opt.Options{
		BlockCacheCapacity:     db.blockCacheCapacity,
		OpenFilesCacheCapacity: db.openFilesCacheSize,
	}
	var err error
	if db.dataDir == "" {
		db.db, err = leveldb.Open(storage.NewMemStorage(), dbOpts)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	// Make sure that we can read data dir, and create if it doesn't exist
	if _, err := os.Stat(db.dataDir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read data dir: %w", err)
		}
		if err := os.MkdirAll(db.dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
	}
	blobDir := filepath.Join(db.dataDir, "blob-leveldb")
	db.db, err = leveldb.OpenFile(blobDir, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", blobDir, err)
	}
	return db, nil
}

// Start implements the plugin.Plugin interface
func (d *BlobStoreLevelDB) Start() error {
	// Database is already opened in New(), so this is a no-op
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *BlobStoreLevelDB) Stop() error {
	return d.Close()
}

// Close closes the database handle
func (d *BlobStoreLevelDB) Close() error {
	return d.db.Close()
}

// NewTransaction creates a snapshot for read-only use or a write transaction
func (d *BlobStoreLevelDB) NewTransaction(update bool) types.Txn {
	txn := &leveldbTxn{store: d}
	var err error
	if update {
		txn.tr, err = d.db.OpenTransaction()
	} else {
		txn.snap, err = d.db.GetSnapshot()
	}
	if err != nil {
		d.logger.Error(
			"failed to open leveldb transaction",
			"component", "database",
			"error", err,
		)
		// validateTxn reports the unusable handle to callers
		txn.finished = true
	}
	return txn
}

func (d *BlobStoreLevelDB) validateTxn(txn types.Txn) (*leveldbTxn, error) {
	if txn == nil {
		return nil, types.ErrNilTxn
	}
	lTxn, ok := txn.(*leveldbTxn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if lTxn.store != d {
		return nil, errors.New("transaction from different store")
	}
	if lTxn.finished {
		return nil, types.ErrTxnFinished
	}
	return lTxn, nil
}

func (d *BlobStoreLevelDB) validateWriteTxn(txn types.Txn) (*leveldbTxn, error) {
	lTxn, err := d.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	if lTxn.tr == nil {
		return nil, types.ErrTxnReadOnly
	}
	return lTxn, nil
}

// Get retrieves a value within a transaction
func (d *BlobStoreLevelDB) Get(txn types.Txn, key []byte) ([]byte, error) {
	lTxn, err := d.validateTxn(txn)
	if err != nil {
		return nil, err
	}
	val, err := lTxn.reader().Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

// Set stores a key-value pair within a transaction
func (d *BlobStoreLevelDB) Set(txn types.Txn, key, val []byte) error {
	lTxn, err := d.validateWriteTxn(txn)
	if err != nil {
		return err
	}
	return lTxn.tr.Put(key, val, nil)
}

// Delete removes a key within a transaction
func (d *BlobStoreLevelDB) Delete(txn types.Txn, key []byte) error {
	lTxn, err := d.validateWriteTxn(txn)
	if err != nil {
		return err
	}
	return lTxn.tr.Delete(key, nil)
}

// NewIterator creates an iterator within a transaction
func (d *BlobStoreLevelDB) NewIterator(
	txn types.Txn,
	opts types.BlobIteratorOptions,
) types.BlobIterator {
	lTxn, err := d.validateTxn(txn)
	if err != nil {
		return &errorIterator{err: err}
	}
	var slice *util.Range
	if len(opts.Prefix) > 0 {
		slice = util.BytesPrefix(opts.Prefix)
	}
	return &leveldbIterator{
		iter:    lTxn.reader().NewIterator(slice, nil),
		reverse: opts.Reverse,
	}
}

// DropPrefix removes all keys with the given prefixes in a single batch
func (d *BlobStoreLevelDB) DropPrefix(prefixes ...[]byte) error {
	batch := new(leveldb.Batch)
	for _, prefix := range prefixes {
		iter := d.db.NewIterator(util.BytesPrefix(prefix), nil)
		for iter.Next() {
			batch.Delete(slices.Clone(iter.Key()))
		}
		iter.Release()
		if err := iter.Error(); err != nil {
			return err
		}
	}
	if batch.Len() == 0 {
		return nil
	}
	return d.db.Write(batch, &opt.WriteOptions{Sync: true})
}

// Sync is a no-op: committed leveldb transactions are already visible to new snapshots
func (d *BlobStoreLevelDB) Sync() error {
	return nil
}
