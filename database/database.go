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

package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/lazarus/database/plugin"
	"github.com/blinklabs-io/lazarus/database/plugin/blob"
	"github.com/blinklabs-io/lazarus/database/plugin/metadata"
	"github.com/blinklabs-io/lazarus/database/types"

	// Register the bundled storage plugins
	_ "github.com/blinklabs-io/lazarus/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/lazarus/database/plugin/blob/leveldb"
	_ "github.com/blinklabs-io/lazarus/database/plugin/metadata/sqlite"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// Config selects the storage plugins and where they keep their data. When
// DataDir is empty and InMemory is false, the plugins' own data-dir options
// are used unchanged
type Config struct {
	Logger         *slog.Logger
	DataDir        string
	BlobPlugin     string
	MetadataPlugin string
	InMemory       bool
}

// Database is the persisted store used by crash recovery. Block records
// live in the blob store and recovery metadata in the metadata store
type Database struct {
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
	dataDir  string
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a transaction spanning both stores
func (d *Database) Transaction(readWrite bool) *Txn {
	return d.newTxn(readWrite, true)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

func (d *Database) init() error {
	if d.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		d.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return d.checkCommitTimestamp()
}

// New opens the blob and metadata plugins named in config
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	blobPlugin := config.BlobPlugin
	if blobPlugin == "" {
		blobPlugin = DefaultBlobPlugin
	}
	metadataPlugin := config.MetadataPlugin
	if metadataPlugin == "" {
		metadataPlugin = DefaultMetadataPlugin
	}
	if config.DataDir != "" || config.InMemory {
		for pluginType, pluginName := range map[plugin.PluginType]string{
			plugin.PluginTypeBlob:     blobPlugin,
			plugin.PluginTypeMetadata: metadataPlugin,
		} {
			if err := plugin.SetPluginOption(pluginType, pluginName, "data-dir", config.DataDir); err != nil {
				return nil, err
			}
		}
	}
	metadataDb, err := metadata.New(metadataPlugin)
	if err != nil {
		return nil, err
	}
	blobDb, err := blob.New(blobPlugin)
	if err != nil {
		_ = metadataDb.Close()
		return nil, err
	}
	db := &Database{
		logger:   config.Logger,
		blob:     blobDb,
		metadata: metadataDb,
		dataDir:  config.DataDir,
	}
	if err := db.init(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}

// ResetAll wipes every record kind from the blob store and all rows from the metadata store
func (d *Database) ResetAll() error {
	prefixes := make([][]byte, 0, len(types.AllKeyPrefixes))
	for _, prefix := range types.AllKeyPrefixes {
		prefixes = append(prefixes, []byte(prefix))
	}
	if err := d.blob.DropPrefix(prefixes...); err != nil {
		return fmt.Errorf("reset blob store: %w", err)
	}
	if err := d.metadata.Reset(); err != nil {
		return fmt.Errorf("reset metadata store: %w", err)
	}
	return nil
}

// view runs fn in a read-only blob transaction
func (d *Database) view(fn func(*Txn) error) error {
	txn := d.newTxn(false, false)
	defer txn.discard()
	return fn(txn)
}

// update runs fn in a read-write blob transaction and commits it
func (d *Database) update(fn func(*Txn) error) error {
	return d.newTxn(true, false).Do(fn)
}

func (d *Database) blobGet(key []byte, notFound error) ([]byte, error) {
	var ret []byte
	err := d.view(func(txn *Txn) error {
		val, err := d.blob.Get(txn.Blob(), key)
		if err != nil {
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return notFound
			}
			return err
		}
		ret = val
		return nil
	})
	return ret, err
}

func (d *Database) blobSet(key []byte, val []byte) error {
	return d.update(func(txn *Txn) error {
		return d.blob.Set(txn.Blob(), key, val)
	})
}

// blobDelete removes key, returning notFound when it does not exist
func (d *Database) blobDelete(key []byte, notFound error) error {
	return d.update(func(txn *Txn) error {
		if _, err := d.blob.Get(txn.Blob(), key); err != nil {
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return notFound
			}
			return err
		}
		return d.blob.Delete(txn.Blob(), key)
	})
}

// blobScan calls fn for every key with the given prefix, in key order
func (d *Database) blobScan(prefix string, fn func(key []byte, val []byte) error) error {
	return d.view(func(txn *Txn) error {
		prefixBytes := []byte(prefix)
		it := d.blob.NewIterator(
			txn.Blob(),
			types.BlobIteratorOptions{Prefix: prefixBytes},
		)
		defer it.Close()
		for it.Rewind(); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(item.Key(), val); err != nil {
				return err
			}
		}
		return it.Err()
	})
}
