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

package blob_test

import (
	"testing"

	"github.com/blinklabs-io/lazarus/database/plugin"
	"github.com/blinklabs-io/lazarus/database/plugin/blob"
	"github.com/blinklabs-io/lazarus/database/plugin/blob/badger"
	"github.com/blinklabs-io/lazarus/database/plugin/blob/leveldb"
	"github.com/blinklabs-io/lazarus/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type storeFactory func(t *testing.T, dataDir string) blob.BlobStore

var storeFactories = map[string]storeFactory{
	"badger": func(t *testing.T, dataDir string) blob.BlobStore {
		s, err := badger.New(badger.WithDataDir(dataDir), badger.WithGc(true))
		require.NoError(t, err)
		return s
	},
	"leveldb": func(t *testing.T, dataDir string) blob.BlobStore {
		s, err := leveldb.New(leveldb.WithDataDir(dataDir))
		require.NoError(t, err)
		return s
	},
}

func forEachStore(t *testing.T, fn func(t *testing.T, newStore func(dataDir string) blob.BlobStore)) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
			fn(t, func(dataDir string) blob.BlobStore { return factory(t, dataDir) })
		})
	}
}

func put(t *testing.T, s blob.BlobStore, key, val []byte) {
	t.Helper()
	txn := s.NewTransaction(true)
	require.NoError(t, s.Set(txn, key, val))
	require.NoError(t, txn.Commit())
}

func TestGetSetDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore func(string) blob.BlobStore) {
		s := newStore("")
		defer s.Close()
		put(t, s, []byte("k1"), []byte("v1"))

		txn := s.NewTransaction(false)
		val, err := s.Get(txn, []byte("k1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), val)
		_, err = s.Get(txn, []byte("missing"))
		assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
		require.NoError(t, txn.Rollback())

		txn = s.NewTransaction(true)
		require.NoError(t, s.Delete(txn, []byte("k1")))
		require.NoError(t, txn.Commit())
		txn = s.NewTransaction(false)
		defer txn.Rollback() //nolint:errcheck
		_, err = s.Get(txn, []byte("k1"))
		assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	})
}

func TestFinishedTxn(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore func(string) blob.BlobStore) {
		s := newStore("")
		defer s.Close()
		txn := s.NewTransaction(true)
		require.NoError(t, txn.Commit())
		assert.ErrorIs(t, s.Set(txn, []byte("k"), []byte("v")), types.ErrTxnFinished)
		_, err := s.Get(nil, []byte("k"))
		assert.ErrorIs(t, err, types.ErrNilTxn)
	})
}

func TestPrefixIteration(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore func(string) blob.BlobStore) {
		s := newStore("")
		defer s.Close()
		for _, n := range []uint64{3, 1, 256, 2} {
			put(t, s, types.TxBlockKey(n), types.Uint64ToBytes(n))
		}
		put(t, s, types.DSBlockKey(1), []byte("other"))

		prefix := []byte(types.TxBlockKeyPrefix)
		txn := s.NewTransaction(false)
		defer txn.Rollback() //nolint:errcheck
		it := s.NewIterator(txn, types.BlobIteratorOptions{Prefix: prefix})
		var got []uint64
		for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
			n, err := types.KeyUint64(it.Item().Key(), types.TxBlockKeyPrefix)
			require.NoError(t, err)
			got = append(got, n)
		}
		require.NoError(t, it.Err())
		it.Close()
		assert.Equal(t, []uint64{1, 2, 3, 256}, got)
	})
}

func TestDropPrefix(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore func(string) blob.BlobStore) {
		s := newStore("")
		defer s.Close()
		put(t, s, types.StateDeltaKey(1), []byte("a"))
		put(t, s, types.StateDeltaKey(2), []byte("b"))
		put(t, s, types.TxBlockKey(1), []byte("c"))
		require.NoError(t, s.DropPrefix([]byte(types.StateDeltaKeyPrefix)))
		require.NoError(t, s.Sync())

		txn := s.NewTransaction(false)
		defer txn.Rollback() //nolint:errcheck
		_, err := s.Get(txn, types.StateDeltaKey(1))
		assert.ErrorIs(t, err, types.ErrBlobKeyNotFound)
		val, err := s.Get(txn, types.TxBlockKey(1))
		require.NoError(t, err)
		assert.Equal(t, []byte("c"), val)
	})
}

func TestPersistence(t *testing.T) {
	forEachStore(t, func(t *testing.T, newStore func(string) blob.BlobStore) {
		dir := t.TempDir()
		s := newStore(dir)
		put(t, s, []byte("durable"), []byte("yes"))
		txn := s.NewTransaction(true)
		require.NoError(t, s.SetCommitTimestamp(12345, txn))
		require.NoError(t, txn.Commit())
		require.NoError(t, s.Sync())
		require.NoError(t, s.Close())

		s = newStore(dir)
		defer s.Close()
		ts, err := s.GetCommitTimestamp()
		require.NoError(t, err)
		assert.Equal(t, int64(12345), ts)
		txn = s.NewTransaction(false)
		defer txn.Rollback() //nolint:errcheck
		val, err := s.Get(txn, []byte("durable"))
		require.NoError(t, err)
		assert.Equal(t, []byte("yes"), val)
	})
}

func TestNewFromRegistry(t *testing.T) {
	for _, name := range []string{"badger", "leveldb"} {
		require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, name, "data-dir", ""))
		s, err := blob.New(name)
		require.NoError(t, err)
		require.NoError(t, s.Close())
	}
	_, err := blob.New("does-not-exist")
	assert.Error(t, err)
}
