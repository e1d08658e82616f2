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

package types

import "errors"

// ErrBlobKeyNotFound is returned by blob stores when a key does not exist
var ErrBlobKeyNotFound = errors.New("blob key not found")

// ErrTxnWrongType is returned when a transaction from another store type is used
var ErrTxnWrongType = errors.New("invalid transaction type")

// ErrNilTxn is returned when a nil transaction is used
var ErrNilTxn = errors.New("nil transaction")

// ErrNoStoreAvailable is returned when a read-write transaction has no stores
var ErrNoStoreAvailable = errors.New("no store available")

// ErrBlobStoreUnavailable is returned when the blob store handle is not open
var ErrBlobStoreUnavailable = errors.New("blob store unavailable")

// ErrTxnFinished is returned when a committed or rolled back transaction is reused
var ErrTxnFinished = errors.New("transaction already finished")

// ErrTxnReadOnly is returned when writing through a read-only transaction
var ErrTxnReadOnly = errors.New("transaction is read-only")

// BlobItem represents a key/value pair yielded by a BlobIterator
type BlobItem interface {
	Key() []byte
	ValueCopy(dst []byte) ([]byte, error)
}

// BlobIterator walks the keys of a blob store in byte order
type BlobIterator interface {
	Rewind()
	Seek(prefix []byte)
	Valid() bool
	ValidForPrefix(prefix []byte) bool
	Next()
	Item() BlobItem
	Close()
	Err() error
}

// BlobIteratorOptions configures a BlobIterator
type BlobIteratorOptions struct {
	Prefix  []byte
	Reverse bool
}

// Txn is implemented by the per-store transaction handles
type Txn interface {
	Commit() error
	Rollback() error
}
