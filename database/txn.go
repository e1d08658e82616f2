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
	"sync"
	"time"

	"github.com/blinklabs-io/lazarus/database/types"
)

// Txn pairs a blob transaction with an optional metadata transaction. When
// both are present a commit stamps them with the same commit timestamp so a
// crash between the two commits is detected on the next open
type Txn struct {
	db       *Database
	blob     types.Txn
	metadata types.Txn
	mu       sync.Mutex
	done     bool
	writable bool
}

func (d *Database) newTxn(writable bool, withMetadata bool) *Txn {
	t := &Txn{db: d, writable: writable}
	if d.blob != nil {
		t.blob = d.blob.NewTransaction(writable)
	}
	if withMetadata && d.metadata != nil {
		t.metadata = d.metadata.Transaction()
	}
	return t
}

// Metadata returns the metadata transaction handle, which is nil for
// blob-only transactions
func (t *Txn) Metadata() types.Txn {
	return t.metadata
}

// Blob returns the blob transaction handle
func (t *Txn) Blob() types.Txn {
	return t.blob
}

// Do runs fn and commits on success. A failed fn rolls the transaction back
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return t.Commit()
}

// Commit commits the blob side first, then the metadata side
func (t *Txn) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	if !t.writable {
		return t.abort()
	}
	if t.blob == nil && t.metadata == nil {
		t.done = true
		return types.ErrNoStoreAvailable
	}
	if t.blob != nil && t.metadata != nil {
		if err := t.db.updateCommitTimestamp(t, time.Now().UnixMilli()); err != nil {
			_ = t.abort()
			return fmt.Errorf("stamp commit: %w", err)
		}
	}
	if t.blob != nil {
		if err := t.blob.Commit(); err != nil {
			t.blob = nil
			_ = t.abort()
			return fmt.Errorf("commit blob store: %w", err)
		}
	}
	if t.metadata != nil {
		if err := t.metadata.Commit(); err != nil {
			// The blob side is already durable. The timestamp mismatch is
			// reported by the next open
			t.db.logger.Error(
				"metadata commit failed after blob commit",
				"component", "database",
				"error", err,
			)
			_ = t.metadata.Rollback()
			t.done = true
			return fmt.Errorf("commit metadata store: %w", err)
		}
	}
	t.done = true
	return nil
}

// Rollback discards both sides. It is a no-op on a finished transaction
func (t *Txn) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.abort()
}

func (t *Txn) abort() error {
	if t.done {
		return nil
	}
	t.done = true
	var err error
	if t.blob != nil {
		if rbErr := t.blob.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("blob rollback: %w", rbErr))
		}
	}
	if t.metadata != nil {
		if rbErr := t.metadata.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("metadata rollback: %w", rbErr))
		}
	}
	return err
}

// discard is Rollback for deferred read-only use
func (t *Txn) discard() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"failed to discard transaction",
			"component", "database",
			"error", err,
		)
	}
}
