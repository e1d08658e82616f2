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
	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/blinklabs-io/lazarus/database/types"
)

// accountBatchSize bounds the number of account writes in a single blob
// transaction
const accountBatchSize = 1000

// GetAllAccounts returns every persisted account in address order
func (d *Database) GetAllAccounts() ([]*models.Account, error) {
	var ret []*models.Account
	err := d.blobScan(
		types.AccountKeyPrefix,
		func(_ []byte, val []byte) error {
			account, err := models.NewAccountFromCbor(val)
			if err != nil {
				return err
			}
			ret = append(ret, account)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// WriteAccounts persists the updated accounts and removes the deleted ones
func (d *Database) WriteAccounts(
	updates []*models.Account,
	deletes []models.Address,
) error {
	for start := 0; start < len(updates); start += accountBatchSize {
		end := min(start+accountBatchSize, len(updates))
		err := d.update(func(txn *Txn) error {
			for _, account := range updates[start:end] {
				data, err := account.Cbor()
				if err != nil {
					return err
				}
				if err := d.blob.Set(
					txn.Blob(),
					types.AccountKey(account.Address[:]),
					data,
				); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	for start := 0; start < len(deletes); start += accountBatchSize {
		end := min(start+accountBatchSize, len(deletes))
		err := d.update(func(txn *Txn) error {
			for _, addr := range deletes[start:end] {
				if err := d.blob.Delete(
					txn.Blob(),
					types.AccountKey(addr[:]),
				); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
