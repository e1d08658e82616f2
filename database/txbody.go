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

// PutTxBody stores a transaction body under its hash
func (d *Database) PutTxBody(hash models.Hash, body []byte) error {
	return d.blobSet(types.TxBodyKey(hash.Bytes()), body)
}

func (d *Database) GetTxBody(hash models.Hash) ([]byte, error) {
	return d.blobGet(
		types.TxBodyKey(hash.Bytes()),
		models.ErrTxBodyNotFound,
	)
}

func (d *Database) DeleteTxBody(hash models.Hash) error {
	return d.blobDelete(
		types.TxBodyKey(hash.Bytes()),
		models.ErrTxBodyNotFound,
	)
}

// PutTxBodyTmp marks a transaction body as written for a block that has not
// been finalized yet
func (d *Database) PutTxBodyTmp(hash models.Hash) error {
	return d.blobSet(types.TxBodyTmpKey(hash.Bytes()), []byte{})
}

// GetAllTxBodyTmp returns the hashes of every pending transaction body marker
func (d *Database) GetAllTxBodyTmp() ([]models.Hash, error) {
	var ret []models.Hash
	err := d.blobScan(
		types.TxBodyTmpKeyPrefix,
		func(key []byte, _ []byte) error {
			suffix, err := types.KeySuffix(key, types.TxBodyTmpKeyPrefix)
			if err != nil {
				return err
			}
			hash, err := models.HashFromBytes(suffix)
			if err != nil {
				return err
			}
			ret = append(ret, hash)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// ResetTxBodyTmp removes every pending transaction body marker
func (d *Database) ResetTxBodyTmp() error {
	return d.blob.DropPrefix([]byte(types.TxBodyTmpKeyPrefix))
}
