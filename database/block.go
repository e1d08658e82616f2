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

// PutTxBlock stores a TX block under its block number
func (d *Database) PutTxBlock(block *models.TxBlock) error {
	data, err := block.Cbor()
	if err != nil {
		return err
	}
	return d.blobSet(types.TxBlockKey(block.BlockNum()), data)
}

// GetTxBlock returns the TX block with the given number
func (d *Database) GetTxBlock(blockNum uint64) (*models.TxBlock, error) {
	data, err := d.blobGet(
		types.TxBlockKey(blockNum),
		models.ErrTxBlockNotFound,
	)
	if err != nil {
		return nil, err
	}
	return models.NewTxBlockFromCbor(data)
}

// GetAllTxBlocks returns every stored TX block in ascending block number order
func (d *Database) GetAllTxBlocks() ([]*models.TxBlock, error) {
	var ret []*models.TxBlock
	err := d.blobScan(
		types.TxBlockKeyPrefix,
		func(_ []byte, val []byte) error {
			block, err := models.NewTxBlockFromCbor(val)
			if err != nil {
				return err
			}
			ret = append(ret, block)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// DeleteTxBlock removes the TX block with the given number
func (d *Database) DeleteTxBlock(blockNum uint64) error {
	return d.blobDelete(
		types.TxBlockKey(blockNum),
		models.ErrTxBlockNotFound,
	)
}

// PutDSBlock stores a DS block under its DS index
func (d *Database) PutDSBlock(block *models.DSBlock) error {
	data, err := block.Cbor()
	if err != nil {
		return err
	}
	return d.blobSet(types.DSBlockKey(block.DSIndex), data)
}

func (d *Database) GetDSBlock(dsIndex uint64) (*models.DSBlock, error) {
	data, err := d.blobGet(
		types.DSBlockKey(dsIndex),
		models.ErrDSBlockNotFound,
	)
	if err != nil {
		return nil, err
	}
	return models.NewDSBlockFromCbor(data)
}

func (d *Database) DeleteDSBlock(dsIndex uint64) error {
	return d.blobDelete(
		types.DSBlockKey(dsIndex),
		models.ErrDSBlockNotFound,
	)
}

// PutVCBlock stores a view change block under its hash and returns the hash
func (d *Database) PutVCBlock(block *models.VCBlock) (models.Hash, error) {
	hash, err := block.Hash()
	if err != nil {
		return models.Hash{}, err
	}
	data, err := block.Cbor()
	if err != nil {
		return models.Hash{}, err
	}
	if err := d.blobSet(types.VCBlockKey(hash.Bytes()), data); err != nil {
		return models.Hash{}, err
	}
	return hash, nil
}

func (d *Database) GetVCBlock(hash models.Hash) (*models.VCBlock, error) {
	data, err := d.blobGet(
		types.VCBlockKey(hash.Bytes()),
		models.ErrVCBlockNotFound,
	)
	if err != nil {
		return nil, err
	}
	return models.NewVCBlockFromCbor(data)
}

func (d *Database) DeleteVCBlock(hash models.Hash) error {
	return d.blobDelete(
		types.VCBlockKey(hash.Bytes()),
		models.ErrVCBlockNotFound,
	)
}

// PutFallbackBlock stores a fallback block with its shard layout under the
// block hash and returns the hash
func (d *Database) PutFallbackBlock(
	block *models.FallbackBlockWithShards,
) (models.Hash, error) {
	hash, err := block.Hash()
	if err != nil {
		return models.Hash{}, err
	}
	data, err := block.Cbor()
	if err != nil {
		return models.Hash{}, err
	}
	if err := d.blobSet(types.FallbackBlockKey(hash.Bytes()), data); err != nil {
		return models.Hash{}, err
	}
	return hash, nil
}

func (d *Database) GetFallbackBlock(
	hash models.Hash,
) (*models.FallbackBlockWithShards, error) {
	data, err := d.blobGet(
		types.FallbackBlockKey(hash.Bytes()),
		models.ErrFallbackBlockNotFound,
	)
	if err != nil {
		return nil, err
	}
	return models.NewFallbackBlockWithShardsFromCbor(data)
}

func (d *Database) DeleteFallbackBlock(hash models.Hash) error {
	return d.blobDelete(
		types.FallbackBlockKey(hash.Bytes()),
		models.ErrFallbackBlockNotFound,
	)
}
