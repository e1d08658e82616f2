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

// PutBlockLink stores a block link under its index
func (d *Database) PutBlockLink(link models.BlockLink) error {
	data, err := models.EncodeBlockLink(link)
	if err != nil {
		return err
	}
	return d.blobSet(types.BlockLinkKey(link.Position().Index), data)
}

// GetAllBlockLinks returns every stored block link in ascending index order
func (d *Database) GetAllBlockLinks() ([]models.BlockLink, error) {
	var ret []models.BlockLink
	err := d.blobScan(
		types.BlockLinkKeyPrefix,
		func(_ []byte, val []byte) error {
			link, err := models.DecodeBlockLink(val)
			if err != nil {
				return err
			}
			ret = append(ret, link)
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// ResetBlockLinks removes every stored block link
func (d *Database) ResetBlockLinks() error {
	return d.blob.DropPrefix([]byte(types.BlockLinkKeyPrefix))
}
