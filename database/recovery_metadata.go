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
)

// GetMetadata returns the recovery metadata value stored under name
func (d *Database) GetMetadata(name string) (string, error) {
	return d.metadata.GetRecoveryMetadata(name, nil)
}

// PutMetadata creates or replaces the recovery metadata value stored under name
func (d *Database) PutMetadata(name string, value string) error {
	return d.Transaction(true).Do(func(txn *Txn) error {
		return d.metadata.SetRecoveryMetadata(name, value, txn.Metadata())
	})
}

// PutCommitteeSnapshot records the committee as it stood after the DS block
// at dsIndex was applied
func (d *Database) PutCommitteeSnapshot(
	dsIndex uint64,
	members []models.CommitteeMember,
) error {
	data, err := models.EncodeCommitteeMembers(members)
	if err != nil {
		return err
	}
	return d.Transaction(true).Do(func(txn *Txn) error {
		return d.metadata.SetCommitteeSnapshot(dsIndex, data, txn.Metadata())
	})
}

func (d *Database) GetCommitteeSnapshot(
	dsIndex uint64,
) ([]models.CommitteeMember, error) {
	snapshot, err := d.metadata.GetCommitteeSnapshot(dsIndex, nil)
	if err != nil {
		return nil, err
	}
	return models.DecodeCommitteeMembers(snapshot.Members)
}

// DeleteCommitteeSnapshotsFrom removes the snapshots for dsIndex and every later epoch
func (d *Database) DeleteCommitteeSnapshotsFrom(dsIndex uint64) error {
	return d.Transaction(true).Do(func(txn *Txn) error {
		return d.metadata.DeleteCommitteeSnapshotsFrom(dsIndex, txn.Metadata())
	})
}
