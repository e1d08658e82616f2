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

package sqlite

import (
	"errors"

	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/blinklabs-io/lazarus/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetRecoveryMetadata returns the value stored under name
func (d *MetadataStoreSqlite) GetRecoveryMetadata(
	name string,
	txn types.Txn,
) (string, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return "", err
	}
	var tmpMetadata models.RecoveryMetadata
	result := db.Where("name = ?", name).First(&tmpMetadata)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", models.ErrRecoveryMetadataNotFound
		}
		return "", result.Error
	}
	return tmpMetadata.Value, nil
}

// SetRecoveryMetadata creates or replaces the value stored under name
func (d *MetadataStoreSqlite) SetRecoveryMetadata(
	name string,
	value string,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpMetadata := models.RecoveryMetadata{
		Name:  name,
		Value: value,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&tmpMetadata)
	return result.Error
}

// GetCommitteeSnapshot returns the committee recorded for dsIndex
func (d *MetadataStoreSqlite) GetCommitteeSnapshot(
	dsIndex uint64,
	txn types.Txn,
) (*models.CommitteeSnapshot, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.CommitteeSnapshot
	result := db.Where("ds_index = ?", dsIndex).First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, models.ErrCommitteeSnapshotNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// SetCommitteeSnapshot creates or replaces the committee recorded for dsIndex
func (d *MetadataStoreSqlite) SetCommitteeSnapshot(
	dsIndex uint64,
	members []byte,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	tmpSnapshot := models.CommitteeSnapshot{
		DSIndex: dsIndex,
		Members: members,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ds_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"members"}),
	}).Create(&tmpSnapshot)
	return result.Error
}

// DeleteCommitteeSnapshotsFrom removes the snapshots for dsIndex and later epochs
func (d *MetadataStoreSqlite) DeleteCommitteeSnapshotsFrom(
	dsIndex uint64,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Where("ds_index >= ?", dsIndex).Delete(&models.CommitteeSnapshot{})
	return result.Error
}
