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
	"fmt"

	"github.com/blinklabs-io/lazarus/database/types"
	"gorm.io/gorm/clause"
)

const commitStampRow = 1

// commitStamp is the single-row table holding the last commit timestamp
type commitStamp struct {
	ID        uint `gorm:"primarykey"`
	Timestamp int64
}

func (commitStamp) TableName() string {
	return "commit_timestamp"
}

// GetCommitTimestamp returns 0 when nothing has been committed yet
func (d *MetadataStoreSqlite) GetCommitTimestamp() (int64, error) {
	var stamp commitStamp
	result := d.DB().Limit(1).Find(&stamp, commitStampRow)
	if result.Error != nil {
		return 0, fmt.Errorf("read commit timestamp: %w", result.Error)
	}
	return stamp.Timestamp, nil
}

func (d *MetadataStoreSqlite) SetCommitTimestamp(
	timestamp int64,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"timestamp"}),
	}).Create(&commitStamp{ID: commitStampRow, Timestamp: timestamp})
	if result.Error != nil {
		return fmt.Errorf("write commit timestamp: %w", result.Error)
	}
	return nil
}
