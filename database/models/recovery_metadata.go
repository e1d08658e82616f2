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

package models

// Recovery metadata names
const (
	MetadataLatestActiveDSBlockNum = "latest_active_ds_block_num"
	MetadataDSIncomplete           = "ds_incomplete"
)

// RecoveryMetadata holds the scalars that steer crash recovery. Values
// are stored as strings: block numbers in decimal and flags as "0" or "1"
type RecoveryMetadata struct {
	ID    uint   `gorm:"primarykey"`
	Name  string `gorm:"size:64;uniqueIndex;not null"`
	Value string `gorm:"not null"`
}

func (RecoveryMetadata) TableName() string {
	return "recovery_metadata"
}
