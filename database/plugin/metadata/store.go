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

package metadata

import (
	"fmt"

	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/blinklabs-io/lazarus/database/plugin"
	"github.com/blinklabs-io/lazarus/database/types"
	"gorm.io/gorm"
)

type MetadataStore interface {
	plugin.Plugin

	// Database
	Close() error
	DB() *gorm.DB
	Transaction() types.Txn
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	// Reset removes all rows from every table
	Reset() error

	// Recovery metadata
	GetRecoveryMetadata(
		string, // name
		types.Txn,
	) (string, error)
	SetRecoveryMetadata(
		string, // name
		string, // value
		types.Txn,
	) error

	// Committee snapshots
	GetCommitteeSnapshot(
		uint64, // dsIndex
		types.Txn,
	) (*models.CommitteeSnapshot, error)
	SetCommitteeSnapshot(
		uint64, // dsIndex
		[]byte, // members
		types.Txn,
	) error
	DeleteCommitteeSnapshotsFrom(
		uint64, // dsIndex
		types.Txn,
	) error
}

// New returns the started metadata plugin selected by name
func New(pluginName string) (MetadataStore, error) {
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
