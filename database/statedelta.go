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

// PutStateDelta stores the serialized state delta produced by a TX block
func (d *Database) PutStateDelta(blockNum uint64, delta []byte) error {
	return d.blobSet(types.StateDeltaKey(blockNum), delta)
}

func (d *Database) GetStateDelta(blockNum uint64) ([]byte, error) {
	return d.blobGet(
		types.StateDeltaKey(blockNum),
		models.ErrStateDeltaNotFound,
	)
}

// ResetStateDeltas removes every stored state delta
func (d *Database) ResetStateDeltas() error {
	return d.blob.DropPrefix([]byte(types.StateDeltaKeyPrefix))
}

// RefreshStateDeltas flushes pending state delta writes so that later reads
// observe them
func (d *Database) RefreshStateDeltas() error {
	return d.blob.Sync()
}
