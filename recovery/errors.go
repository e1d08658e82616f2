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

package recovery

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/lazarus/database/models"
)

var (
	ErrNoTxBlocks       = errors.New("no tx blocks in store")
	ErrNoBlockLinks     = errors.New("no block links in store")
	ErrDSIndexUnderflow = errors.New(
		"last block link is not a ds link and has ds index 0",
	)
	ErrMissingMetadata = errors.New("required recovery metadata missing")
	ErrInvalidConfig   = errors.New("invalid recovery config")
)

// DeltaDecodeError is returned when a state delta cannot be applied to the
// account state
type DeltaDecodeError struct {
	BlockNum uint64
	Err      error
}

func (e *DeltaDecodeError) Error() string {
	return fmt.Sprintf("apply state delta for block %d: %v", e.BlockNum, e.Err)
}

func (e *DeltaDecodeError) Unwrap() error {
	return e.Err
}

// MissingBlockError is returned when a block link references a block that
// cannot be loaded
type MissingBlockError struct {
	Link models.BlockLink
	Err  error
}

func (e *MissingBlockError) Error() string {
	pos := e.Link.Position()
	return fmt.Sprintf(
		"load %s block for link %d (ds index %d, hash %s): %v",
		e.Link.Type(),
		pos.Index,
		pos.DSIndex,
		e.Link.BlockHash(),
		e.Err,
	)
}

func (e *MissingBlockError) Unwrap() error {
	return e.Err
}

// StateRootMismatchError is returned when the recovered account state does
// not match the root claimed by the last accepted tx block
type StateRootMismatchError struct {
	BlockNum uint64
	Expected models.Hash
	Actual   models.Hash
}

func (e *StateRootMismatchError) Error() string {
	return fmt.Sprintf(
		"state root mismatch at block %d: block claims %s, account state has %s",
		e.BlockNum,
		e.Expected,
		e.Actual,
	)
}
