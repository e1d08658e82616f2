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

import "math"

// BlockRange is the half-open range of block numbers [Start, End)
type BlockRange struct {
	Start uint64
	End   uint64
}

func (r BlockRange) Empty() bool {
	return r.End <= r.Start
}

func (r BlockRange) Len() uint64 {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start
}

func (r BlockRange) Contains(blockNum uint64) bool {
	return blockNum >= r.Start && blockNum < r.End
}

// OpenEpochBlocks returns how many trailing blocks, ending at lastBlockNum,
// belong to an epoch that has not closed yet
func OpenEpochBlocks(lastBlockNum uint64, epochSize uint64) uint64 {
	return (lastBlockNum + 1) % epochSize
}

// ReplayWindow returns the blocks of the last retentionEpochs closed epochs.
// The window is empty when no epoch has closed
func ReplayWindow(
	lastBlockNum uint64,
	epochSize uint64,
	retentionEpochs uint64,
) BlockRange {
	extra := OpenEpochBlocks(lastBlockNum, epochSize)
	end := lastBlockNum + 1 - extra
	span := retentionEpochs * epochSize
	if epochSize != 0 && span/epochSize != retentionEpochs {
		span = math.MaxUint64
	}
	var start uint64
	if end > span {
		start = end - span
	}
	return BlockRange{Start: start, End: end}
}
