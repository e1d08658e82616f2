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

package chain

import (
	"errors"
	"fmt"
)

var ErrChainEmpty = errors.New("chain is empty")

// BlockNotFitChainTipError is returned when an appended entry does not
// extend the chain past its current tip
type BlockNotFitChainTipError struct {
	chain  string
	number uint64
	tip    uint64
}

func NewBlockNotFitChainTipError(
	chain string,
	number uint64,
	tip uint64,
) BlockNotFitChainTipError {
	return BlockNotFitChainTipError{
		chain:  chain,
		number: number,
		tip:    tip,
	}
}

func (e BlockNotFitChainTipError) Number() uint64 {
	return e.number
}

func (e BlockNotFitChainTipError) TipNumber() uint64 {
	return e.tip
}

func (e BlockNotFitChainTipError) Error() string {
	return fmt.Sprintf(
		"%s entry %d does not fit on current chain tip %d",
		e.chain,
		e.number,
		e.tip,
	)
}
