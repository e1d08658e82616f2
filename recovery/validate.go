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
	"fmt"
)

// ValidateStates checks the account state root against the root claimed by
// the last accepted tx block
func (r *Retriever) ValidateStates() error {
	last, err := r.config.Node.LastTxBlock()
	if err != nil {
		return fmt.Errorf("get last tx block: %w", err)
	}
	expected := last.StateRootHash()
	actual := r.config.AccountStore.StateRootHash()
	if expected != actual {
		r.logger.Error(
			fmt.Sprintf(
				"state root mismatch at block %d",
				last.BlockNum(),
			),
			"expected", expected.String(),
			"actual", actual.String(),
		)
		return &StateRootMismatchError{
			BlockNum: last.BlockNum(),
			Expected: expected,
			Actual:   actual,
		}
	}
	r.logger.Info(
		fmt.Sprintf("state root verified at block %d", last.BlockNum()),
		"root", actual.String(),
	)
	return nil
}
