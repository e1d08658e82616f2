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

package recovery_test

import (
	"testing"

	"github.com/blinklabs-io/lazarus/chain"
	"github.com/blinklabs-io/lazarus/recovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStates(t *testing.T) {
	f := newFixture(t)
	delta := balanceDelta(t, 4)
	root := expectedRoot(t, delta)
	require.NoError(t, f.accounts.DeserializeDelta(delta, false))
	require.NoError(t, f.node.AddTxBlock(txBlock(4, root)))
	r := f.retriever(t)
	require.NoError(t, r.ValidateStates())
}

func TestValidateStatesSingleBitMismatch(t *testing.T) {
	delta := balanceDelta(t, 4)
	root := expectedRoot(t, delta)
	for _, bit := range []int{0, 7, 100, 255} {
		f := newFixture(t)
		require.NoError(t, f.accounts.DeserializeDelta(delta, false))
		claimed := root
		claimed[bit/8] ^= 1 << (bit % 8)
		require.NoError(t, f.node.AddTxBlock(txBlock(4, claimed)))
		err := f.retriever(t).ValidateStates()
		var mismatch *recovery.StateRootMismatchError
		require.ErrorAs(t, err, &mismatch, "bit %d", bit)
		assert.Equal(t, uint64(4), mismatch.BlockNum)
		assert.Equal(t, claimed, mismatch.Expected)
		assert.Equal(t, root, mismatch.Actual)
	}
}

func TestValidateStatesEmptyChain(t *testing.T) {
	f := newFixture(t)
	err := f.retriever(t).ValidateStates()
	assert.ErrorIs(t, err, chain.ErrChainEmpty)
}
