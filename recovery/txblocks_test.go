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
	"context"
	"testing"

	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/blinklabs-io/lazarus/recovery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveTxBlocksEmpty(t *testing.T) {
	f := newFixture(t)
	r := f.retriever(t)
	err := r.RetrieveTxBlocks(context.Background(), false)
	assert.ErrorIs(t, err, recovery.ErrNoTxBlocks)
}

func TestRetrieveTxBlocksKeepsOpenEpoch(t *testing.T) {
	f := newFixture(t)
	seedTxBlocks(t, f.db, 12)
	r := f.retriever(t)
	require.NoError(t, r.RetrieveTxBlocks(context.Background(), false))

	expected := make([]uint64, 0, 13)
	for n := uint64(0); n <= 12; n++ {
		expected = append(expected, n)
	}
	assert.Equal(t, expected, blockNums(f.node.txChain.Blocks()))
	stored, err := f.db.GetAllTxBlocks()
	require.NoError(t, err)
	assert.Len(t, stored, 13)

	// The buffered deltas of blocks 10 to 12 were applied in order
	acct, ok := f.accounts.Get(addr(1))
	require.True(t, ok)
	assert.Equal(t, uint64(13), acct.Balance.Uint64())
	assert.Equal(t, uint64(12), acct.Nonce)
	require.NoError(t, r.ValidateStates())
	assert.Equal(t, 13.0, gatherValue(t, f.registry, "lazarus_recovery_tx_blocks"))
}

func TestRetrieveTxBlocksTrimsOpenEpoch(t *testing.T) {
	f := newFixture(t)
	seedTxBlocks(t, f.db, 12)
	r := f.retriever(t)
	require.NoError(t, r.RetrieveTxBlocks(context.Background(), true))

	assert.Equal(
		t,
		[]uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		blockNums(f.node.txChain.Blocks()),
	)
	stored, err := f.db.GetAllTxBlocks()
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, blockNums(stored))
	for n := uint64(10); n <= 12; n++ {
		_, err := f.db.GetTxBlock(n)
		assert.ErrorIs(t, err, models.ErrTxBlockNotFound)
	}
	// None of the trimmed deltas reached the account state
	_, ok := f.accounts.Get(addr(1))
	assert.False(t, ok)
	assert.Equal(t, 3.0, gatherValue(t, f.registry, "lazarus_recovery_trimmed_tx_blocks_total"))
	assert.Zero(t, gatherValue(t, f.registry, "lazarus_recovery_deltas_applied_total"))
}

func TestRetrieveTxBlocksTrimIsPrefixPreserving(t *testing.T) {
	const epochSize = 7
	for _, last := range []uint64{0, 5, 6, 7, 13, 20} {
		untrimmed := newFixture(t)
		seedTxBlocks(t, untrimmed.db, last)
		r := untrimmed.retriever(t, func(cfg *recovery.Config) {
			cfg.EpochSize = epochSize
		})
		require.NoError(t, r.RetrieveTxBlocks(context.Background(), false))

		trimmed := newFixture(t)
		seedTxBlocks(t, trimmed.db, last)
		r = trimmed.retriever(t, func(cfg *recovery.Config) {
			cfg.EpochSize = epochSize
		})
		require.NoError(t, r.RetrieveTxBlocks(context.Background(), true))

		extra := recovery.OpenEpochBlocks(last, epochSize)
		full := blockNums(untrimmed.node.txChain.Blocks())
		require.Len(t, full, int(last+1))
		assert.Equal(
			t,
			full[:len(full)-int(extra)],
			blockNums(trimmed.node.txChain.Blocks()),
			"last block %d", last,
		)
		if extra > 0 {
			_, ok := trimmed.accounts.Get(addr(1))
			assert.False(t, ok, "last block %d", last)
		}
	}
}

func TestRetrieveTxBlocksReplaysWindowFromColdStore(t *testing.T) {
	f := newFixture(t)
	seedTxBlocks(t, f.db, 49)
	cold := &testColdStore{deltas: map[uint64][]byte{}}
	for n := uint64(0); n < 50; n++ {
		if n == 47 {
			continue
		}
		cold.deltas[n] = balanceDelta(t, n)
	}
	r := f.retriever(t, func(cfg *recovery.Config) {
		cfg.ColdStore = cold
		cfg.RetentionEpochs = 1
	})
	require.NoError(t, r.RetrieveTxBlocks(context.Background(), false))
	// Only the retained epoch is fetched
	assert.Equal(
		t,
		[]uint64{40, 41, 42, 43, 44, 45, 46, 47, 48, 49},
		cold.fetched,
	)
	assert.Equal(t, 1.0, gatherValue(t, f.registry, "lazarus_recovery_coldstore_misses_total"))
	require.NoError(t, r.ValidateStates())
}

func TestRetrieveTxBlocksDeleteFailure(t *testing.T) {
	f := newFixture(t)
	seedTxBlocks(t, f.db, 12)
	r := f.retriever(t, func(cfg *recovery.Config) {
		cfg.Store = &failingStore{Store: f.db, deleteTxBlockErr: errInjected}
	})
	err := r.RetrieveTxBlocks(context.Background(), true)
	require.ErrorIs(t, err, errInjected)
	assert.Zero(t, f.node.txChain.Len())
}

func TestRetrieveTxBlocksBadBufferedDelta(t *testing.T) {
	f := newFixture(t)
	seedTxBlocks(t, f.db, 11)
	require.NoError(t, f.db.PutStateDelta(11, []byte{0xff, 0x01}))
	r := f.retriever(t)
	err := r.RetrieveTxBlocks(context.Background(), false)
	var decodeErr *recovery.DeltaDecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, uint64(11), decodeErr.BlockNum)

	// Trimming discards the bad delta without decoding it
	f = newFixture(t)
	seedTxBlocks(t, f.db, 11)
	require.NoError(t, f.db.PutStateDelta(11, []byte{0xff, 0x01}))
	r = f.retriever(t)
	require.NoError(t, r.RetrieveTxBlocks(context.Background(), true))
	assert.Equal(t, 10, f.node.txChain.Len())
}

func TestRetrieveTxBlocksKeepsOpenEpochDeltas(t *testing.T) {
	f := newFixture(t)
	seedTxBlocks(t, f.db, 12)
	require.NoError(t, f.retriever(t).RetrieveTxBlocks(context.Background(), false))
	for n := uint64(10); n <= 12; n++ {
		delta, err := f.db.GetStateDelta(n)
		require.NoError(t, err)
		assert.Equal(t, balanceDelta(t, n), delta)
	}
	_, err := f.db.GetStateDelta(9)
	assert.ErrorIs(t, err, models.ErrStateDeltaNotFound)

	// A later recovery over the same store reaches the same state
	again := newFixtureWithDB(t, f.db)
	r := again.retriever(t)
	require.NoError(t, r.RetrieveStates())
	require.NoError(t, r.RetrieveTxBlocks(context.Background(), false))
	require.NoError(t, r.ValidateStates())
}
