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

package lazarus_test

import (
	"context"
	"testing"

	"github.com/blinklabs-io/lazarus"
	"github.com/blinklabs-io/lazarus/accountstate"
	"github.com/blinklabs-io/lazarus/database"
	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/blinklabs-io/lazarus/recovery"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func member(b byte) models.CommitteeMember {
	return models.CommitteeMember{
		PubKey: []byte{b, b},
		Peer:   models.Peer{IP: "127.0.0.1", Port: 4000 + uint16(b)},
	}
}

type discardPersistence struct{}

func (discardPersistence) GetAllAccounts() ([]*models.Account, error) {
	return nil, nil
}

func (discardPersistence) WriteAccounts([]*models.Account, []models.Address) error {
	return nil
}

// seed stores tx blocks 0..last, each with a delta setting one account to
// balance n, plus a single DS epoch
func seed(t *testing.T, db *database.Database, last uint64, incomplete string) {
	t.Helper()
	for n := uint64(0); n <= last; n++ {
		delta, err := accountstate.EncodeDelta(
			accountstate.NewAccountDelta(models.Address{1}, uint256.NewInt(n), n),
		)
		require.NoError(t, err)
		root, err := accountstate.NewStore(
			accountstate.StoreConfig{DB: discardPersistence{}},
		)
		require.NoError(t, err)
		require.NoError(t, root.DeserializeDelta(delta, false))
		require.NoError(t, db.PutTxBlock(&models.TxBlock{
			Header: models.TxBlockHeader{
				BlockNum:      n,
				StateRootHash: root.StateRootHash(),
			},
		}))
		require.NoError(t, db.PutStateDelta(n, delta))
	}
	ds := &models.DSBlock{DSIndex: 0, PowWinners: []models.CommitteeMember{member(9)}}
	require.NoError(t, db.PutDSBlock(ds))
	hash, err := ds.Hash()
	require.NoError(t, err)
	require.NoError(t, db.PutBlockLink(models.DSLink{
		LinkPosition: models.LinkPosition{Index: 0, DSIndex: 0},
		Hash:         hash,
	}))
	require.NoError(t, db.PutMetadata(models.MetadataLatestActiveDSBlockNum, "0"))
	require.NoError(t, db.PutMetadata(models.MetadataDSIncomplete, incomplete))
}

func newNode(t *testing.T, opts ...lazarus.ConfigOptionFunc) *lazarus.Node {
	t.Helper()
	opts = append(
		[]lazarus.ConfigOptionFunc{
			lazarus.WithInMemory(true),
			lazarus.WithEpochSize(10),
			lazarus.WithPrometheusRegistry(prometheus.NewRegistry()),
			lazarus.WithInitialCommittee(
				[]models.CommitteeMember{member(1), member(2)},
			),
		},
		opts...,
	)
	n, err := lazarus.New(lazarus.NewConfig(opts...))
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	require.NoError(t, n.Open())
	return n
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := lazarus.New(lazarus.NewConfig(lazarus.WithInMemory(true), lazarus.WithEpochSize(0)))
	require.Error(t, err)
	_, err = lazarus.New(lazarus.NewConfig(lazarus.WithInMemory(true), lazarus.WithNodeRole("miner")))
	require.Error(t, err)
	_, err = lazarus.New(lazarus.NewConfig())
	require.Error(t, err)
}

func TestRecover(t *testing.T) {
	n := newNode(t)
	seed(t, n.Database(), 12, "0")
	require.NoError(t, n.Recover(context.Background()))

	assert.Equal(t, 13, n.TxBlockChain().Len())
	assert.Equal(t, 1, n.DSBlockChain().Len())
	assert.Equal(t, 1, n.BlockLinkChain().Len())
	assert.True(t, n.Committee().Equal([]models.CommitteeMember{member(9), member(1)}))
	acct, ok := n.AccountState().Get(models.Address{1})
	require.True(t, ok)
	assert.Equal(t, uint64(12), acct.Balance.Uint64())

	// A second pass over the same stores gives the same result
	require.NoError(t, n.Recover(context.Background()))
	assert.Equal(t, 13, n.TxBlockChain().Len())
	assert.Equal(t, 1, n.BlockLinkChain().Len())
}

func TestRecoverTrimIncomplete(t *testing.T) {
	n := newNode(t, lazarus.WithTrimIncomplete(true), lazarus.WithValidateStates(false))
	seed(t, n.Database(), 12, "0")
	require.NoError(t, n.Recover(context.Background()))
	assert.Equal(t, 10, n.TxBlockChain().Len())
	last, err := n.TxBlockChain().LastBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(9), last.BlockNum())
}

func TestRecoverFailureResync(t *testing.T) {
	n := newNode(t, lazarus.WithResyncOnFailure(true))
	seed(t, n.Database(), 12, "0")
	// Block links reference a missing DS block
	require.NoError(t, n.Database().DeleteDSBlock(0))
	err := n.Recover(context.Background())
	var missing *recovery.MissingBlockError
	require.ErrorAs(t, err, &missing)

	blocks, err := n.Database().GetAllTxBlocks()
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestRecoverEmptyStore(t *testing.T) {
	n := newNode(t)
	err := n.Recover(context.Background())
	require.ErrorIs(t, err, recovery.ErrNoTxBlocks)
}

func TestCleanAll(t *testing.T) {
	n := newNode(t)
	seed(t, n.Database(), 3, "0")
	require.NoError(t, n.CleanAll())
	blocks, err := n.Database().GetAllTxBlocks()
	require.NoError(t, err)
	assert.Empty(t, blocks)
}
