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
	"errors"
	"testing"

	"github.com/blinklabs-io/lazarus/accountstate"
	"github.com/blinklabs-io/lazarus/chain"
	"github.com/blinklabs-io/lazarus/committee"
	"github.com/blinklabs-io/lazarus/database"
	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/blinklabs-io/lazarus/recovery"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// testNode keeps the recovered chains in memory and persists block links
// the same way a running node does
type testNode struct {
	db      *database.Database
	txChain *chain.TxBlockChain
	dsChain *chain.DSBlockChain
	links   *chain.BlockLinkChain
}

func newTestNode(db *database.Database) *testNode {
	return &testNode{
		db:      db,
		txChain: chain.NewTxBlockChain(),
		dsChain: chain.NewDSBlockChain(),
		links:   chain.NewBlockLinkChain(),
	}
}

func (n *testNode) AddTxBlock(block *models.TxBlock) error {
	return n.txChain.AddBlock(block)
}

func (n *testNode) LastTxBlock() (*models.TxBlock, error) {
	return n.txChain.LastBlock()
}

func (n *testNode) AddDSBlock(block *models.DSBlock) error {
	return n.dsChain.AddBlock(block)
}

func (n *testNode) AddBlockLink(link models.BlockLink) error {
	if err := n.links.AddLink(link); err != nil {
		return err
	}
	return n.db.PutBlockLink(link)
}

func (n *testNode) ResetBlockLinkChains() {
	n.dsChain.Reset()
	n.links.Reset()
}

func (n *testNode) UpdateCommitteeOnDSBlock(
	c []models.CommitteeMember,
	block *models.DSBlock,
) []models.CommitteeMember {
	return committee.UpdateOnDSBlock(c, block)
}

func (n *testNode) UpdateCommitteeOnViewChange(
	block *models.VCBlock,
	c []models.CommitteeMember,
) []models.CommitteeMember {
	return committee.UpdateOnViewChange(c, block)
}

func (n *testNode) UpdateCommitteeOnFallback(
	shardID uint32,
	leaderKey []byte,
	leaderPeer models.Peer,
	_ []models.CommitteeMember,
	shards []models.Shard,
) ([]models.CommitteeMember, error) {
	return committee.UpdateOnFallback(shardID, leaderKey, leaderPeer, shards)
}

// testColdStore serves archived deltas from a map
type testColdStore struct {
	deltas  map[uint64][]byte
	errs    map[uint64]error
	fetched []uint64
}

func (c *testColdStore) FetchStateDelta(
	_ context.Context,
	blockNum uint64,
) ([]byte, bool, error) {
	c.fetched = append(c.fetched, blockNum)
	if err, ok := c.errs[blockNum]; ok {
		return nil, false, err
	}
	data, ok := c.deltas[blockNum]
	return data, ok, nil
}

type fixture struct {
	db       *database.Database
	accounts *accountstate.Store
	node     *testNode
	registry *prometheus.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.New(&database.Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return newFixtureWithDB(t, db)
}

func newFixtureWithDB(t *testing.T, db *database.Database) *fixture {
	t.Helper()
	accounts, err := accountstate.NewStore(accountstate.StoreConfig{DB: db})
	require.NoError(t, err)
	return &fixture{
		db:       db,
		accounts: accounts,
		node:     newTestNode(db),
		registry: prometheus.NewRegistry(),
	}
}

func (f *fixture) retriever(
	t *testing.T,
	opts ...func(*recovery.Config),
) *recovery.Retriever {
	t.Helper()
	cfg := recovery.Config{
		PromRegistry:     f.registry,
		Store:            f.db,
		AccountStore:     f.accounts,
		Node:             f.node,
		EpochSize:        10,
		RetentionEpochs:  2,
		NodeRole:         recovery.NodeRoleNormal,
		InitialCommittee: testCommittee(1, 2, 3, 4),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	r, err := recovery.New(cfg)
	require.NoError(t, err)
	return r
}

func addr(b byte) models.Address {
	return models.Address{b}
}

func member(b byte) models.CommitteeMember {
	return models.CommitteeMember{
		PubKey: []byte{b, b, b},
		Peer:   models.Peer{IP: "10.0.0.1", Port: 30300 + uint16(b)},
	}
}

func testCommittee(ids ...byte) []models.CommitteeMember {
	ret := make([]models.CommitteeMember, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, member(id))
	}
	return ret
}

// balanceDelta sets account 1 to balance blockNum+1
func balanceDelta(t *testing.T, blockNum uint64) []byte {
	t.Helper()
	data, err := accountstate.EncodeDelta(
		accountstate.NewAccountDelta(addr(1), uint256.NewInt(blockNum+1), blockNum),
	)
	require.NoError(t, err)
	return data
}

// expectedRoot returns the state root after applying the given deltas to an
// empty account state
func expectedRoot(t *testing.T, deltas ...[]byte) models.Hash {
	t.Helper()
	store, err := accountstate.NewStore(
		accountstate.StoreConfig{DB: discardPersistence{}},
	)
	require.NoError(t, err)
	for _, delta := range deltas {
		require.NoError(t, store.DeserializeDelta(delta, false))
	}
	return store.StateRootHash()
}

type discardPersistence struct{}

func (discardPersistence) GetAllAccounts() ([]*models.Account, error) {
	return nil, nil
}

func (discardPersistence) WriteAccounts([]*models.Account, []models.Address) error {
	return nil
}

func txBlock(blockNum uint64, root models.Hash) *models.TxBlock {
	return &models.TxBlock{
		Header: models.TxBlockHeader{
			BlockNum:      blockNum,
			DSBlockNum:    blockNum / 10,
			StateRootHash: root,
			Timestamp:     1000 + blockNum,
		},
	}
}

// seedTxBlocks stores blocks 0..last with a balance delta for each
func seedTxBlocks(t *testing.T, db *database.Database, last uint64) {
	t.Helper()
	for n := uint64(0); n <= last; n++ {
		delta := balanceDelta(t, n)
		require.NoError(t, db.PutTxBlock(txBlock(n, expectedRoot(t, delta))))
		require.NoError(t, db.PutStateDelta(n, delta))
	}
}

func blockNums(blocks []*models.TxBlock) []uint64 {
	ret := make([]uint64, 0, len(blocks))
	for _, block := range blocks {
		ret = append(ret, block.BlockNum())
	}
	return ret
}

type failingStore struct {
	recovery.Store
	deleteTxBlockErr error
	deleteDSBlockErr error
	deleteTxBodyErr  error
	txBodyTmpErr     error
	resetAllErr      error
}

func (s *failingStore) DeleteTxBlock(blockNum uint64) error {
	if s.deleteTxBlockErr != nil {
		return s.deleteTxBlockErr
	}
	return s.Store.DeleteTxBlock(blockNum)
}

func (s *failingStore) DeleteDSBlock(dsIndex uint64) error {
	if s.deleteDSBlockErr != nil {
		return s.deleteDSBlockErr
	}
	return s.Store.DeleteDSBlock(dsIndex)
}

func (s *failingStore) DeleteTxBody(hash models.Hash) error {
	if s.deleteTxBodyErr != nil {
		return s.deleteTxBodyErr
	}
	return s.Store.DeleteTxBody(hash)
}

func (s *failingStore) GetAllTxBodyTmp() ([]models.Hash, error) {
	if s.txBodyTmpErr != nil {
		return nil, s.txBodyTmpErr
	}
	return s.Store.GetAllTxBodyTmp()
}

func (s *failingStore) ResetAll() error {
	if s.resetAllErr != nil {
		return s.resetAllErr
	}
	return s.Store.ResetAll()
}

var errInjected = errors.New("injected failure")

func gatherValue(t *testing.T, registry *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		metric := family.GetMetric()[0]
		if metric.GetCounter() != nil {
			return metric.GetCounter().GetValue()
		}
		return metric.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
