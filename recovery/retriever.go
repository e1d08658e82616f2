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

// Package recovery rebuilds the in-memory chain state of a node from its
// persisted store after a restart
package recovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type NodeRole string

const (
	NodeRoleNormal NodeRole = "normal"
	NodeRoleDS     NodeRole = "ds"
	NodeRoleLookup NodeRole = "lookup"
)

func (r NodeRole) Valid() bool {
	switch r {
	case NodeRoleNormal, NodeRoleDS, NodeRoleLookup:
		return true
	}
	return false
}

// Store is the persisted block, delta and metadata store
type Store interface {
	GetAllTxBlocks() ([]*models.TxBlock, error)
	DeleteTxBlock(blockNum uint64) error
	GetAllBlockLinks() ([]models.BlockLink, error)
	ResetBlockLinks() error
	GetDSBlock(dsIndex uint64) (*models.DSBlock, error)
	DeleteDSBlock(dsIndex uint64) error
	GetVCBlock(hash models.Hash) (*models.VCBlock, error)
	DeleteVCBlock(hash models.Hash) error
	GetFallbackBlock(hash models.Hash) (*models.FallbackBlockWithShards, error)
	DeleteFallbackBlock(hash models.Hash) error
	GetStateDelta(blockNum uint64) ([]byte, error)
	PutStateDelta(blockNum uint64, delta []byte) error
	ResetStateDeltas() error
	RefreshStateDeltas() error
	GetMetadata(name string) (string, error)
	PutMetadata(name string, value string) error
	PutCommitteeSnapshot(dsIndex uint64, members []models.CommitteeMember) error
	DeleteCommitteeSnapshotsFrom(dsIndex uint64) error
	GetAllTxBodyTmp() ([]models.Hash, error)
	ResetTxBodyTmp() error
	DeleteTxBody(hash models.Hash) error
	ResetAll() error
}

// AccountStore holds the account state that state deltas are applied to
type AccountStore interface {
	DeserializeDelta(data []byte, revertible bool) error
	MoveUpdatesToDisk() error
	RetrieveFromDisk() error
	StateRootHash() models.Hash
}

// Node receives the recovered chain state
type Node interface {
	AddTxBlock(block *models.TxBlock) error
	LastTxBlock() (*models.TxBlock, error)
	AddDSBlock(block *models.DSBlock) error
	AddBlockLink(link models.BlockLink) error
	// ResetBlockLinkChains empties the DS block and block link chains
	ResetBlockLinkChains()
	UpdateCommitteeOnDSBlock(
		c []models.CommitteeMember,
		block *models.DSBlock,
	) []models.CommitteeMember
	UpdateCommitteeOnViewChange(
		block *models.VCBlock,
		c []models.CommitteeMember,
	) []models.CommitteeMember
	UpdateCommitteeOnFallback(
		shardID uint32,
		leaderKey []byte,
		leaderPeer models.Peer,
		c []models.CommitteeMember,
		shards []models.Shard,
	) ([]models.CommitteeMember, error)
}

// ColdStore is an optional archive of state deltas
type ColdStore interface {
	FetchStateDelta(ctx context.Context, blockNum uint64) ([]byte, bool, error)
}

type Config struct {
	Logger           *slog.Logger
	PromRegistry     prometheus.Registerer
	TracerProvider   trace.TracerProvider
	Store            Store
	AccountStore     AccountStore
	Node             Node
	ColdStore        ColdStore
	EpochSize        uint64
	RetentionEpochs  uint64
	NodeRole         NodeRole
	InitialCommittee []models.CommitteeMember
}

type Retriever struct {
	config  Config
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics recoveryMetrics
	// Loaded from metadata once and never refreshed
	latestActiveDSBlockNum *uint64
	committee              []models.CommitteeMember
}

func New(cfg Config) (*Retriever, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: store must be provided", ErrInvalidConfig)
	}
	if cfg.AccountStore == nil {
		return nil, fmt.Errorf(
			"%w: account store must be provided",
			ErrInvalidConfig,
		)
	}
	if cfg.Node == nil {
		return nil, fmt.Errorf("%w: node must be provided", ErrInvalidConfig)
	}
	if cfg.EpochSize == 0 {
		return nil, fmt.Errorf(
			"%w: epoch size must be greater than zero",
			ErrInvalidConfig,
		)
	}
	if cfg.NodeRole == "" {
		cfg.NodeRole = NodeRoleNormal
	}
	if !cfg.NodeRole.Valid() {
		return nil, fmt.Errorf(
			"%w: unknown node role %q",
			ErrInvalidConfig,
			cfg.NodeRole,
		)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	r := &Retriever{
		config: cfg,
		logger: cfg.Logger.With("component", "recovery"),
		tracer: cfg.TracerProvider.Tracer(
			"github.com/blinklabs-io/lazarus/recovery",
		),
	}
	r.metrics.init(cfg.PromRegistry)
	return r, nil
}

// Committee returns the committee composition produced by the last
// successful RetrieveBlockLink
func (r *Retriever) Committee() []models.CommitteeMember {
	if r.committee == nil {
		return nil
	}
	ret := make([]models.CommitteeMember, len(r.committee))
	copy(ret, r.committee)
	return ret
}

// LatestActiveDSBlockNum returns the cached latest active DS block number
func (r *Retriever) LatestActiveDSBlockNum() (uint64, bool) {
	if r.latestActiveDSBlockNum == nil {
		return 0, false
	}
	return *r.latestActiveDSBlockNum, true
}
