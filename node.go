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

package lazarus

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/lazarus/accountstate"
	"github.com/blinklabs-io/lazarus/chain"
	"github.com/blinklabs-io/lazarus/committee"
	"github.com/blinklabs-io/lazarus/database"
	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/blinklabs-io/lazarus/database/plugin/coldstore"
	"github.com/blinklabs-io/lazarus/recovery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	// Register the bundled cold store plugins
	_ "github.com/blinklabs-io/lazarus/database/plugin/coldstore/dir"
	_ "github.com/blinklabs-io/lazarus/database/plugin/coldstore/gcs"
	_ "github.com/blinklabs-io/lazarus/database/plugin/coldstore/s3"
)

// Node owns the persisted stores of a node and rebuilds its in-memory state
// from them
type Node struct {
	db            *database.Database
	coldStore     coldstore.ColdStore
	accountState  *accountstate.Store
	retriever     *recovery.Retriever
	txChain       *chain.TxBlockChain
	dsChain       *chain.DSBlockChain
	linkChain     *chain.BlockLinkChain
	tracer        trace.Tracer
	committee     committee.Committee
	shutdownFuncs []func(context.Context) error
	config        Config
	mutex         sync.RWMutex
	closeOnce     sync.Once
}

func New(cfg Config) (*Node, error) {
	n := &Node{
		config:    cfg,
		txChain:   chain.NewTxBlockChain(),
		dsChain:   chain.NewDSBlockChain(),
		linkChain: chain.NewBlockLinkChain(),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Open opens the configured stores. Recover calls it when needed
func (n *Node) Open() error {
	if n.retriever != nil {
		return nil
	}
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	n.tracer = otel.GetTracerProvider().Tracer("github.com/blinklabs-io/lazarus")
	// Load database
	db, err := database.New(&database.Config{
		Logger:         n.config.logger,
		DataDir:        n.config.dataDir,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
		InMemory:       n.config.inMemory,
	})
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		// Recovery rebuilds everything it keeps from the blob store
		n.config.logger.Warn(
			"blob and metadata stores are out of sync",
			"component", "node",
			"error", err,
		)
	}
	// Load cold store
	if n.config.coldStorePlugin != "" {
		cs, err := coldstore.New(
			n.config.coldStorePlugin,
			n.config.logger,
			n.config.promRegistry,
		)
		if err != nil {
			return fmt.Errorf("failed to load cold store: %w", err)
		}
		n.coldStore = cs
	}
	// Load account state
	accountState, err := accountstate.NewStore(accountstate.StoreConfig{
		Logger:       n.config.logger,
		DB:           n.db,
		PromRegistry: n.config.promRegistry,
	})
	if err != nil {
		return fmt.Errorf("failed to load account state: %w", err)
	}
	n.accountState = accountState
	retrieverCfg := recovery.Config{
		Logger:           n.config.logger,
		PromRegistry:     n.config.promRegistry,
		Store:            n.db,
		AccountStore:     n.accountState,
		Node:             n,
		EpochSize:        n.config.epochSize,
		RetentionEpochs:  n.config.retentionEpochs,
		NodeRole:         n.config.nodeRole,
		InitialCommittee: n.config.initialCommittee,
	}
	if n.coldStore != nil {
		retrieverCfg.ColdStore = n.coldStore
	}
	retriever, err := recovery.New(retrieverCfg)
	if err != nil {
		return fmt.Errorf("failed to create retriever: %w", err)
	}
	n.retriever = retriever
	return nil
}

// Recover rebuilds the chains and account state from the persisted stores.
// When resync on failure is configured, a failed recovery wipes the stores
// before the error is returned
func (n *Node) Recover(ctx context.Context) error {
	if err := n.Open(); err != nil {
		return err
	}
	ctx, span := n.tracer.Start(
		ctx,
		"lazarus.Recover",
		trace.WithAttributes(
			attribute.Bool("trim_incomplete", n.config.trimIncomplete),
			attribute.String("node_role", string(n.config.nodeRole)),
		),
	)
	defer span.End()
	n.txChain.Reset()
	n.dsChain.Reset()
	n.linkChain.Reset()
	if err := n.recover(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if n.config.resyncOnFailure {
			n.config.logger.Warn(
				"recovery failed, wiping persisted state for resync",
				"component", "node",
				"error", err,
			)
			n.retriever.CleanAll()
		}
		return err
	}
	return nil
}

func (n *Node) recover(ctx context.Context) error {
	if err := n.retriever.RetrieveStates(); err != nil {
		return fmt.Errorf("failed to retrieve account state: %w", err)
	}
	if err := n.retriever.RetrieveTxBlocks(ctx, n.config.trimIncomplete); err != nil {
		return fmt.Errorf("failed to retrieve tx blocks: %w", err)
	}
	if err := n.retriever.RetrieveBlockLink(ctx, n.config.trimIncomplete); err != nil {
		return fmt.Errorf("failed to retrieve block links: %w", err)
	}
	n.mutex.Lock()
	n.committee = n.retriever.Committee()
	n.mutex.Unlock()
	if err := n.retriever.CleanExtraTxBodies(); err != nil {
		return fmt.Errorf("failed to clean extra tx bodies: %w", err)
	}
	if n.config.validateStates {
		if err := n.retriever.ValidateStates(); err != nil {
			return fmt.Errorf("failed to validate state: %w", err)
		}
	}
	n.config.logger.Info(
		fmt.Sprintf(
			"recovered %d tx blocks, %d ds blocks and %d block links",
			n.txChain.Len(),
			n.dsChain.Len(),
			n.linkChain.Len(),
		),
		"component", "node",
	)
	return nil
}

// CleanAll wipes every persisted record
func (n *Node) CleanAll() error {
	if err := n.Open(); err != nil {
		return err
	}
	n.retriever.CleanAll()
	return nil
}

// Close releases the stores. It is safe to call more than once
func (n *Node) Close() error {
	var err error
	n.closeOnce.Do(func() {
		err = n.close()
	})
	return err
}

func (n *Node) close() error {
	var err error
	if n.coldStore != nil {
		if closeErr := n.coldStore.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("cold store close: %w", closeErr))
		}
	}
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(context.Background()); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil
	return err
}

// Database returns the underlying database once the node is open
func (n *Node) Database() *database.Database {
	return n.db
}

func (n *Node) AccountState() *accountstate.Store {
	return n.accountState
}

func (n *Node) TxBlockChain() *chain.TxBlockChain {
	return n.txChain
}

func (n *Node) DSBlockChain() *chain.DSBlockChain {
	return n.dsChain
}

func (n *Node) BlockLinkChain() *chain.BlockLinkChain {
	return n.linkChain
}

// Committee returns the committee composition after the last recovery
func (n *Node) Committee() committee.Committee {
	n.mutex.RLock()
	defer n.mutex.RUnlock()
	return n.committee.Clone()
}

func (n *Node) AddTxBlock(block *models.TxBlock) error {
	return n.txChain.AddBlock(block)
}

func (n *Node) LastTxBlock() (*models.TxBlock, error) {
	return n.txChain.LastBlock()
}

func (n *Node) AddDSBlock(block *models.DSBlock) error {
	return n.dsChain.AddBlock(block)
}

// AddBlockLink appends the link to the in-memory chain and persists it
func (n *Node) AddBlockLink(link models.BlockLink) error {
	if err := n.linkChain.AddLink(link); err != nil {
		return err
	}
	return n.db.PutBlockLink(link)
}

// ResetBlockLinkChains empties the in-memory DS block and block link chains
func (n *Node) ResetBlockLinkChains() {
	n.dsChain.Reset()
	n.linkChain.Reset()
}

func (n *Node) UpdateCommitteeOnDSBlock(
	c []models.CommitteeMember,
	block *models.DSBlock,
) []models.CommitteeMember {
	return committee.UpdateOnDSBlock(c, block)
}

func (n *Node) UpdateCommitteeOnViewChange(
	block *models.VCBlock,
	c []models.CommitteeMember,
) []models.CommitteeMember {
	return committee.UpdateOnViewChange(c, block)
}

func (n *Node) UpdateCommitteeOnFallback(
	shardID uint32,
	leaderKey []byte,
	leaderPeer models.Peer,
	_ []models.CommitteeMember,
	shards []models.Shard,
) ([]models.CommitteeMember, error) {
	return committee.UpdateOnFallback(shardID, leaderKey, leaderPeer, shards)
}
