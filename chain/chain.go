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

// Package chain holds the in-memory chains rebuilt during recovery: the TX
// block chain, the DS block chain and the block link chain
package chain

import (
	"slices"
	"sync"

	"github.com/blinklabs-io/lazarus/database/models"
)

// ordered is an append-only sequence whose entries carry strictly
// increasing numbers. Gaps are allowed
type ordered[T any] struct {
	mutex  sync.RWMutex
	name   string
	number func(T) uint64
	items  []T
}

func (o *ordered[T]) add(item T) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if len(o.items) > 0 {
		tip := o.number(o.items[len(o.items)-1])
		if num := o.number(item); num <= tip {
			return NewBlockNotFitChainTipError(o.name, num, tip)
		}
	}
	o.items = append(o.items, item)
	return nil
}

func (o *ordered[T]) last() (T, error) {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	if len(o.items) == 0 {
		var zero T
		return zero, ErrChainEmpty
	}
	return o.items[len(o.items)-1], nil
}

func (o *ordered[T]) all() []T {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return slices.Clone(o.items)
}

func (o *ordered[T]) len() int {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.items)
}

func (o *ordered[T]) reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.items = nil
}

// TxBlockChain is the in-memory chain of accepted TX blocks
type TxBlockChain struct {
	ordered[*models.TxBlock]
}

func NewTxBlockChain() *TxBlockChain {
	return &TxBlockChain{
		ordered: ordered[*models.TxBlock]{
			name:   "tx block",
			number: (*models.TxBlock).BlockNum,
		},
	}
}

// AddBlock appends a block whose number is above the current tip
func (c *TxBlockChain) AddBlock(block *models.TxBlock) error {
	return c.add(block)
}

// LastBlock returns the most recently accepted block
func (c *TxBlockChain) LastBlock() (*models.TxBlock, error) {
	return c.last()
}

// Blocks returns a copy of the accepted blocks in chain order
func (c *TxBlockChain) Blocks() []*models.TxBlock {
	return c.all()
}

func (c *TxBlockChain) Len() int {
	return c.len()
}

func (c *TxBlockChain) Reset() {
	c.reset()
}

// DSBlockChain is the in-memory chain of accepted DS blocks
type DSBlockChain struct {
	ordered[*models.DSBlock]
}

func NewDSBlockChain() *DSBlockChain {
	return &DSBlockChain{
		ordered: ordered[*models.DSBlock]{
			name: "ds block",
			number: func(b *models.DSBlock) uint64 {
				return b.DSIndex
			},
		},
	}
}

func (c *DSBlockChain) AddBlock(block *models.DSBlock) error {
	return c.add(block)
}

func (c *DSBlockChain) LastBlock() (*models.DSBlock, error) {
	return c.last()
}

func (c *DSBlockChain) Blocks() []*models.DSBlock {
	return c.all()
}

func (c *DSBlockChain) Len() int {
	return c.len()
}

func (c *DSBlockChain) Reset() {
	c.reset()
}

// BlockLinkChain is the in-memory chain of block links ordered by index
type BlockLinkChain struct {
	ordered[models.BlockLink]
}

func NewBlockLinkChain() *BlockLinkChain {
	return &BlockLinkChain{
		ordered: ordered[models.BlockLink]{
			name: "block link",
			number: func(l models.BlockLink) uint64 {
				return l.Position().Index
			},
		},
	}
}

func (c *BlockLinkChain) AddLink(link models.BlockLink) error {
	return c.add(link)
}

func (c *BlockLinkChain) LastLink() (models.BlockLink, error) {
	return c.last()
}

func (c *BlockLinkChain) Links() []models.BlockLink {
	return c.all()
}

func (c *BlockLinkChain) Len() int {
	return c.len()
}

func (c *BlockLinkChain) Reset() {
	c.reset()
}
