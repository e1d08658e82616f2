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

package models

import (
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
)

type BlockLinkType uint8

const (
	BlockLinkTypeDS BlockLinkType = iota
	BlockLinkTypeViewChange
	BlockLinkTypeFallback
)

func (t BlockLinkType) String() string {
	switch t {
	case BlockLinkTypeDS:
		return "DS"
	case BlockLinkTypeViewChange:
		return "ViewChange"
	case BlockLinkTypeFallback:
		return "Fallback"
	default:
		return fmt.Sprintf("BlockLinkType(%d)", uint8(t))
	}
}

// LinkPosition places a link in the link chain. Index is the global
// sequence number; DSIndex is the DS epoch the link belongs to
type LinkPosition struct {
	Index   uint64
	DSIndex uint64
}

func (p LinkPosition) Position() LinkPosition {
	return p
}

// BlockLink is an entry of the link chain. It is implemented by DSLink,
// ViewChangeLink and FallbackLink only
type BlockLink interface {
	Position() LinkPosition
	Type() BlockLinkType
	BlockHash() Hash
	isBlockLink()
}

// DSLink references the DS block stored at its DSIndex
type DSLink struct {
	LinkPosition
	Hash Hash
}

func (DSLink) Type() BlockLinkType { return BlockLinkTypeDS }
func (l DSLink) BlockHash() Hash   { return l.Hash }
func (DSLink) isBlockLink()        {}

// ViewChangeLink references a view change block by hash
type ViewChangeLink struct {
	LinkPosition
	Hash Hash
}

func (ViewChangeLink) Type() BlockLinkType { return BlockLinkTypeViewChange }
func (l ViewChangeLink) BlockHash() Hash   { return l.Hash }
func (ViewChangeLink) isBlockLink()        {}

// FallbackLink references a fallback block by hash
type FallbackLink struct {
	LinkPosition
	Hash Hash
}

func (FallbackLink) Type() BlockLinkType { return BlockLinkTypeFallback }
func (l FallbackLink) BlockHash() Hash   { return l.Hash }
func (FallbackLink) isBlockLink()        {}

// NewBlockLink builds the link variant matching linkType
func NewBlockLink(pos LinkPosition, linkType BlockLinkType, hash Hash) (BlockLink, error) {
	switch linkType {
	case BlockLinkTypeDS:
		return DSLink{LinkPosition: pos, Hash: hash}, nil
	case BlockLinkTypeViewChange:
		return ViewChangeLink{LinkPosition: pos, Hash: hash}, nil
	case BlockLinkTypeFallback:
		return FallbackLink{LinkPosition: pos, Hash: hash}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlockLinkType, linkType)
	}
}

// blockLinkRecord is the stored form of a BlockLink
type blockLinkRecord struct {
	cbor.StructAsArray
	Index   uint64
	DSIndex uint64
	Type    uint8
	Hash    Hash
}

func EncodeBlockLink(link BlockLink) ([]byte, error) {
	pos := link.Position()
	return cbor.Encode(&blockLinkRecord{
		Index:   pos.Index,
		DSIndex: pos.DSIndex,
		Type:    uint8(link.Type()),
		Hash:    link.BlockHash(),
	})
}

func DecodeBlockLink(data []byte) (BlockLink, error) {
	var rec blockLinkRecord
	if _, err := cbor.Decode(data, &rec); err != nil {
		return nil, err
	}
	return NewBlockLink(
		LinkPosition{Index: rec.Index, DSIndex: rec.DSIndex},
		BlockLinkType(rec.Type),
		rec.Hash,
	)
}
