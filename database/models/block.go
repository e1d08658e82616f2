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
	"github.com/blinklabs-io/gouroboros/cbor"
)

// DSBlock concludes a DS epoch. It admits the PoW winners into the DS
// committee and names the members that leave it
type DSBlock struct {
	cbor.StructAsArray
	DSIndex        uint64
	PrevHash       Hash
	LeaderPubKey   []byte
	PowWinners     []CommitteeMember
	RemovedPubKeys [][]byte
	Timestamp      uint64
}

func NewDSBlockFromCbor(data []byte) (*DSBlock, error) {
	var ret DSBlock
	if _, err := cbor.Decode(data, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (b *DSBlock) Hash() (Hash, error) {
	return cborHash(b)
}

func (b *DSBlock) Cbor() ([]byte, error) {
	return cbor.Encode(b)
}

// VCBlock records the outcome of a view change: the leaders that failed
// and the candidate that took over
type VCBlock struct {
	cbor.StructAsArray
	DSEpoch         uint64
	TxEpoch         uint64
	CandidateLeader CommitteeMember
	FaultyLeaders   []CommitteeMember
	Timestamp       uint64
}

func NewVCBlockFromCbor(data []byte) (*VCBlock, error) {
	var ret VCBlock
	if _, err := cbor.Decode(data, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (b *VCBlock) Hash() (Hash, error) {
	return cborHash(b)
}

func (b *VCBlock) Cbor() ([]byte, error) {
	return cbor.Encode(b)
}

// FallbackBlock records a shard taking over from a stalled DS committee
type FallbackBlock struct {
	cbor.StructAsArray
	DSEpoch      uint64
	TxEpoch      uint64
	ShardID      uint32
	LeaderPubKey []byte
	LeaderPeer   Peer
	Timestamp    uint64
}

// FallbackBlockWithShards is a fallback block together with the shard
// assignment that was in force when it was produced
type FallbackBlockWithShards struct {
	cbor.StructAsArray
	Block  FallbackBlock
	Shards []Shard
}

func NewFallbackBlockWithShardsFromCbor(data []byte) (*FallbackBlockWithShards, error) {
	var ret FallbackBlockWithShards
	if _, err := cbor.Decode(data, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Hash returns the hash of the fallback block, excluding the shard snapshot
func (b *FallbackBlockWithShards) Hash() (Hash, error) {
	return cborHash(b.Block)
}

func (b *FallbackBlockWithShards) Cbor() ([]byte, error) {
	return cbor.Encode(b)
}
