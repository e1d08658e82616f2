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

// Package committee implements the DS committee rotation rules applied when
// DS, view change and fallback blocks are accepted
package committee

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/blinklabs-io/lazarus/database/models"
)

var ErrUnknownShard = errors.New("fallback shard does not exist")

// Committee is an ordered committee. The first member is the leader
type Committee []models.CommitteeMember

// Clone returns a copy that shares no slice storage with c
func (c Committee) Clone() Committee {
	if c == nil {
		return nil
	}
	return slices.Clone(c)
}

// Leader returns the current leader, if any
func (c Committee) Leader() (models.CommitteeMember, bool) {
	if len(c) == 0 {
		return models.CommitteeMember{}, false
	}
	return c[0], true
}

// Equal reports whether both committees hold the same keys and peers in the same order
func (c Committee) Equal(other Committee) bool {
	return slices.EqualFunc(c, other, func(a, b models.CommitteeMember) bool {
		return a.SameKey(b) && a.Peer == b.Peer
	})
}

func (c Committee) String() string {
	parts := make([]string, 0, len(c))
	for _, member := range c {
		parts = append(parts, member.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (c Committee) indexOf(pubKey []byte) int {
	return slices.IndexFunc(c, func(m models.CommitteeMember) bool {
		return m.SameKey(models.CommitteeMember{PubKey: pubKey})
	})
}

// UpdateOnDSBlock removes the members named by the block, places the PoW
// winners at the front in block order and trims the tail back to the
// committee size from before the update
func UpdateOnDSBlock(c Committee, block *models.DSBlock) Committee {
	size := len(c)
	remaining := make(Committee, 0, size)
	for _, member := range c {
		removed := slices.ContainsFunc(block.RemovedPubKeys, func(key []byte) bool {
			return member.SameKey(models.CommitteeMember{PubKey: key})
		})
		winner := slices.ContainsFunc(block.PowWinners, member.SameKey)
		if removed || winner {
			continue
		}
		remaining = append(remaining, member)
	}
	ret := make(Committee, 0, len(block.PowWinners)+len(remaining))
	ret = append(ret, block.PowWinners...)
	ret = append(ret, remaining...)
	if size > 0 && len(ret) > size {
		ret = ret[:size]
	}
	return ret
}

// UpdateOnViewChange moves each faulty leader, in block order, to the back
// of the committee
func UpdateOnViewChange(c Committee, block *models.VCBlock) Committee {
	ret := c.Clone()
	for _, faulty := range block.FaultyLeaders {
		idx := ret.indexOf(faulty.PubKey)
		if idx < 0 {
			continue
		}
		member := ret[idx]
		ret = slices.Delete(ret, idx, idx+1)
		ret = append(ret, member)
	}
	return ret
}

// UpdateOnFallback replaces the committee with the fallback shard, led by the
// fallback leader
func UpdateOnFallback(
	shardID uint32,
	leaderKey []byte,
	leaderPeer models.Peer,
	shards []models.Shard,
) (Committee, error) {
	if uint64(shardID) >= uint64(len(shards)) {
		return nil, fmt.Errorf(
			"%w: shard %d of %d",
			ErrUnknownShard,
			shardID,
			len(shards),
		)
	}
	leader := models.CommitteeMember{PubKey: leaderKey, Peer: leaderPeer}
	ret := Committee{leader}
	for _, member := range shards[shardID].Members {
		if member.SameKey(leader) {
			continue
		}
		ret = append(ret, member)
	}
	return ret, nil
}
