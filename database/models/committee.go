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
	"bytes"
	"encoding/hex"
	"net"
	"strconv"

	"github.com/blinklabs-io/gouroboros/cbor"
)

// Peer is the network address of a committee member
type Peer struct {
	cbor.StructAsArray
	IP   string
	Port uint16
}

func (p Peer) String() string {
	return net.JoinHostPort(p.IP, strconv.Itoa(int(p.Port)))
}

// CommitteeMember is one entry of a DS committee
type CommitteeMember struct {
	cbor.StructAsArray
	PubKey []byte
	Peer   Peer
}

func (m CommitteeMember) String() string {
	return hex.EncodeToString(m.PubKey) + "@" + m.Peer.String()
}

// SameKey reports whether both members carry the same public key
func (m CommitteeMember) SameKey(other CommitteeMember) bool {
	return bytes.Equal(m.PubKey, other.PubKey)
}

// Shard is the membership of one shard as captured in a fallback block
type Shard struct {
	cbor.StructAsArray
	Members []CommitteeMember
}

// CommitteeSnapshot records the committee composition after the DS block
// at DSIndex was applied
type CommitteeSnapshot struct {
	ID      uint   `gorm:"primarykey"`
	DSIndex uint64 `gorm:"uniqueIndex;not null"`
	Members []byte `gorm:"not null"` // CBOR list of CommitteeMember
}

func (CommitteeSnapshot) TableName() string {
	return "committee_snapshot"
}

func EncodeCommitteeMembers(members []CommitteeMember) ([]byte, error) {
	return cbor.Encode(members)
}

func DecodeCommitteeMembers(data []byte) ([]CommitteeMember, error) {
	var ret []CommitteeMember
	if _, err := cbor.Decode(data, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}
