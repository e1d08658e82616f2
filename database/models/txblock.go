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

type TxBlockHeader struct {
	cbor.StructAsArray
	BlockNum      uint64
	DSBlockNum    uint64
	PrevHash      Hash
	StateRootHash Hash
	Timestamp     uint64
}

// TxBlock is a transaction block. The body carries only the hashes of the
// transactions it includes; bodies are stored separately
type TxBlock struct {
	cbor.StructAsArray
	Header   TxBlockHeader
	TxHashes []Hash
}

func NewTxBlockFromCbor(data []byte) (*TxBlock, error) {
	var ret TxBlock
	if _, err := cbor.Decode(data, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (b *TxBlock) BlockNum() uint64 {
	return b.Header.BlockNum
}

func (b *TxBlock) StateRootHash() Hash {
	return b.Header.StateRootHash
}

// Hash returns the hash of the block header
func (b *TxBlock) Hash() (Hash, error) {
	return cborHash(b.Header)
}

func (b *TxBlock) Cbor() ([]byte, error) {
	return cbor.Encode(b)
}
