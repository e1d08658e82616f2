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
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"golang.org/x/crypto/blake2b"
)

const HashSize = blake2b.Size256

// Hash identifies a block or transaction
type Hash [HashSize]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// NewHash returns the blake2b-256 digest of data
func NewHash(data []byte) Hash {
	return Hash(blake2b.Sum256(data))
}

// HashFromBytes converts a raw byte slice to a Hash
func HashFromBytes(data []byte) (Hash, error) {
	var ret Hash
	if len(data) != HashSize {
		return ret, fmt.Errorf(
			"invalid hash length: expected %d, got %d",
			HashSize,
			len(data),
		)
	}
	copy(ret[:], data)
	return ret, nil
}

// HashFromHex parses a hex-encoded hash
func HashFromHex(s string) (Hash, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, err
	}
	return HashFromBytes(data)
}

// cborHash returns the hash of the CBOR encoding of v
func cborHash(v any) (Hash, error) {
	data, err := cbor.Encode(v)
	if err != nil {
		return Hash{}, err
	}
	return NewHash(data), nil
}
