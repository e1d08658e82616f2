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

package types

import (
	"encoding/binary"
	"errors"
	"slices"
)

// Blob key prefixes for each record kind
const (
	TxBlockKeyPrefix       = "tb"
	BlockLinkKeyPrefix     = "bl"
	DSBlockKeyPrefix       = "ds"
	VCBlockKeyPrefix       = "vc"
	FallbackBlockKeyPrefix = "fb"
	StateDeltaKeyPrefix    = "sd"
	TxBodyKeyPrefix        = "tx"
	TxBodyTmpKeyPrefix     = "tt"
	AccountKeyPrefix       = "ac"
)

// AllKeyPrefixes lists every record kind prefix, used for a full wipe
var AllKeyPrefixes = []string{
	TxBlockKeyPrefix,
	BlockLinkKeyPrefix,
	DSBlockKeyPrefix,
	VCBlockKeyPrefix,
	FallbackBlockKeyPrefix,
	StateDeltaKeyPrefix,
	TxBodyKeyPrefix,
	TxBodyTmpKeyPrefix,
	AccountKeyPrefix,
}

var ErrInvalidKey = errors.New("invalid blob key")

func Uint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

func uint64Key(prefix string, val uint64) []byte {
	return slices.Concat([]byte(prefix), Uint64ToBytes(val))
}

func hashKey(prefix string, hash []byte) []byte {
	return slices.Concat([]byte(prefix), hash)
}

func TxBlockKey(blockNum uint64) []byte {
	return uint64Key(TxBlockKeyPrefix, blockNum)
}

func BlockLinkKey(index uint64) []byte {
	return uint64Key(BlockLinkKeyPrefix, index)
}

func DSBlockKey(dsIndex uint64) []byte {
	return uint64Key(DSBlockKeyPrefix, dsIndex)
}

func StateDeltaKey(blockNum uint64) []byte {
	return uint64Key(StateDeltaKeyPrefix, blockNum)
}

func VCBlockKey(hash []byte) []byte {
	return hashKey(VCBlockKeyPrefix, hash)
}

func FallbackBlockKey(hash []byte) []byte {
	return hashKey(FallbackBlockKeyPrefix, hash)
}

func TxBodyKey(hash []byte) []byte {
	return hashKey(TxBodyKeyPrefix, hash)
}

func TxBodyTmpKey(hash []byte) []byte {
	return hashKey(TxBodyTmpKeyPrefix, hash)
}

func AccountKey(address []byte) []byte {
	return hashKey(AccountKeyPrefix, address)
}

// KeyUint64 decodes the big-endian number that follows prefix in key
func KeyUint64(key []byte, prefix string) (uint64, error) {
	if len(key) != len(prefix)+8 || string(key[:len(prefix)]) != prefix {
		return 0, ErrInvalidKey
	}
	return binary.BigEndian.Uint64(key[len(prefix):]), nil
}

// KeySuffix returns the part of key that follows prefix
func KeySuffix(key []byte, prefix string) ([]byte, error) {
	if len(key) < len(prefix) || string(key[:len(prefix)]) != prefix {
		return nil, ErrInvalidKey
	}
	return slices.Clone(key[len(prefix):]), nil
}
