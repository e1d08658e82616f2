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
)

const AddressSize = 20

type Address [AddressSize]byte

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func AddressFromBytes(data []byte) (Address, error) {
	var ret Address
	if len(data) != AddressSize {
		return ret, fmt.Errorf(
			"invalid address length: expected %d, got %d",
			AddressSize,
			len(data),
		)
	}
	copy(ret[:], data)
	return ret, nil
}

// Account is the stored state of one account. Balance holds a 256-bit
// unsigned integer in big-endian form
type Account struct {
	cbor.StructAsArray
	Address Address
	Balance []byte
	Nonce   uint64
}

func NewAccountFromCbor(data []byte) (*Account, error) {
	var ret Account
	if _, err := cbor.Decode(data, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (a *Account) Cbor() ([]byte, error) {
	return cbor.Encode(a)
}
