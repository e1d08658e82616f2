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

package accountstate

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/holiman/uint256"
)

var ErrBalanceOverflow = errors.New("account balance exceeds 256 bits")

// AccountDelta is the state of one account after the block that produced the
// delta. Deleted accounts carry no balance
type AccountDelta struct {
	cbor.StructAsArray
	Address models.Address
	Balance []byte
	Nonce   uint64
	Deleted bool
}

// Delta is the serialized form of a state delta. Each entry holds an
// absolute account state, so applying a later delta of the same epoch
// supersedes earlier ones
type Delta struct {
	cbor.StructAsArray
	Accounts []AccountDelta
}

// Account is the in-memory state of one account
type Account struct {
	Balance uint256.Int
	Nonce   uint64
}

// NewAccountDelta builds a delta entry for a live account
func NewAccountDelta(
	addr models.Address,
	balance *uint256.Int,
	nonce uint64,
) AccountDelta {
	return AccountDelta{
		Address: addr,
		Balance: balance.Bytes(),
		Nonce:   nonce,
	}
}

// EncodeDelta serializes the given account entries into a state delta
func EncodeDelta(accounts ...AccountDelta) ([]byte, error) {
	return cbor.Encode(&Delta{Accounts: accounts})
}

// DecodeDelta parses a serialized state delta. An empty input is an empty delta
func DecodeDelta(data []byte) (*Delta, error) {
	ret := &Delta{}
	if len(data) == 0 {
		return ret, nil
	}
	if _, err := cbor.Decode(data, ret); err != nil {
		return nil, fmt.Errorf("decode state delta: %w", err)
	}
	for _, entry := range ret.Accounts {
		if len(entry.Balance) > 32 {
			return nil, fmt.Errorf(
				"%w: account %s",
				ErrBalanceOverflow,
				entry.Address,
			)
		}
	}
	return ret, nil
}

func accountFromModel(m *models.Account) (Account, error) {
	var ret Account
	if len(m.Balance) > 32 {
		return ret, fmt.Errorf("%w: account %s", ErrBalanceOverflow, m.Address)
	}
	ret.Balance.SetBytes(m.Balance)
	ret.Nonce = m.Nonce
	return ret, nil
}

func (a Account) toModel(addr models.Address) *models.Account {
	return &models.Account{
		Address: addr,
		Balance: a.Balance.Bytes(),
		Nonce:   a.Nonce,
	}
}
