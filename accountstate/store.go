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
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/blinklabs-io/lazarus/database/models"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/blake2b"
)

// Persistence is the durable side of the account store
type Persistence interface {
	GetAllAccounts() ([]*models.Account, error)
	WriteAccounts(updates []*models.Account, deletes []models.Address) error
}

type StoreConfig struct {
	Logger       *slog.Logger
	DB           Persistence
	PromRegistry prometheus.Registerer
}

// Store holds account state in memory. Deltas are applied in memory and
// written to the persistence layer by MoveUpdatesToDisk
type Store struct {
	sync.RWMutex
	config   StoreConfig
	metrics  storeMetrics
	accounts map[models.Address]Account
	// dirty tracks addresses changed since the last flush
	dirty map[models.Address]struct{}
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.DB == nil {
		return nil, errors.New("account store: no persistence configured")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	s := &Store{
		config:   cfg,
		accounts: make(map[models.Address]Account),
		dirty:    make(map[models.Address]struct{}),
	}
	s.metrics.init(cfg.PromRegistry)
	return s, nil
}

// Get returns the current state of an account
func (s *Store) Get(addr models.Address) (Account, bool) {
	s.RLock()
	defer s.RUnlock()
	acct, ok := s.accounts[addr]
	return acct, ok
}

// Len returns the number of live accounts
func (s *Store) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.accounts)
}

// DeserializeDelta decodes a state delta and applies it to the in-memory
// state. Nothing is applied when decoding fails. Only committed deltas are
// replayed, so revertible deltas are applied like any other
func (s *Store) DeserializeDelta(data []byte, _ bool) error {
	delta, err := DecodeDelta(data)
	if err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	for _, entry := range delta.Accounts {
		if entry.Deleted {
			delete(s.accounts, entry.Address)
		} else {
			var acct Account
			acct.Balance.SetBytes(entry.Balance)
			acct.Nonce = entry.Nonce
			s.accounts[entry.Address] = acct
		}
		s.dirty[entry.Address] = struct{}{}
	}
	s.metrics.deltasApplied.Inc()
	s.updateGauges()
	return nil
}

// MoveUpdatesToDisk writes every account changed since the last flush
func (s *Store) MoveUpdatesToDisk() error {
	s.Lock()
	defer s.Unlock()
	var updates []*models.Account
	var deletes []models.Address
	for _, addr := range slices.SortedFunc(maps.Keys(s.dirty), compareAddress) {
		if acct, ok := s.accounts[addr]; ok {
			updates = append(updates, acct.toModel(addr))
		} else {
			deletes = append(deletes, addr)
		}
	}
	if err := s.config.DB.WriteAccounts(updates, deletes); err != nil {
		return fmt.Errorf("write account updates: %w", err)
	}
	s.config.Logger.Debug(
		fmt.Sprintf(
			"wrote %d account updates and %d deletions to disk",
			len(updates),
			len(deletes),
		),
		"component", "accountstate",
	)
	clear(s.dirty)
	s.metrics.flushes.Inc()
	s.updateGauges()
	return nil
}

// RetrieveFromDisk replaces the in-memory state with the persisted accounts
func (s *Store) RetrieveFromDisk() error {
	stored, err := s.config.DB.GetAllAccounts()
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	accounts := make(map[models.Address]Account, len(stored))
	for _, m := range stored {
		acct, err := accountFromModel(m)
		if err != nil {
			return err
		}
		accounts[m.Address] = acct
	}
	s.Lock()
	defer s.Unlock()
	s.accounts = accounts
	clear(s.dirty)
	s.updateGauges()
	s.config.Logger.Info(
		fmt.Sprintf("loaded %d accounts from disk", len(accounts)),
		"component", "accountstate",
	)
	return nil
}

// StateRootHash returns the commitment over the current in-memory state,
// including updates not yet written to disk. The empty state has the zero hash
func (s *Store) StateRootHash() models.Hash {
	s.RLock()
	defer s.RUnlock()
	if len(s.accounts) == 0 {
		return models.Hash{}
	}
	// blake2b.New256 only fails for an oversized key
	h, _ := blake2b.New256(nil)
	var leaf [models.AddressSize + 32 + 8]byte
	for _, addr := range slices.SortedFunc(maps.Keys(s.accounts), compareAddress) {
		acct := s.accounts[addr]
		copy(leaf[:models.AddressSize], addr[:])
		balance := acct.Balance.Bytes32()
		copy(leaf[models.AddressSize:], balance[:])
		nonce := leaf[models.AddressSize+32:]
		for i := range 8 {
			nonce[i] = byte(acct.Nonce >> (56 - 8*i))
		}
		h.Write(leaf[:])
	}
	var ret models.Hash
	copy(ret[:], h.Sum(nil))
	return ret
}

func (s *Store) updateGauges() {
	s.metrics.accounts.Set(float64(len(s.accounts)))
	s.metrics.pending.Set(float64(len(s.dirty)))
}

func compareAddress(a, b models.Address) int {
	return bytes.Compare(a[:], b[:])
}
