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

package recovery

import (
	"fmt"
)

// CleanExtraTxBodies deletes the tx bodies recorded in the temporary tx body
// buffer and then empties the buffer. Only lookup nodes keep such a buffer
func (r *Retriever) CleanExtraTxBodies() error {
	if r.config.NodeRole != NodeRoleLookup {
		r.logger.Warn(
			fmt.Sprintf(
				"skipping tx body cleanup on %s node, only lookup nodes keep temporary tx bodies",
				r.config.NodeRole,
			),
		)
		return nil
	}
	hashes, err := r.config.Store.GetAllTxBodyTmp()
	if err != nil {
		// The buffer is still reset below
		r.metrics.cleanupFailures.Inc()
		r.logger.Warn(
			fmt.Sprintf("failed to read temporary tx bodies: %s", err),
		)
	}
	var deleted int
	for _, hash := range hashes {
		if err := r.config.Store.DeleteTxBody(hash); err != nil {
			r.metrics.cleanupFailures.Inc()
			r.logger.Warn(
				fmt.Sprintf("failed to delete tx body %s: %s", hash, err),
			)
			continue
		}
		deleted++
	}
	if err := r.config.Store.ResetTxBodyTmp(); err != nil {
		return fmt.Errorf("reset temporary tx bodies: %w", err)
	}
	r.logger.Info(fmt.Sprintf("removed %d extra tx bodies", deleted))
	return nil
}

// RetrieveStates loads the persisted account state
func (r *Retriever) RetrieveStates() error {
	if err := r.config.AccountStore.RetrieveFromDisk(); err != nil {
		return fmt.Errorf("retrieve account state: %w", err)
	}
	return nil
}

// CleanAll wipes every persisted record
func (r *Retriever) CleanAll() {
	if err := r.config.Store.ResetAll(); err != nil {
		r.logger.Error(fmt.Sprintf("failed to reset store: %s", err))
		return
	}
	r.logger.Info("reset all persisted state")
}
