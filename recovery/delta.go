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
	"context"
	"errors"
	"fmt"

	"github.com/blinklabs-io/lazarus/database/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ReplayStateDeltas rebuilds the local delta buffer for the blocks in rng and
// applies every delta found to the account state. It reports whether any
// delta was applied
func (r *Retriever) ReplayStateDeltas(
	ctx context.Context,
	rng BlockRange,
	importFromColdStore bool,
) (bool, error) {
	ctx, span := r.tracer.Start(
		ctx,
		"recovery.ReplayStateDeltas",
		trace.WithAttributes(
			attribute.Int64("start", int64(rng.Start)), // #nosec G115
			attribute.Int64("end", int64(rng.End)),     // #nosec G115
		),
	)
	defer span.End()
	applied, err := r.replayStateDeltas(ctx, rng, importFromColdStore)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return applied, err
}

func (r *Retriever) replayStateDeltas(
	ctx context.Context,
	rng BlockRange,
	importFromColdStore bool,
) (bool, error) {
	if err := r.config.Store.ResetStateDeltas(); err != nil {
		return false, fmt.Errorf("reset state deltas: %w", err)
	}
	if importFromColdStore && r.config.ColdStore == nil {
		r.logger.Debug("no cold store configured, skipping state delta import")
		importFromColdStore = false
	}
	var appliedCount uint64
	for blockNum := rng.Start; blockNum < rng.End; blockNum++ {
		if importFromColdStore {
			if err := r.importStateDelta(ctx, blockNum); err != nil {
				return false, err
			}
		}
		if (blockNum+1)%r.config.EpochSize == 0 {
			if err := r.config.Store.RefreshStateDeltas(); err != nil {
				return false, fmt.Errorf(
					"refresh state deltas at block %d: %w",
					blockNum,
					err,
				)
			}
		}
		delta, err := r.config.Store.GetStateDelta(blockNum)
		if err != nil {
			if errors.Is(err, models.ErrStateDeltaNotFound) {
				continue
			}
			return false, fmt.Errorf(
				"get state delta for block %d: %w",
				blockNum,
				err,
			)
		}
		if err := r.config.AccountStore.DeserializeDelta(delta, false); err != nil {
			return false, &DeltaDecodeError{BlockNum: blockNum, Err: err}
		}
		appliedCount++
		r.metrics.deltasApplied.Inc()
	}
	if appliedCount == 0 {
		return false, nil
	}
	if err := r.config.AccountStore.MoveUpdatesToDisk(); err != nil {
		return false, fmt.Errorf("flush account state: %w", err)
	}
	r.logger.Info(
		fmt.Sprintf(
			"replayed %d state deltas for blocks %d to %d",
			appliedCount,
			rng.Start,
			rng.End-1,
		),
	)
	return true, nil
}

func (r *Retriever) importStateDelta(
	ctx context.Context,
	blockNum uint64,
) error {
	data, found, err := r.config.ColdStore.FetchStateDelta(ctx, blockNum)
	if err != nil {
		return fmt.Errorf(
			"fetch state delta for block %d from cold store: %w",
			blockNum,
			err,
		)
	}
	if !found {
		r.metrics.coldStoreMisses.Inc()
		r.logger.Info(
			fmt.Sprintf("no archived state delta for block %d", blockNum),
		)
		return nil
	}
	if err := r.config.Store.PutStateDelta(blockNum, data); err != nil {
		return fmt.Errorf("put state delta for block %d: %w", blockNum, err)
	}
	r.metrics.coldStoreImports.Inc()
	return nil
}
