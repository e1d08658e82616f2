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
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/blinklabs-io/lazarus/database/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type bufferedDelta struct {
	blockNum uint64
	data     []byte
}

// RetrieveTxBlocks loads every persisted tx block, replays the state deltas
// of the retained closed epochs and hands the blocks to the node. With
// trimIncomplete the blocks of the open epoch are deleted instead of kept
func (r *Retriever) RetrieveTxBlocks(
	ctx context.Context,
	trimIncomplete bool,
) error {
	ctx, span := r.tracer.Start(
		ctx,
		"recovery.RetrieveTxBlocks",
		trace.WithAttributes(attribute.Bool("trim_incomplete", trimIncomplete)),
	)
	defer span.End()
	if err := r.retrieveTxBlocks(ctx, trimIncomplete); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (r *Retriever) retrieveTxBlocks(
	ctx context.Context,
	trimIncomplete bool,
) error {
	blocks, err := r.config.Store.GetAllTxBlocks()
	if err != nil {
		return fmt.Errorf("get tx blocks: %w", err)
	}
	if len(blocks) == 0 {
		return ErrNoTxBlocks
	}
	slices.SortFunc(blocks, func(a, b *models.TxBlock) int {
		return cmp.Compare(a.BlockNum(), b.BlockNum())
	})
	lastBlockNum := blocks[len(blocks)-1].BlockNum()
	extra := OpenEpochBlocks(lastBlockNum, r.config.EpochSize)
	firstOpen := lastBlockNum + 1 - extra
	r.logger.Debug(
		fmt.Sprintf(
			"found %d tx blocks, last block %d, %d in open epoch",
			len(blocks),
			lastBlockNum,
			extra,
		),
	)
	// The replay below resets the delta buffer, so the open epoch deltas
	// are collected first
	var pending []bufferedDelta
	for blockNum := firstOpen; blockNum <= lastBlockNum && extra > 0; blockNum++ {
		delta, err := r.config.Store.GetStateDelta(blockNum)
		if err != nil {
			if errors.Is(err, models.ErrStateDeltaNotFound) {
				continue
			}
			return fmt.Errorf(
				"get state delta for block %d: %w",
				blockNum,
				err,
			)
		}
		pending = append(pending, bufferedDelta{blockNum: blockNum, data: delta})
	}
	window := ReplayWindow(
		lastBlockNum,
		r.config.EpochSize,
		r.config.RetentionEpochs,
	)
	if _, err := r.ReplayStateDeltas(ctx, window, true); err != nil {
		return err
	}
	if trimIncomplete && extra > 0 {
		cut, _ := slices.BinarySearchFunc(
			blocks,
			firstOpen,
			func(b *models.TxBlock, n uint64) int {
				return cmp.Compare(b.BlockNum(), n)
			},
		)
		for _, block := range blocks[cut:] {
			if err := r.config.Store.DeleteTxBlock(block.BlockNum()); err != nil {
				return fmt.Errorf(
					"delete open epoch tx block %d: %w",
					block.BlockNum(),
					err,
				)
			}
			r.metrics.trimmedTxBlocks.Inc()
		}
		r.logger.Info(
			fmt.Sprintf(
				"removed %d tx blocks of the incomplete epoch and discarded %d state deltas",
				len(blocks)-cut,
				len(pending),
			),
		)
		blocks = blocks[:cut]
	} else {
		for _, delta := range pending {
			if err := r.config.AccountStore.DeserializeDelta(delta.data, false); err != nil {
				return &DeltaDecodeError{BlockNum: delta.blockNum, Err: err}
			}
			r.metrics.deltasApplied.Inc()
			// Keep the open epoch recoverable after the buffer reset
			if err := r.config.Store.PutStateDelta(delta.blockNum, delta.data); err != nil {
				return fmt.Errorf(
					"put state delta for block %d: %w",
					delta.blockNum,
					err,
				)
			}
		}
	}
	for _, block := range blocks {
		if err := r.config.Node.AddTxBlock(block); err != nil {
			return fmt.Errorf("add tx block %d: %w", block.BlockNum(), err)
		}
	}
	r.metrics.txBlocks.Set(float64(len(blocks)))
	r.logger.Info(fmt.Sprintf("retrieved %d tx blocks", len(blocks)))
	return nil
}
