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
	"strconv"

	"github.com/blinklabs-io/lazarus/database/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RetrieveBlockLink rebuilds the block link store and the DS chain from the
// persisted block links, replaying every committee change in order. With
// trimIncomplete and the incomplete flag set, the last DS epoch is removed
func (r *Retriever) RetrieveBlockLink(
	ctx context.Context,
	trimIncomplete bool,
) error {
	_, span := r.tracer.Start(
		ctx,
		"recovery.RetrieveBlockLink",
		trace.WithAttributes(attribute.Bool("trim_incomplete", trimIncomplete)),
	)
	defer span.End()
	if err := r.retrieveBlockLink(trimIncomplete); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (r *Retriever) retrieveBlockLink(trimIncomplete bool) error {
	links, err := r.config.Store.GetAllBlockLinks()
	if err != nil {
		return fmt.Errorf("get block links: %w", err)
	}
	if len(links) == 0 {
		return ErrNoBlockLinks
	}
	slices.SortFunc(links, func(a, b models.BlockLink) int {
		return cmp.Compare(a.Position().Index, b.Position().Index)
	})
	if r.latestActiveDSBlockNum == nil {
		val, err := r.requiredMetadata(models.MetadataLatestActiveDSBlockNum)
		if err != nil {
			return err
		}
		num, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return fmt.Errorf(
				"parse %s %q: %w",
				models.MetadataLatestActiveDSBlockNum,
				val,
				err,
			)
		}
		r.latestActiveDSBlockNum = &num
	}
	incompleteVal, err := r.requiredMetadata(models.MetadataDSIncomplete)
	if err != nil {
		return err
	}
	var incomplete bool
	switch incompleteVal {
	case "1":
		incomplete = true
	case "0":
	default:
		return fmt.Errorf(
			"invalid %s value %q",
			models.MetadataDSIncomplete,
			incompleteVal,
		)
	}
	lastLink := links[len(links)-1]
	boundary := lastLink.Position().DSIndex
	if lastLink.Type() != models.BlockLinkTypeDS {
		if boundary == 0 {
			return ErrDSIndexUnderflow
		}
		boundary--
	}
	// The walk re-adds every DS block and link from the start
	r.config.Node.ResetBlockLinkChains()
	if err := r.config.Store.ResetBlockLinks(); err != nil {
		return fmt.Errorf("reset block links: %w", err)
	}
	toDelete := incomplete && trimIncomplete
	c := slices.Clone(r.config.InitialCommittee)
	stop := len(links)
	for i, link := range links {
		if toDelete &&
			link.Type() == models.BlockLinkTypeDS &&
			link.Position().DSIndex == boundary {
			stop = i
			break
		}
		c, err = r.replayLink(link, c)
		if err != nil {
			return err
		}
		if err := r.config.Node.AddBlockLink(link); err != nil {
			return fmt.Errorf(
				"add block link %d: %w",
				link.Position().Index,
				err,
			)
		}
	}
	r.committee = c
	r.metrics.blockLinks.Set(float64(stop))
	r.logger.Info(
		fmt.Sprintf(
			"retrieved %d block links, latest active ds block %d",
			stop,
			*r.latestActiveDSBlockNum,
		),
	)
	if !toDelete {
		return nil
	}
	if stop == len(links) {
		r.logger.Warn(
			fmt.Sprintf(
				"ds epoch %d marked incomplete but no ds link found for it",
				boundary,
			),
		)
		return nil
	}
	r.trimIncompleteEpoch(links[stop:])
	return nil
}

func (r *Retriever) requiredMetadata(name string) (string, error) {
	val, err := r.config.Store.GetMetadata(name)
	if err != nil {
		if errors.Is(err, models.ErrRecoveryMetadataNotFound) {
			return "", fmt.Errorf("%w: %s", ErrMissingMetadata, name)
		}
		return "", fmt.Errorf("get metadata %s: %w", name, err)
	}
	return val, nil
}

func (r *Retriever) replayLink(
	link models.BlockLink,
	c []models.CommitteeMember,
) ([]models.CommitteeMember, error) {
	switch l := link.(type) {
	case models.DSLink:
		block, err := r.config.Store.GetDSBlock(l.DSIndex)
		if err != nil {
			return nil, &MissingBlockError{Link: link, Err: err}
		}
		c = r.config.Node.UpdateCommitteeOnDSBlock(c, block)
		if err := r.config.Store.PutCommitteeSnapshot(l.DSIndex, c); err != nil {
			return nil, fmt.Errorf(
				"put committee snapshot for ds block %d: %w",
				l.DSIndex,
				err,
			)
		}
		if err := r.config.Node.AddDSBlock(block); err != nil {
			return nil, fmt.Errorf("add ds block %d: %w", l.DSIndex, err)
		}
		return c, nil
	case models.ViewChangeLink:
		block, err := r.config.Store.GetVCBlock(l.Hash)
		if err != nil {
			return nil, &MissingBlockError{Link: link, Err: err}
		}
		return r.config.Node.UpdateCommitteeOnViewChange(block, c), nil
	case models.FallbackLink:
		fb, err := r.config.Store.GetFallbackBlock(l.Hash)
		if err != nil {
			return nil, &MissingBlockError{Link: link, Err: err}
		}
		ret, err := r.config.Node.UpdateCommitteeOnFallback(
			fb.Block.ShardID,
			fb.Block.LeaderPubKey,
			fb.Block.LeaderPeer,
			c,
			fb.Shards,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"apply fallback block for link %d: %w",
				l.Index,
				err,
			)
		}
		return ret, nil
	default:
		return nil, fmt.Errorf(
			"%w: %s",
			models.ErrUnknownBlockLinkType,
			link.Type(),
		)
	}
}

// trimIncompleteEpoch deletes the blocks referenced by links. Failures are
// logged and the remaining links are still processed
func (r *Retriever) trimIncompleteEpoch(links []models.BlockLink) {
	for _, link := range links {
		var err error
		switch l := link.(type) {
		case models.DSLink:
			err = r.config.Store.DeleteDSBlock(l.DSIndex)
			if err == nil {
				r.clearIncompleteFlag(l.DSIndex)
			}
		case models.ViewChangeLink:
			err = r.config.Store.DeleteVCBlock(l.Hash)
		case models.FallbackLink:
			err = r.config.Store.DeleteFallbackBlock(l.Hash)
		}
		if err != nil {
			r.metrics.cleanupFailures.Inc()
			r.logger.Warn(
				fmt.Sprintf(
					"failed to delete %s block for link %d: %s",
					link.Type(),
					link.Position().Index,
					err,
				),
			)
			continue
		}
		r.metrics.trimmedLinks.Inc()
	}
}

func (r *Retriever) clearIncompleteFlag(dsIndex uint64) {
	if err := r.config.Store.PutMetadata(models.MetadataDSIncomplete, "0"); err != nil {
		r.metrics.cleanupFailures.Inc()
		r.logger.Warn(
			fmt.Sprintf("failed to clear %s: %s", models.MetadataDSIncomplete, err),
		)
	}
	if err := r.config.Store.DeleteCommitteeSnapshotsFrom(dsIndex); err != nil {
		r.metrics.cleanupFailures.Inc()
		r.logger.Warn(
			fmt.Sprintf(
				"failed to delete committee snapshots from ds block %d: %s",
				dsIndex,
				err,
			),
		)
	}
	r.logger.Info(fmt.Sprintf("removed incomplete ds block %d", dsIndex))
}
