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

package dir

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/blinklabs-io/lazarus/database/plugin/coldstore"
	"github.com/prometheus/client_golang/prometheus"
)

// ColdStoreDir reads archived state deltas from files in a local directory
type ColdStoreDir struct {
	logger       *slog.Logger
	promRegistry prometheus.Registerer
	metrics      *coldstore.FetchMetrics
	dir          string
	sops         bool
}

func New(opts ...ColdStoreDirOptionFunc) *ColdStoreDir {
	c := &ColdStoreDir{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return c
}

func (c *ColdStoreDir) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

func (c *ColdStoreDir) SetPromRegistry(registry prometheus.Registerer) {
	c.promRegistry = registry
}

// Start implements the plugin.Plugin interface
func (c *ColdStoreDir) Start() error {
	if c.dir == "" {
		return errors.New("dir coldstore: directory not set")
	}
	info, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("dir coldstore: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("dir coldstore: %s is not a directory", c.dir)
	}
	c.metrics = coldstore.NewFetchMetrics(c.promRegistry, "dir")
	return nil
}

// Stop implements the plugin.Plugin interface
func (c *ColdStoreDir) Stop() error {
	return nil
}

func (c *ColdStoreDir) Close() error {
	return c.Stop()
}

// FetchStateDelta reads <dir>/stateDelta_<blockNum>
func (c *ColdStoreDir) FetchStateDelta(
	ctx context.Context,
	blockNum uint64,
) ([]byte, bool, error) {
	data, found, err := c.fetch(ctx, blockNum)
	c.metrics.Observe(data, found, err)
	return data, found, err
}

func (c *ColdStoreDir) fetch(
	ctx context.Context,
	blockNum uint64,
) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path := filepath.Join(c.dir, coldstore.StateDeltaObjectName(blockNum))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("dir coldstore: read %s: %w", path, err)
	}
	data, err = coldstore.MaybeDecrypt(data, c.sops)
	if err != nil {
		return nil, false, err
	}
	c.logger.Debug(
		fmt.Sprintf("read state delta for block %d (%d bytes)", blockNum, len(data)),
		"component", "coldstore",
	)
	return data, true, nil
}
